package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(userSyncTotal, dbPoolStats)
}

var (
	userSyncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_sync_total",
			Help: "User directory operations by outcome.",
		},
		[]string{"op", "result"}, // op: get_or_create|update, result: found|created|raced|updated|not_found|error
	)

	dbPoolStats = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_stats",
			Help: "Current state of the database connection pool.",
		},
		[]string{"state"}, // total, idle, in_use
	)
)

func IncUserSync(op, result string) {
	userSyncTotal.WithLabelValues(norm(op), norm(result)).Inc()
}

func SetDBPoolStats(total, idle, inUse int32) {
	dbPoolStats.WithLabelValues("total").Set(float64(total))
	dbPoolStats.WithLabelValues("idle").Set(float64(idle))
	dbPoolStats.WithLabelValues("in_use").Set(float64(inUse))
}
