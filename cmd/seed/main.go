package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"telegram-user-bot/internal/config"
	"telegram-user-bot/internal/domain/model"
	pg "telegram-user-bot/internal/infra/db/postgres"
	"telegram-user-bot/internal/infra/logging"
	"telegram-user-bot/internal/usecase"
)

// Seeds a handful of users for local testing. Safe to run repeatedly.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Connect Postgres
	pool, err := pg.NewPgxPool(ctx, cfg.Database, logger)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if err := pg.Migrate(cfg.Database.DSN(), logger); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	directory := usecase.NewUserDirectory(pg.NewPostgresUserRepo(pool), pg.NewTxManager(pool), logger)

	seed := []model.Identity{
		{ID: 100001, FirstName: model.StrPtr("Alice"), Username: model.StrPtr("alice_dev")},
		{ID: 100002, FirstName: model.StrPtr("Bob"), LastName: model.StrPtr("Builder")},
		{ID: 100003},
	}

	for _, id := range seed {
		u, created, err := directory.GetOrCreate(ctx, id)
		if err != nil {
			log.Fatalf("seed user %d: %v", id.ID, err)
		}
		state := "exists"
		if created {
			state = "created"
		}
		fmt.Printf("%-7s id=%d name=%q created_at=%s\n", state, u.ID, u.FullName(), u.CreatedAt.Format(time.RFC3339))
	}

	n, err := directory.Count(ctx)
	if err != nil {
		log.Fatalf("count users: %v", err)
	}
	fmt.Printf("Seeding complete. %d users in directory.\n", n)
}
