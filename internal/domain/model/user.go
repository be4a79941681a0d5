package model

import (
	"html"
	"strconv"
	"strings"
	"time"

	"telegram-user-bot/internal/domain"
)

// Identity is the sender profile carried by an inbound update.
// It is only used to resolve or seed a User and is never stored as-is.
type Identity struct {
	ID        int64
	FirstName *string
	LastName  *string
	Username  *string
}

// User is a domain entity representing a Telegram user in our system.
// CreatedAt and UpdatedAt are owned by the store.
type User struct {
	ID        int64
	FirstName *string
	LastName  *string
	Username  *string
	IsBlocked bool
	IsBanned  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser seeds a user from an inbound identity with default flags.
func NewUser(identity Identity) (*User, error) {
	if identity.ID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:        identity.ID,
		FirstName: copyStr(identity.FirstName),
		LastName:  copyStr(identity.LastName),
		Username:  copyStr(identity.Username),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == 0 }

// ApplyIdentity refreshes profile fields from a newer identity of the same user.
func (u *User) ApplyIdentity(identity Identity) {
	if identity.ID != u.ID {
		return
	}
	u.FirstName = copyStr(identity.FirstName)
	u.LastName = copyStr(identity.LastName)
	u.Username = copyStr(identity.Username)
}

// Clone returns a deep copy so callers never share pointer fields.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.FirstName = copyStr(u.FirstName)
	c.LastName = copyStr(u.LastName)
	c.Username = copyStr(u.Username)
	return &c
}

func (u *User) FullName() string {
	return strings.TrimSpace(deref(u.FirstName) + " " + deref(u.LastName))
}

func (u *User) URL() string {
	return "tg://user?id=" + strconv.FormatInt(u.ID, 10)
}

// MentionHTML renders an HTML link to the user: "@username" when known,
// the full name otherwise. Empty when there is nothing to show.
func (u *User) MentionHTML() string {
	name := u.FullName()
	if u.Username != nil && *u.Username != "" {
		name = "@" + *u.Username
	}
	if name == "" {
		return ""
	}
	return `<a href="` + u.URL() + `">` + html.EscapeString(name) + `</a>`
}

func (u *User) String() string {
	return "User(id=" + strconv.FormatInt(u.ID, 10) +
		", username=" + deref(u.Username) +
		", first_name=" + deref(u.FirstName) +
		", last_name=" + deref(u.LastName) + ")"
}

// StrPtr returns nil for an empty string.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
