package account

import (
	"strings"
	"time"
)

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// NormalizeEmail trims and lower-cases an address so one mailbox maps to one
// account and one conversation.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
