package identity

import "time"

// User represents a registered storefront customer. The wallet core reads
// this directory to resolve user ids into names for notification text.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Credentials request structure.
type Credentials struct {
	Name     string
	Email    string
	Password string
}
