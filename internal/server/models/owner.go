// Package models defines server-side data models persisted in the database.
package models

import "time"

// Owner is the subject of a vault.
type Owner struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	ContactNumber string
	// PasswordHash is a bcrypt hash checked at login.
	PasswordHash []byte
	// RecoverySecret is the master password sealed by the secret codec. It
	// is handed back by a successful recovery.
	RecoverySecret string
	CreatedAt      time.Time
}
