// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an identity record. Usernames are unique and case-sensitive.
// The credential is stored as an argon2 verifier plus per-user salt; the
// face template is the encoded biometric vector captured at registration.
type User struct {
	ID           string
	UserName     string
	Salt         []byte
	Verifier     []byte
	FaceTemplate []byte
	CreatedAt    time.Time
}
