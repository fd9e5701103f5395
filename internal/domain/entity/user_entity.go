package entity

import (
	"time"
)

// User is the identity aggregate owned by the credential store.
// PasswordHash holds a bcrypt hash; SecurityStamp changes whenever the
// password changes so outstanding reset tokens stop working.
type User struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	SecurityStamp string
	IsVerified    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
