package repository

import (
	"context"
	"time"

	"github.com/oksasatya/go-credential-service/internal/domain/entity"
)

// OTPRepository stores live one-time passcodes keyed by (email, purpose).
//
// Save overwrites any existing entry for the same key. Consume compares the
// candidate code against the live entry and, on an exact match, removes it in
// the same atomic step; it reports false without touching the entry on a
// mismatch, and false when the entry is missing or expired at now.
type OTPRepository interface {
	Save(ctx context.Context, otp *entity.OTP) error
	Consume(ctx context.Context, email string, purpose entity.OTPPurpose, code string, now time.Time) (bool, error)
}
