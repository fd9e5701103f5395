package entity

import "time"

// OTPPurpose separates codes issued for different flows so a code issued for
// one can never be spent on the other.
type OTPPurpose string

const (
	OTPPurposeVerifyEmail   OTPPurpose = "verify_email"
	OTPPurposeResetPassword OTPPurpose = "reset_password"
)

func (p OTPPurpose) Valid() bool {
	return p == OTPPurposeVerifyEmail || p == OTPPurposeResetPassword
}

// OTP is a live one-time passcode. At most one exists per (Email, Purpose);
// consuming it removes it.
type OTP struct {
	Email     string
	Purpose   OTPPurpose
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the code is no longer usable at now.
func (o *OTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
