package application

import (
	"errors"
	"sort"
	"strings"

	"github.com/oksasatya/go-credential-service/internal/domain/entity"
)

var (
	ErrNotFound           = errors.New("invalid email")
	ErrInvalidCredentials = errors.New("invalid login attempt")
	ErrEmailNotVerified   = errors.New("email not verified")
	// ErrInvalidOTP covers missing, wrong and expired codes alike.
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
	ErrInvalidResetToken  = errors.New("invalid password reset token")
	ErrResetFailed        = errors.New("error resetting password")
	ErrVerificationFailed = errors.New("error verifying email")
)

// ValidationError carries per-field messages, keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConflictError means the identity already exists or is already in the
// requested state.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// DeliveryError is logged and never returned to callers.
type DeliveryError struct {
	To      string
	Purpose entity.OTPPurpose
	Err     error
}

func (e *DeliveryError) Error() string {
	return "deliver " + string(e.Purpose) + " message: " + e.Err.Error()
}

func (e *DeliveryError) Unwrap() error { return e.Err }
