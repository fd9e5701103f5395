package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-credential-service/internal/domain/entity"
	repo "github.com/oksasatya/go-credential-service/internal/domain/repository"
	"github.com/oksasatya/go-credential-service/pkg/helpers"
)

// OTPService issues and validates one-time passcodes scoped to
// (email, purpose). It never delivers codes; callers do.
type OTPService struct {
	Repo   repo.OTPRepository
	TTL    time.Duration
	Logger *logrus.Logger

	now      func() time.Time
	generate func() (string, error)
}

func NewOTPService(repo repo.OTPRepository, ttl time.Duration, logger *logrus.Logger) *OTPService {
	return &OTPService{
		Repo:     repo,
		TTL:      ttl,
		Logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		generate: helpers.GenOTPCode,
	}
}

// normalizeEmail is the key form used for OTP entries. Matching is exact,
// like identity lookups.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// Issue generates a fresh code for (email, purpose), replacing any live one.
func (s *OTPService) Issue(ctx context.Context, email string, purpose entity.OTPPurpose) (string, error) {
	if !purpose.Valid() {
		return "", errors.New("unknown otp purpose")
	}
	code, err := s.generate()
	if err != nil {
		return "", err
	}
	now := s.now()
	otp := &entity.OTP{
		Email:     normalizeEmail(email),
		Purpose:   purpose,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.TTL),
	}
	if err := s.Repo.Save(ctx, otp); err != nil {
		return "", err
	}
	otpIssued.Add(string(purpose), 1)
	return code, nil
}

// Validate reports whether code is the live code for (email, purpose) and
// consumes it if so. Any store failure counts as a rejection.
func (s *OTPService) Validate(ctx context.Context, email string, purpose entity.OTPPurpose, code string) bool {
	if !purpose.Valid() || !wellFormedCode(code) {
		otpRejected.Add(string(purpose), 1)
		return false
	}
	ok, err := s.Repo.Consume(ctx, normalizeEmail(email), purpose, code, s.now())
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("purpose", purpose).Error("otp consume failed")
		}
		ok = false
	}
	if ok {
		otpAccepted.Add(string(purpose), 1)
	} else {
		otpRejected.Add(string(purpose), 1)
	}
	return ok
}

func wellFormedCode(code string) bool {
	if len(code) != helpers.OTPLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
