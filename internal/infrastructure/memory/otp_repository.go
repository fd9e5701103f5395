package memory

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/oksasatya/go-credential-service/internal/domain/entity"
	"github.com/oksasatya/go-credential-service/internal/domain/repository"
)

type otpKey struct {
	email   string
	purpose entity.OTPPurpose
}

// OTPRepository keeps live codes in process memory. The mutex only guards map
// access, so it is never held across hashing or delivery.
type OTPRepository struct {
	mu      sync.Mutex
	entries map[otpKey]entity.OTP
}

func NewOTPRepository() *OTPRepository {
	return &OTPRepository{entries: make(map[otpKey]entity.OTP)}
}

func (r *OTPRepository) Save(_ context.Context, otp *entity.OTP) error {
	r.mu.Lock()
	r.entries[otpKey{otp.Email, otp.Purpose}] = *otp
	r.mu.Unlock()
	return nil
}

func (r *OTPRepository) Consume(_ context.Context, email string, purpose entity.OTPPurpose, code string, now time.Time) (bool, error) {
	k := otpKey{email, purpose}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[k]
	if !ok {
		return false, nil
	}
	if e.Expired(now) {
		delete(r.entries, k)
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(e.Code), []byte(code)) != 1 {
		return false, nil
	}
	delete(r.entries, k)
	return true, nil
}

// Sweep drops expired entries and returns how many were removed.
func (r *OTPRepository) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, e := range r.entries {
		if e.Expired(now) {
			delete(r.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired ones included.
func (r *OTPRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *OTPRepository) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			r.Sweep(now)
		}
	}
}

var _ repository.OTPRepository = (*OTPRepository)(nil)
