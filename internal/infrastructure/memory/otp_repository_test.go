package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-credential-service/internal/domain/entity"
	"github.com/oksasatya/go-credential-service/internal/domain/repository"
	"github.com/oksasatya/go-credential-service/internal/domain/repository/repotest"
)

func TestOTPRepository_Contract(t *testing.T) {
	repotest.RunOTPRepository(t, func(t *testing.T) repository.OTPRepository {
		return NewOTPRepository()
	})
}

func TestOTPRepository_Sweep(t *testing.T) {
	repo := NewOTPRepository()
	now := time.Now()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &entity.OTP{Email: "old@x.com", Purpose: entity.OTPPurposeVerifyEmail, Code: "111111", ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, repo.Save(ctx, &entity.OTP{Email: "new@x.com", Purpose: entity.OTPPurposeVerifyEmail, Code: "222222", ExpiresAt: now.Add(time.Minute)}))

	assert.Equal(t, 1, repo.Sweep(now))
	assert.Equal(t, 1, repo.Len())
}

func TestOTPRepository_RunSweeperStopsOnCancel(t *testing.T) {
	repo := NewOTPRepository()
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, repo.Save(ctx, &entity.OTP{Email: "old@x.com", Purpose: entity.OTPPurposeVerifyEmail, Code: "111111", ExpiresAt: time.Now().Add(-time.Second)}))

	done := make(chan struct{})
	go func() {
		repo.RunSweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return repo.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
