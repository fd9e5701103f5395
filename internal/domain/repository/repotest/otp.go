// Package repotest holds behavioral suites shared by repository implementations.
package repotest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-credential-service/internal/domain/entity"
	"github.com/oksasatya/go-credential-service/internal/domain/repository"
)

// RunOTPRepository exercises the OTPRepository contract against fresh stores
// produced by newRepo.
func RunOTPRepository(t *testing.T, newRepo func(t *testing.T) repository.OTPRepository) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	entry := func(email string, purpose entity.OTPPurpose, code string) *entity.OTP {
		return &entity.OTP{Email: email, Purpose: purpose, Code: code, IssuedAt: now, ExpiresAt: now.Add(10 * time.Minute)}
	}

	t.Run("accepts matching code once", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, entry("a@x.com", entity.OTPPurposeVerifyEmail, "123456")))

		ok, err := repo.Consume(ctx, "a@x.com", entity.OTPPurposeVerifyEmail, "123456", now)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Consume(ctx, "a@x.com", entity.OTPPurposeVerifyEmail, "123456", now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("mismatch leaves entry intact", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, entry("a@x.com", entity.OTPPurposeVerifyEmail, "123456")))

		ok, err := repo.Consume(ctx, "a@x.com", entity.OTPPurposeVerifyEmail, "000000", now)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.Consume(ctx, "a@x.com", entity.OTPPurposeVerifyEmail, "123456", now)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("missing entry rejects", func(t *testing.T) {
		repo := newRepo(t)
		ok, err := repo.Consume(ctx, "nobody@x.com", entity.OTPPurposeResetPassword, "123456", now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("save overwrites previous code", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, entry("a@x.com", entity.OTPPurposeResetPassword, "111111")))
		require.NoError(t, repo.Save(ctx, entry("a@x.com", entity.OTPPurposeResetPassword, "222222")))

		ok, err := repo.Consume(ctx, "a@x.com", entity.OTPPurposeResetPassword, "111111", now)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.Consume(ctx, "a@x.com", entity.OTPPurposeResetPassword, "222222", now)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("purposes are isolated", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, entry("a@x.com", entity.OTPPurposeResetPassword, "333333")))

		ok, err := repo.Consume(ctx, "a@x.com", entity.OTPPurposeVerifyEmail, "333333", now)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.Consume(ctx, "a@x.com", entity.OTPPurposeResetPassword, "333333", now)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("emails are isolated", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, entry("a@x.com", entity.OTPPurposeVerifyEmail, "444444")))

		ok, err := repo.Consume(ctx, "b@x.com", entity.OTPPurposeVerifyEmail, "444444", now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expired entry rejects and is purged", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, entry("a@x.com", entity.OTPPurposeVerifyEmail, "555555")))

		later := now.Add(10 * time.Minute)
		ok, err := repo.Consume(ctx, "a@x.com", entity.OTPPurposeVerifyEmail, "555555", later)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.Consume(ctx, "a@x.com", entity.OTPPurposeVerifyEmail, "555555", now)
		require.NoError(t, err)
		assert.False(t, ok, "expired entry must not survive a rejected consume")
	})

	t.Run("parallel consume accepts exactly once", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, entry("race@x.com", entity.OTPPurposeResetPassword, "777777")))

		const n = 32
		var accepted atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				ok, err := repo.Consume(ctx, "race@x.com", entity.OTPPurposeResetPassword, "777777", now)
				assert.NoError(t, err)
				if ok {
					accepted.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), accepted.Load())
	})
}
