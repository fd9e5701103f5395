package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-credential-service/internal/domain/entity"
	"github.com/oksasatya/go-credential-service/internal/domain/repository"
	"github.com/oksasatya/go-credential-service/internal/domain/repository/repotest"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestOTPRepository_Contract(t *testing.T) {
	repotest.RunOTPRepository(t, func(t *testing.T) repository.OTPRepository {
		_, rdb := newTestRedis(t)
		return NewOTPRepository(rdb)
	})
}

func TestOTPRepository_SaveSetsTTL(t *testing.T) {
	mr, rdb := newTestRedis(t)
	repo := NewOTPRepository(rdb)
	now := time.Now()

	require.NoError(t, repo.Save(context.Background(), &entity.OTP{
		Email: "a@x.com", Purpose: entity.OTPPurposeVerifyEmail, Code: "123456",
		IssuedAt: now, ExpiresAt: now.Add(5 * time.Minute),
	}))

	key := keyOTP(entity.OTPPurposeVerifyEmail, "a@x.com")
	require.True(t, mr.Exists(key))
	ttl := mr.TTL(key)
	assert.Greater(t, ttl, 4*time.Minute)
	assert.LessOrEqual(t, ttl, 5*time.Minute)

	mr.FastForward(6 * time.Minute)
	assert.False(t, mr.Exists(key))
}

func TestOTPRepository_RedisDownFailsClosed(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer func() { _ = rdb.Close() }()
	repo := NewOTPRepository(rdb)
	mr.Close()

	ok, err := repo.Consume(context.Background(), "a@x.com", entity.OTPPurposeVerifyEmail, "123456", time.Now())
	assert.Error(t, err)
	assert.False(t, ok)
}
