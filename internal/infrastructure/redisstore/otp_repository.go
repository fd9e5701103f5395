package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-credential-service/internal/domain/entity"
	"github.com/oksasatya/go-credential-service/internal/domain/repository"
)

// keyOTP is the Redis key holding the live code for (purpose, email).
func keyOTP(purpose entity.OTPPurpose, email string) string {
	return "otp:" + string(purpose) + ":" + email
}

// Lua script: compare code and delete in one step; expired entries are removed.
var consumeScript = redis.NewScript(`
local v = redis.call("HMGET", KEYS[1], "code", "expires_at")
if not v[1] then
  return 0
end
if tonumber(v[2]) <= tonumber(ARGV[2]) then
  redis.call("DEL", KEYS[1])
  return 0
end
if v[1] ~= ARGV[1] then
  return 0
end
redis.call("DEL", KEYS[1])
return 1
`)

// OTPRepository stores codes as Redis hashes that expire on their own.
type OTPRepository struct {
	rdb *redis.Client
}

func NewOTPRepository(rdb *redis.Client) *OTPRepository {
	return &OTPRepository{rdb: rdb}
}

func (r *OTPRepository) Save(ctx context.Context, otp *entity.OTP) error {
	key := keyOTP(otp.Purpose, otp.Email)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, map[string]any{
			"code":       otp.Code,
			"issued_at":  otp.IssuedAt.UnixMilli(),
			"expires_at": otp.ExpiresAt.UnixMilli(),
		})
		pipe.PExpireAt(ctx, key, otp.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	return nil
}

func (r *OTPRepository) Consume(ctx context.Context, email string, purpose entity.OTPPurpose, code string, now time.Time) (bool, error) {
	res, err := consumeScript.Run(ctx, r.rdb, []string{keyOTP(purpose, email)}, code, strconv.FormatInt(now.UnixMilli(), 10)).Int64()
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return res == 1, nil
}

var _ repository.OTPRepository = (*OTPRepository)(nil)
