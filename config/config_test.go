package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, "redis", cfg.OTPStore)
	assert.Equal(t, "queue", cfg.Notifier)
	assert.False(t, cfg.RequireVerifiedLogin)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("OTP_TTL", "2m")
	t.Setenv("OTP_STORE", "MEMORY")
	t.Setenv("AUTH_REQUIRE_VERIFIED_LOGIN", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test, ,http://b.test")

	cfg := Load()

	assert.Equal(t, 2*time.Minute, cfg.OTPTTL)
	assert.Equal(t, "memory", cfg.OTPStore)
	assert.True(t, cfg.RequireVerifiedLogin)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("OTP_TTL", "soon")
	t.Setenv("REDIS_DB", "x")

	cfg := Load()

	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero otp ttl", func(c *Config) { c.OTPTTL = 0 }},
		{"zero notify timeout", func(c *Config) { c.NotifyTimeout = 0 }},
		{"unknown user store", func(c *Config) { c.UserStore = "mysql" }},
		{"unknown otp store", func(c *Config) { c.OTPStore = "etcd" }},
		{"unknown notifier", func(c *Config) { c.Notifier = "sms" }},
		{"memory otp without sweep", func(c *Config) { c.OTPStore, c.OTPSweepInterval = "memory", 0 }},
		{"postgres audit without postgres", func(c *Config) { c.UserStore = "memory" }},
		{"dev secrets in production", func(c *Config) { c.Env = "production" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
