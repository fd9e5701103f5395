package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/go-credential-service/internal/interface/http"
	"github.com/oksasatya/go-credential-service/internal/interface/middleware"
)

// RateLimits holds per-route limiters. A nil limiter means unlimited.
type RateLimits struct {
	Register gin.HandlerFunc
	Login    gin.HandlerFunc
	SendOTP  gin.HandlerFunc
	CheckOTP gin.HandlerFunc
	Debug    gin.HandlerFunc
}

// DefaultRateLimits keys every limiter by client IP and route. Sending mail is
// limited hardest; checking codes is limited to bound guessing.
func DefaultRateLimits(rdb *redis.Client, logger *logrus.Logger, allowPrivate bool) RateLimits {
	var allow middleware.AllowFunc
	if allowPrivate {
		allow = middleware.AllowPrivateIP()
	}
	limit := func(max int) gin.HandlerFunc {
		return middleware.RateLimit(rdb, logger, max, time.Minute, middleware.KeyByIPAndPath(), allow)
	}
	return RateLimits{
		Register: limit(10),
		Login:    limit(20),
		SendOTP:  limit(5),
		CheckOTP: limit(10),
		Debug:    middleware.RateLimit(rdb, logger, 120, time.Minute, middleware.KeyByIP(), allow),
	}
}

type AccountModule struct {
	Handler *handlers.AccountHandler
	Limits  RateLimits
}

func NewAccountModule(h *handlers.AccountHandler, limits RateLimits) *AccountModule {
	return &AccountModule{Handler: h, Limits: limits}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/account")
	g.POST("/register", chain(m.Limits.Register, m.Handler.Register)...)
	g.POST("/login", chain(m.Limits.Login, m.Handler.Login)...)
	g.POST("/forgot-password", chain(m.Limits.SendOTP, m.Handler.ForgotPassword)...)
	g.POST("/resend-verification", chain(m.Limits.SendOTP, m.Handler.ResendVerification)...)
	g.POST("/verify-otp", chain(m.Limits.CheckOTP, m.Handler.VerifyOTP)...)
	g.POST("/reset-password", chain(m.Limits.CheckOTP, m.Handler.ResetPassword)...)
}

func chain(limiter gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	if limiter == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{limiter, h}
}
