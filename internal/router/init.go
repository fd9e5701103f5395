package router

import (
	"github.com/oksasatya/go-credential-service/internal/application"
	"github.com/oksasatya/go-credential-service/internal/container"
	handlers "github.com/oksasatya/go-credential-service/internal/interface/http"
	"github.com/oksasatya/go-credential-service/internal/router/modules"
	"github.com/oksasatya/go-credential-service/pkg/helpers"
	"github.com/oksasatya/go-credential-service/pkg/mailer/templates"
)

type AccountModuleDeps struct {
	Identity *application.IdentityManager
	OTP      *application.OTPService
	Service  *application.AccountService
	Handler  *handlers.AccountHandler
}

func buildAccountDeps() AccountModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	identity := application.NewIdentityManager(container.GetUserRepo(), container.GetJWT(), cfg.RequireVerifiedLogin)
	otp := application.NewOTPService(container.GetOTPRepo(), cfg.OTPTTL, logger)

	var audit *application.Auditor
	if r := container.GetAuditRepo(); r != nil {
		audit = application.NewAuditor(r, logger)
	}

	service := application.NewAccountService(
		identity,
		otp,
		container.GetNotifier(),
		templates.NewComposer(cfg),
		cfg.NotifyTimeout,
		audit,
		logger,
	)

	handler := handlers.NewAccountHandler(
		service,
		helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure),
		logger,
	)

	return AccountModuleDeps{
		Identity: identity,
		OTP:      otp,
		Service:  service,
		Handler:  handler,
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	accountDeps := buildAccountDeps()

	var limits modules.RateLimits
	if cfg.RateLimitEnabled {
		limits = modules.DefaultRateLimits(container.GetRedis(), container.GetLogger(), cfg.RateLimitAllowPrivate)
	}
	r.Add(modules.NewAccountModule(accountDeps.Handler, limits))

	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(limits.Debug))
	}
}
