package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/go-credential-service/config"
	"github.com/oksasatya/go-credential-service/internal/container"
	"github.com/oksasatya/go-credential-service/internal/infrastructure/elastic"
	"github.com/oksasatya/go-credential-service/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-credential-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-credential-service/internal/infrastructure/redisstore"
	"github.com/oksasatya/go-credential-service/internal/interface/middleware"
	"github.com/oksasatya/go-credential-service/internal/router"
	"github.com/oksasatya/go-credential-service/pkg/helpers"
	"github.com/oksasatya/go-credential-service/pkg/mailer"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetJWT(helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.PasswordResetSecret, cfg.AccessTTL, cfg.RememberMeTTL, cfg.PasswordResetTTL))

	// Postgres: identities and, optionally, the audit trail
	if cfg.UserStore == "postgres" {
		pool, err := pginfra.NewPool(ctx, cfg)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to postgres")
		}
		defer pool.Close()

		if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			logger.WithError(err).Fatal("migration failed")
		}
		container.SetPGPool(pool)
		container.SetUserRepo(pginfra.NewUserRepository(pool))
	} else {
		logger.Warn("USER_STORE=memory: identities are lost on restart")
		container.SetUserRepo(memory.NewUserRepository())
	}

	// Redis: rate limiting and, optionally, OTP entries
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()
	if err := helpers.PingRedis(ctx, rdb); err != nil {
		if cfg.OTPStore == "redis" {
			logger.WithError(err).Fatal("failed to connect to redis")
		}
		logger.WithError(err).Warn("redis unavailable; rate limiting disabled")
	} else {
		container.SetRedis(rdb)
	}

	if cfg.OTPStore == "redis" {
		container.SetOTPRepo(redisstore.NewOTPRepository(rdb))
	} else {
		otps := memory.NewOTPRepository()
		go otps.RunSweeper(ctx, cfg.OTPSweepInterval)
		container.SetOTPRepo(otps)
	}

	notifier, closeNotifier := buildNotifier(cfg, logger)
	defer closeNotifier()
	container.SetNotifier(notifier)

	if err := setupAudit(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("failed to init audit sink")
	}

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled || cfg.Env == "development" {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	stop()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

// buildNotifier picks the delivery path for passcode mail. The returned func
// releases any connection it opened.
func buildNotifier(cfg *config.Config, logger *logrus.Logger) (mailer.Notifier, func()) {
	if !cfg.MailSendEnabled || cfg.Notifier == "log" {
		logger.Warn("mail delivery disabled; passcodes are not sent")
		return mailer.LogNotifier{Logger: logger}, func() {}
	}
	if cfg.Notifier == "mailgun" {
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
			logger.Fatal("NOTIFIER=mailgun requires MAILGUN_DOMAIN, MAILGUN_API_KEY and MAILGUN_SENDER")
		}
		return mailer.MailgunNotifier{MG: mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender).WithAPIBase(cfg.MailgunAPIBase)}, func() {}
	}

	pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to rabbitmq")
	}
	container.SetRabbitPub(pub)
	return mailer.NewQueueNotifier(pub), pub.Close
}

func setupAudit(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	switch cfg.AuditSink {
	case "postgres":
		container.SetAuditRepo(pginfra.NewAuditRepository(container.GetPGPool()))
	case "elasticsearch":
		es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			return err
		}
		audit := elastic.NewAuditRepository(es, cfg.ESAuditIndex)
		if err := audit.EnsureIndex(ctx); err != nil {
			logger.WithError(err).Warn("could not ensure audit index; relying on dynamic mapping")
		}
		container.SetES(es)
		container.SetAuditRepo(audit)
	}
	return nil
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	// Open sql DB via pgx stdlib
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
