package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-credential-service/config"
	repo "github.com/oksasatya/go-credential-service/internal/domain/repository"
	"github.com/oksasatya/go-credential-service/pkg/helpers"
	"github.com/oksasatya/go-credential-service/pkg/mailer"
)

// app-level container to share constructed components across packages
// Router auto-wires modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client

	jwtManager *helpers.JWTManager

	rabbitPub *helpers.RabbitPublisher
	esClient  *elasticsearch.Client

	// Storage and delivery backends, chosen by config at startup.
	userRepo  repo.UserRepository
	otpRepo   repo.OTPRepository
	auditRepo repo.AuditRepository
	notifier  mailer.Notifier
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetPGPool(p *pgxpool.Pool)    { pgPool = p }
func GetPGPool() *pgxpool.Pool     { return pgPool }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager  { return jwtManager }

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }

func SetUserRepo(r repo.UserRepository)   { userRepo = r }
func GetUserRepo() repo.UserRepository    { return userRepo }
func SetOTPRepo(r repo.OTPRepository)     { otpRepo = r }
func GetOTPRepo() repo.OTPRepository      { return otpRepo }
func SetAuditRepo(r repo.AuditRepository) { auditRepo = r }
func GetAuditRepo() repo.AuditRepository  { return auditRepo }
func SetNotifier(n mailer.Notifier)       { notifier = n }
func GetNotifier() mailer.Notifier        { return notifier }
