package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/oksasatya/go-credential-service/config"
	"github.com/oksasatya/go-credential-service/internal/domain/entity"
	"github.com/oksasatya/go-credential-service/internal/domain/repository"
	pginfra "github.com/oksasatya/go-credential-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-credential-service/pkg/helpers"
)

// seed inserts a verified demo identity so login works without mail delivery.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()
	users := pginfra.NewUserRepository(pool)

	email := "demo@example.com"
	username := "demoUser"
	password := "Passw0rd!"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		logger.WithError(err).Fatal("failed to hash password")
	}

	u := &entity.User{
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		SecurityStamp: uuid.NewString(),
	}
	err = users.Create(ctx, u)
	if errors.Is(err, repository.ErrDuplicate) {
		existing, gerr := users.GetByEmail(ctx, email)
		if gerr != nil {
			logger.WithError(gerr).Fatal("seed user exists but could not be loaded")
		}
		u = existing
	} else if err != nil {
		logger.WithError(err).Fatal("failed to seed user")
	}
	if err := users.SetVerified(ctx, u.ID); err != nil {
		logger.WithError(err).Fatal("failed to mark seed user verified")
	}
	fmt.Printf("seeded user: id=%s email=%s username=%s password=%s\n", u.ID, email, username, password)
}
