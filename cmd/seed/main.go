// Seed prepares a fresh environment: it runs the migrations and makes sure
// an admin account exists, promoting an existing user with ADMIN_EMAIL or
// creating one.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"ecommerce-backend/internal/auth"
	"ecommerce-backend/internal/stores/postgres"
	"ecommerce-backend/internal/users"
	"ecommerce-backend/pkg/apperror"
	"ecommerce-backend/pkg/logkey"

	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("seed failed", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}

	db, err := postgres.OpenDB()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	u, err := users.NewConf(db)
	if err != nil {
		return err
	}
	return ensureAdmin(context.Background(), &u)
}

func ensureAdmin(ctx context.Context, u *users.Conf) error {
	email := strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))
	password := os.Getenv("ADMIN_PASSWORD")
	name := strings.TrimSpace(os.Getenv("ADMIN_NAME"))
	if email == "" {
		return fmt.Errorf("ADMIN_EMAIL is not set")
	}
	if password == "" {
		return fmt.Errorf("ADMIN_PASSWORD is not set")
	}
	if name == "" {
		name = "Admin"
	}

	existing, err := u.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		role := auth.RoleAdmin
		if _, err := u.UpdateUserInDB(ctx, existing.ID, users.UpdateUser{Role: &role, Password: &password}); err != nil {
			return fmt.Errorf("failed to promote existing user: %w", err)
		}
		slog.Info("existing user promoted to admin", slog.Int64(logkey.UserID, existing.ID), slog.String("email", email))
		return nil

	case apperror.KindOf(err) == apperror.NotFound:
		admin, err := u.InsertUserWithRole(ctx, users.AdminNewUser{
			Email:    email,
			Password: password,
			Name:     name,
			Role:     auth.RoleAdmin,
		})
		if err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		slog.Info("admin user created", slog.Int64(logkey.UserID, admin.ID), slog.String("email", email))
		return nil

	default:
		return err
	}
}
