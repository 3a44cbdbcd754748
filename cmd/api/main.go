package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"ecommerce-backend/handlers"
	"ecommerce-backend/internal/auth"
	"ecommerce-backend/internal/cart"
	"ecommerce-backend/internal/consul"
	"ecommerce-backend/internal/orders"
	"ecommerce-backend/internal/products"
	"ecommerce-backend/internal/stores/kafka"
	"ecommerce-backend/internal/stores/postgres"
	"ecommerce-backend/internal/users"
	"ecommerce-backend/pkg/logkey"

	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	slog.SetDefault(logger)

	if err := startApp(); err != nil {
		slog.Error("failed to start service", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func startApp() error {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}

	slog.Info("initializing database and running migrations")
	db, err := postgres.OpenDB()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	expiry := 24 * time.Hour
	if raw := os.Getenv("JWT_EXPIRY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid JWT_EXPIRY: %w", err)
		}
		expiry = d
	}
	keys, err := auth.NewKeys(os.Getenv("JWT_SECRET"), expiry)
	if err != nil {
		return fmt.Errorf("jwt setup failed: %w", err)
	}

	u, err := users.NewConf(db)
	if err != nil {
		return err
	}
	p, err := products.NewConf(db)
	if err != nil {
		return err
	}
	ct, err := cart.NewConf(db)
	if err != nil {
		return err
	}
	o, err := orders.NewConf(db)
	if err != nil {
		return err
	}

	var k *kafka.Conf
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		k, err = kafka.NewConf(strings.Split(brokers, ","))
		if err != nil {
			return fmt.Errorf("kafka connection failed: %w", err)
		}
		defer k.Close()
		slog.Info("kafka producer connected", slog.String("brokers", brokers))
	} else {
		slog.Warn("KAFKA_BROKERS not set, order events disabled")
	}

	uploadsDir := os.Getenv("UPLOADS_DIR")
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create uploads dir: %w", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if os.Getenv("CONSUL_HTTP_ADDR") != "" {
		if err := registerWithConsul(port); err != nil {
			return err
		}
	}

	api := http.Server{
		Addr:         ":" + port,
		Handler:      handlers.API(keys, u, p, ct, o, k, uploadsDir),
		ReadTimeout:  8 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("api server listening", slog.String("addr", api.Addr))
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		slog.Info("shutdown initiated", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

func registerWithConsul(port string) error {
	client, err := consul.NewClient()
	if err != nil {
		return err
	}

	name := os.Getenv("SERVICE_NAME")
	if name == "" {
		name = "ecommerce-api"
	}
	host := os.Getenv("SERVICE_HOST")
	if host == "" {
		host, err = os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to resolve hostname: %w", err)
		}
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := consul.RegisterService(client, name, host, portNum); err != nil {
		return err
	}
	slog.Info("registered with consul", slog.String("service", name), slog.String("host", host))
	return nil
}
