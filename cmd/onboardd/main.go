// Command onboardd serves the customer-onboarding REST API: session intake,
// SMS OTP issuance and verification, abandoned-session sweeps, and permanent
// client creation.
//
// Configuration comes from the process environment (a .env file is loaded
// when present):
//
//	ONBOARD_ADDR                 listen address (default :3000)
//	ONBOARD_REDIS_ADDR           Redis address (default 127.0.0.1:6379)
//	ONBOARD_REDIS_PASSWORD       Redis password (optional)
//	ONBOARD_MONGO_URI            Mongo connection string (default mongodb://127.0.0.1:27017)
//	ONBOARD_MONGO_DB             Mongo database name (default onboard)
//	ONBOARD_JWT_SECRET           HS256 signing secret (required)
//	ONBOARD_TWILIO_ACCOUNT_SID   Twilio account SID
//	ONBOARD_TWILIO_AUTH_TOKEN    Twilio auth token
//	ONBOARD_TWILIO_PHONE_NUMBER  Twilio sender number
//	ONBOARD_SENDGRID_API_KEY     SendGrid API key
//	ONBOARD_SENDGRID_SENDER      SendGrid sender address
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	onboard "github.com/cloudfive/onboard"
	"github.com/cloudfive/onboard/api"
	"github.com/cloudfive/onboard/jwt"
	"github.com/cloudfive/onboard/leads"
	"github.com/cloudfive/onboard/notify"
	"github.com/cloudfive/onboard/password"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	if err := run(logger); err != nil {
		logger.Error("onboardd exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	_ = godotenv.Load()

	jwtSecret := os.Getenv("ONBOARD_JWT_SECRET")
	if jwtSecret == "" {
		return errors.New("ONBOARD_JWT_SECRET is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     envOr("ONBOARD_REDIS_ADDR", "127.0.0.1:6379"),
		Password: os.Getenv("ONBOARD_REDIS_PASSWORD"),
	})
	defer func() { _ = rdb.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, err := mongo.Connect(options.Client().ApplyURI(envOr("ONBOARD_MONGO_URI", "mongodb://127.0.0.1:27017")))
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	leadStore := leads.NewStore(mongoClient.Database(envOr("ONBOARD_MONGO_DB", "onboard")))
	indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := leadStore.EnsureIndexes(indexCtx); err != nil {
		cancel()
		return err
	}
	cancel()

	sms := notify.NewTwilioClient(
		os.Getenv("ONBOARD_TWILIO_ACCOUNT_SID"),
		os.Getenv("ONBOARD_TWILIO_AUTH_TOKEN"),
		os.Getenv("ONBOARD_TWILIO_PHONE_NUMBER"),
	)
	mailer := notify.NewSendGridClient(
		os.Getenv("ONBOARD_SENDGRID_API_KEY"),
		os.Getenv("ONBOARD_SENDGRID_SENDER"),
		"The CloudFive Team",
	)

	cfg := onboard.DefaultConfig()
	cfg.JWT.PrivateKey = []byte(jwtSecret)

	engine, err := onboard.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithLeadStore(leadStore).
		WithSMSSender(sms).
		WithMailer(mailer).
		WithAuditSink(onboard.NewJSONWriterSink(os.Stdout)).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		return err
	}
	tokens, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.JWT.TTL,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte(jwtSecret),
		Issuer:        cfg.JWT.Issuer,
	})
	if err != nil {
		return err
	}

	a := api.New(engine, leadStore, hasher, tokens, mailer, api.WithLogger(logger))

	srv := &http.Server{
		Addr:              envOr("ONBOARD_ADDR", ":3000"),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("onboardd listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
