package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/snapjot/snapjot/internal/attach"
	"github.com/snapjot/snapjot/internal/calendar"
	"github.com/snapjot/snapjot/internal/capture"
	"github.com/snapjot/snapjot/internal/classify"
	"github.com/snapjot/snapjot/internal/config"
	"github.com/snapjot/snapjot/internal/service"
	"github.com/snapjot/snapjot/internal/storage"
)

// currentUserID resolves the user id from config, defaulting to a
// single-user installation.
func currentUserID() string {
	if id := viper.GetString("user.id"); id != "" {
		return id
	}
	return "default"
}

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDataPath("snapjot.db")
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initClassifier builds the classifier gateway from config.
func initClassifier(logger *slog.Logger) (*classify.Gateway, error) {
	cfg := classify.Config{
		Provider:    viper.GetString("classifier.provider"),
		APIKey:      viper.GetString("classifier.api_key"),
		Model:       viper.GetString("classifier.model"),
		RateLimit:   viper.GetInt("classifier.rate_limit"),
		Temperature: viper.GetFloat64("classifier.temperature"),
		MaxTokens:   viper.GetInt("classifier.max_tokens"),
		Timeout:     viper.GetDuration("classifier.timeout"),
	}
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	return classify.NewGateway(cfg, logger)
}

// initAttacher builds the photo attachment pipeline when object storage is
// configured, or returns nil so captures proceed without photos.
func initAttacher(ctx context.Context, logger *slog.Logger) (service.Attacher, error) {
	bucket := viper.GetString("photos.bucket")
	if bucket == "" {
		return nil, nil
	}

	store, err := attach.NewS3Store(ctx, attach.S3Config{
		Region:       viper.GetString("photos.region"),
		Bucket:       bucket,
		AccessKey:    viper.GetString("photos.access_key"),
		SecretKey:    viper.GetString("photos.secret_key"),
		BaseEndpoint: viper.GetString("photos.endpoint"),
		PublicURL:    viper.GetString("photos.public_url"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize photo storage: %w", err)
	}

	return attach.NewPipeline(store, logger), nil
}

// calendarOAuthConfig reads the calendar OAuth settings from config.
func calendarOAuthConfig() calendar.OAuth2Config {
	tokenFile := viper.GetString("calendar.token_file")
	if tokenFile == "" {
		tokenFile = config.DefaultDataPath("calendar-token.json")
	}
	return calendar.OAuth2Config{
		ClientID:     viper.GetString("calendar.client_id"),
		ClientSecret: viper.GetString("calendar.client_secret"),
		TokenFile:    config.ExpandPath(tokenFile),
	}
}

// initBridge builds the calendar bridge. An unauthenticated bridge is still
// usable; pushes become silent skips.
func initBridge(ctx context.Context, store service.Storage, logger *slog.Logger) *calendar.Bridge {
	return calendar.NewBridge(ctx, calendarOAuthConfig(), store, logger)
}

// initOrchestrator wires the full capture pipeline. The returned cleanup
// stops the classifier and closes the store.
func initOrchestrator(ctx context.Context, logger *slog.Logger) (*capture.Orchestrator, func(), error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}

	classifier, err := initClassifier(logger)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	attacher, err := initAttacher(ctx, logger)
	if err != nil {
		classifier.Close()
		_ = store.Close()
		return nil, nil, err
	}

	bridge := initBridge(ctx, store, logger)

	cleanup := func() {
		classifier.Close()
		_ = store.Close()
	}
	return capture.New(store, classifier, attacher, bridge, logger), cleanup, nil
}

// initDeleter wires the deletion flow: storage plus best-effort photo and
// calendar cleanup, without the classifier that captures need.
func initDeleter(ctx context.Context, logger *slog.Logger) (*capture.Orchestrator, service.Storage, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}

	attacher, err := initAttacher(ctx, logger)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	bridge := initBridge(ctx, store, logger)

	return capture.New(store, nil, attacher, bridge, logger), store, nil
}

// parseSince turns a --since duration flag into an absolute timestamp.
func parseSince(since time.Duration) time.Time {
	return time.Now().Add(-since)
}
