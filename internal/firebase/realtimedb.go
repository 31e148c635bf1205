package firebase

import (
	"context"
	"fmt"
	"strings"

	"click-war/internal/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

// NewRealtimeDBClient creates a Firebase Realtime Database client from the
// connection record. The record must pass Validate; nothing is defaulted.
// Additional firebase App options (credentials, endpoints) can be supplied via opts.
func NewRealtimeDBClient(ctx context.Context, cfg config.Firebase, opts ...option.ClientOption) (*db.Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, appConfig(cfg), opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("init realtime db client: %w", err)
	}

	return client, nil
}

// CredentialOptions returns the client options for a service account key
// file, or none when path is blank so Application Default Credentials apply.
func CredentialOptions(path string) []option.ClientOption {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(path)}
}

func appConfig(cfg config.Firebase) *firebase.Config {
	return &firebase.Config{
		DatabaseURL:   strings.TrimSpace(cfg.DatabaseURL),
		ProjectID:     strings.TrimSpace(cfg.ProjectID),
		StorageBucket: strings.TrimSpace(cfg.StorageBucket),
	}
}
