// Package config loads the Firebase connection record and process settings
// from the environment and an optional JSON web-config file.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Firebase is the connection record exported by the Firebase console for a
// web app. JSON names match the console snippet so it can be loaded as-is.
type Firebase struct {
	APIKey            string `env:"API_KEY" json:"apiKey"`
	AuthDomain        string `env:"AUTH_DOMAIN" json:"authDomain"`
	ProjectID         string `env:"PROJECT_ID" json:"projectId"`
	StorageBucket     string `env:"STORAGE_BUCKET" json:"storageBucket"`
	MessagingSenderID string `env:"MESSAGING_SENDER_ID" json:"messagingSenderId"`
	AppID             string `env:"APP_ID" json:"appId"`
	// MeasurementID is only used by analytics and may be empty.
	MeasurementID string `env:"MEASUREMENT_ID" json:"measurementId"`
	DatabaseURL   string `env:"DATABASE_URL" json:"databaseURL"`
}

// Config is the full process configuration.
type Config struct {
	Firebase Firebase `envPrefix:"FIREBASE_"`

	// CredentialsFile points at a service account key. When empty, Application
	// Default Credentials are used.
	CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	// JSONFilePath is an optional web-config JSON file merged under the
	// environment values.
	JSONFilePath string `env:"FIREBASE_CONFIG"`

	// PollInterval is how often subscriptions check for changes.
	PollInterval time.Duration `env:"REALTIME_POLL_INTERVAL" envDefault:"1s"`

	HTTPAddress string `env:"HTTP_ADDRESS" envDefault:":8080"`
	Team        string `env:"CLICKWAR_TEAM"`
}

// Validate reports whether the record is populated enough to construct a
// client handle. Every field except MeasurementID is required.
func (f Firebase) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"apiKey", f.APIKey},
		{"authDomain", f.AuthDomain},
		{"projectId", f.ProjectID},
		{"storageBucket", f.StorageBucket},
		{"messagingSenderId", f.MessagingSenderID},
		{"appId", f.AppID},
		{"databaseURL", f.DatabaseURL},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteConfig, strings.Join(missing, ", "))
	}

	u, err := url.Parse(strings.TrimSpace(f.DatabaseURL))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDatabaseURL, err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute https URL", ErrInvalidDatabaseURL, f.DatabaseURL)
	}

	return nil
}

// Validate checks the connection record and the process settings.
func (c *Config) Validate() error {
	if err := c.Firebase.Validate(); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive, got %s", ErrInvalidSetting, c.PollInterval)
	}
	return nil
}

// Redacted returns a copy with the API key masked, safe to log.
func (f Firebase) Redacted() Firebase {
	if n := len(f.APIKey); n > 4 {
		f.APIKey = strings.Repeat("*", n-4) + f.APIKey[n-4:]
	} else if n > 0 {
		f.APIKey = "****"
	}
	return f
}
