// Package config loads process settings from the environment and room definitions from disk.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/moodhome/moodhome/internal/store"
	"github.com/moodhome/moodhome/internal/types"
)

// Config is shared by every command. Flags on the root command override these values.
type Config struct {
	BrokerURL   string `env:"BROKER_URL" envDefault:"tcp://localhost:1883"`
	TopicPrefix string `env:"TOPIC_PREFIX" envDefault:"homeA"`

	StoreURL       string `env:"STORE_URL"`
	MongoURL       string `env:"MONGO_URL"`
	Database       string `env:"DB_NAME" envDefault:"smarthome"`
	FaceCollection string `env:"FACE_COLL" envDefault:"faces"`
	MoodCollection string `env:"MOOD_COLL" envDefault:"moods"`

	PKeepMood float64 `env:"P_KEEP_MOOD" envDefault:"0.99"`
	RoomsDir  string  `env:"ROOMS_DIR" envDefault:"rooms"`
	FacesFile string  `env:"FACES_FILE" envDefault:"faces.txt"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`
	MetricsAddr string `env:"METRICS_ADDR"`

	ConnectTimeout time.Duration `env:"MQTT_CONNECT_TIMEOUT" envDefault:"10s"`
	PublishTimeout time.Duration `env:"PUBLISH_TIMEOUT" envDefault:"2s"`
}

// Load parses the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.StoreURL == "" {
		cfg.StoreURL = cfg.MongoURL
	}
	return &cfg, nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	var errs []error
	if c.BrokerURL == "" {
		errs = append(errs, errors.New("broker url must not be empty"))
	}
	if c.TopicPrefix == "" {
		errs = append(errs, errors.New("topic prefix must not be empty"))
	}
	if strings.ContainsAny(c.TopicPrefix, "/+#") {
		errs = append(errs, fmt.Errorf("topic prefix must be a single topic level, got %q", c.TopicPrefix))
	}
	if c.PKeepMood < 0 || c.PKeepMood > 1 {
		errs = append(errs, fmt.Errorf("P_KEEP_MOOD must be within [0,1], got %v", c.PKeepMood))
	}
	return errors.Join(errs...)
}

// RequireStore fails when no store address was configured.
func (c *Config) RequireStore() error {
	if c.StoreURL == "" {
		return fmt.Errorf("%w: STORE_URL (or MONGO_URL) is required", types.ErrMissingConfig)
	}
	return nil
}

// StoreOptions returns the store settings.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		URL:            c.StoreURL,
		Database:       c.Database,
		FaceCollection: c.FaceCollection,
		MoodCollection: c.MoodCollection,
	}
}
