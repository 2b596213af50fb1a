// Package config reads birdwatch settings from BIRDWATCH_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the process-wide configuration.
type Config struct {
	Addr      string `env:"BIRDWATCH_ADDR" envDefault:"127.0.0.1:8080"`
	DataDir   string `env:"BIRDWATCH_DATA_DIR"`
	DBPath    string `env:"BIRDWATCH_DB_PATH"`
	ViewsFile string `env:"BIRDWATCH_VIEWS_FILE"`
	Seed      bool   `env:"BIRDWATCH_SEED" envDefault:"false"`

	ReadTimeout     time.Duration `env:"BIRDWATCH_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"BIRDWATCH_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"BIRDWATCH_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Export Export `envPrefix:"BIRDWATCH_EXPORT_"`
}

// Export configures where projected sightings are exported to.
// An empty Driver disables exporting.
type Export struct {
	Driver     string `env:"DRIVER"` // sqlite | mysql | postgres | mongodb
	DSN        string `env:"DSN"`    // used verbatim when set
	Host       string `env:"HOST"`
	Port       int    `env:"PORT"`
	Database   string `env:"DATABASE"`
	Username   string `env:"USER"`
	Password   string `env:"PASSWORD"`
	SSLMode    string `env:"SSLMODE" envDefault:"disable"`
	Table      string `env:"TABLE" envDefault:"sighting_exports"`
	Collection string `env:"COLLECTION" envDefault:"sightings"`
	View       string `env:"VIEW" envDefault:"default"`
	Schedule   string `env:"SCHEDULE"` // cron expression; empty means manual only
}

// Load parses the environment and fills in derived defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.DataDir == "" {
		homeDir, _ := os.UserHomeDir()
		cfg.DataDir = filepath.Join(homeDir, ".local", "share", "birdwatch")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "birdwatch.db")
	}
	return &cfg, nil
}
