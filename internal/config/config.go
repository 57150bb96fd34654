package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type Config struct {
	Addr           string        `env:"BLOCKSHOCK_ADDR" envDefault:":8080"`
	LogLevel       string        `env:"BLOCKSHOCK_LOG_LEVEL" envDefault:"info"`
	LogDev         bool          `env:"BLOCKSHOCK_LOG_DEV" envDefault:"false"`
	Store          string        `env:"BLOCKSHOCK_STORE" envDefault:"file"`
	DataDir        string        `env:"BLOCKSHOCK_DATA_DIR" envDefault:"./data"`
	SQLitePath     string        `env:"BLOCKSHOCK_SQLITE_PATH" envDefault:"./data/blockshock.db"`
	PostgresDSN    string        `env:"BLOCKSHOCK_POSTGRES_DSN"`
	SnapshotFormat string        `env:"BLOCKSHOCK_SNAPSHOT_FORMAT" envDefault:"json"`
	Seed           uint64        `env:"BLOCKSHOCK_SEED" envDefault:"0"`
	WriteTimeout   time.Duration `env:"BLOCKSHOCK_WRITE_TIMEOUT" envDefault:"3s"`
	ReadTimeout    time.Duration `env:"BLOCKSHOCK_READ_TIMEOUT" envDefault:"30s"`
}

// Load reads an optional .env file (missing files are ignored; existing
// environment variables win) and parses the environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreFile:
		if c.DataDir == "" {
			return errors.New("BLOCKSHOCK_DATA_DIR is required for the file store")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("BLOCKSHOCK_SQLITE_PATH is required for the sqlite store")
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return errors.New("BLOCKSHOCK_POSTGRES_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown BLOCKSHOCK_STORE %q", c.Store)
	}
	if c.WriteTimeout <= 0 || c.ReadTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}
