// Package config handles loading and validating application
// configuration.
//
// Sources, lowest priority first:
//  1. Defaults declared with env-default tags
//  2. An optional YAML file, from CONFIG_PATH or the --config flag
//  3. Environment variables, including those loaded from .env and
//     .env.local in the working directory
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file and can be overridden by
// the corresponding environment variable.
type Config struct {
	// Env controls log format and verbosity: "dev", "staging" or "prod".
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	Storage Storage `yaml:"storage"`

	HTTPServer `yaml:"http_server"`
}

// Storage selects and configures the persistence backend.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"mongo"`

	// MongoURI is the connection string for the document store.
	MongoURI      string `yaml:"mongo_uri" env:"MONGODB_URI"`
	MongoDatabase string `yaml:"mongo_database" env:"MONGODB_DATABASE" env-default:"students"`

	// Path is the SQLite file used by the sqlite driver.
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"storage/storage.db"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	Port string `yaml:"port" env:"PORT" env-default:"4000"`

	// Address overrides Port with a full listen address, e.g. "localhost:8082".
	Address string `yaml:"address" env:"HTTP_SERVER_ADDR"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// Addr is the address the server listens on.
func (h HTTPServer) Addr() string {
	if h.Address != "" {
		return h.Address
	}
	return ":" + h.Port
}

// Validate reports configuration that cannot work.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMongo:
		if c.Storage.MongoURI == "" {
			return errors.New("MONGODB_URI is required for the mongo storage driver")
		}
	case DriverSQLite:
		if c.Storage.Path == "" {
			return errors.New("STORAGE_PATH is required for the sqlite storage driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q (want %s, %s or %s)",
			c.Storage.Driver, DriverMongo, DriverSQLite, DriverMemory)
	}

	if c.HTTPServer.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be positive")
	}
	return nil
}

// Load reads the configuration. args are the command-line arguments
// without the program name.
func Load(args []string) (*Config, error) {
	// Missing .env files are normal outside local development.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		fs := flag.NewFlagSet("students-api", flag.ContinueOnError)
		path := fs.String("config", "", "Path to the configuration YAML file")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		configPath = *path
	}

	var cfg Config
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad is Load for main: if it returns, the config is valid.
func MustLoad() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %s", err)
	}
	return cfg
}
