// Package config handles loading and parsing application configuration.
// The YAML file is located through (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Every value can be overridden from the environment. A .env file in the
// working directory, when present, is loaded first so its entries behave
// like real environment variables (real ones still win).
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

// Storage drivers accepted in storage.driver.
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
//
// env-required:"true" means the app refuses to start if that value is
// missing, so a wrong default never goes unnoticed.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	Storage    Storage    `yaml:"storage"`
	Mongo      Mongo      `yaml:"mongo"`
	HTTPServer HTTPServer `yaml:"http_server"`
	CORS       CORS       `yaml:"cors"`
}

// Storage selects the backend.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"mongo"`

	// Path is the SQLite database file, used when Driver is "sqlite".
	Path string `yaml:"path" env:"STORAGE_PATH"`
}

// Mongo holds the document store connection settings.
type Mongo struct {
	URI            string        `yaml:"uri" env:"MONGO_URI"`
	Database       string        `yaml:"database" env:"MONGO_DATABASE" env-default:"students"`
	Collection     string        `yaml:"collection" env:"MONGO_COLLECTION" env-default:"students"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"MONGO_CONNECT_TIMEOUT" env-default:"10s"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:5000".
	Addr            string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_SERVER_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// CORS lists the origins allowed to call the API from a browser.
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

// Validate checks the combinations cleanenv's tags cannot express.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMongo:
		if c.Mongo.URI == "" {
			return errors.New("mongo.uri is required when storage.driver is mongo")
		}
	case DriverSQLite:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required when storage.driver is sqlite")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage.driver %q (want mongo, sqlite or memory)", c.Storage.Driver)
	}
	return nil
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// MustLoad reads, validates, and returns the application config.
//
// Functions prefixed with "Must" are allowed to fatal on failure: if this
// returns, the config is valid.
func MustLoad() *Config {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("cannot read .env: %s", err.Error())
	}

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	return cfg
}
