package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/spf13/viper"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds all service settings, read from an optional YAML file and
// overridden by environment variables.
type Config struct {
	InputDirectory  string
	OutputDirectory string
	StoreDriver     string
	DatabaseURL     string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Publishing is enabled when at least one broker is configured.
	KafkaBrokers []string
	KafkaTopic   string

	PushgatewayURL string
}

// keys maps config file keys to the environment variables that override them.
var keys = map[string]string{
	"input_directory":  "INPUT_DIRECTORY",
	"output_directory": "OUTPUT_DIRECTORY",
	"store_driver":     "STORE_DRIVER",
	"database_url":     "DATABASE_URL",
	"http_addr":        "HTTP_ADDR",
	"log_level":        "LOG_LEVEL",
	"log_format":       "LOG_FORMAT",
	"shutdown_timeout": "SHUTDOWN_TIMEOUT",
	"kafka_brokers":    "KAFKA_BROKERS",
	"kafka_topic":      "KAFKA_TOPIC",
	"pushgateway_url":  "PUSHGATEWAY_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input_directory", "./data/input")
	v.SetDefault("output_directory", "./data/output")
	v.SetDefault("store_driver", StoreSQLite)
	v.SetDefault("database_url", "")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "weather-observations")
	v.SetDefault("pushgateway_url", "")
}

// Load reads configuration. path names a YAML file; when empty, CONFIG_FILE is
// consulted and, if that is unset too, only defaults and environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range keys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path == "" {
		path = sharedcfg.EnvOrDefault("CONFIG_FILE", "")
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	shutdownTimeout, err := time.ParseDuration(v.GetString("shutdown_timeout"))
	if err != nil || shutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}

	cfg := &Config{
		InputDirectory:  v.GetString("input_directory"),
		OutputDirectory: v.GetString("output_directory"),
		StoreDriver:     strings.ToLower(v.GetString("store_driver")),
		DatabaseURL:     v.GetString("database_url"),
		HTTPAddr:        v.GetString("http_addr"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
		ShutdownTimeout: shutdownTimeout,
		KafkaBrokers:    parseBrokers(v.GetString("kafka_brokers")),
		KafkaTopic:      v.GetString("kafka_topic"),
		PushgatewayURL:  v.GetString("pushgateway_url"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.InputDirectory == "" {
		return errors.New("INPUT_DIRECTORY is required")
	}
	switch c.StoreDriver {
	case StoreSQLite:
		if c.OutputDirectory == "" {
			return errors.New("OUTPUT_DIRECTORY is required")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: must be %s or %s", c.StoreDriver, StoreSQLite, StorePostgres)
	}
	if c.KafkaEnabled() && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required")
	}
	return nil
}

// KafkaEnabled reports whether loaded observations should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseBrokers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(s)
}
