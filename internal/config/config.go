// Package config loads service settings from an optional YAML file, a .env
// file and CATALOG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root configuration of the catalog service.
type Config struct {
	HTTP  HTTPConfig  `mapstructure:"http"`
	GRPC  GRPCConfig  `mapstructure:"grpc"`
	Mongo MongoConfig `mapstructure:"mongo"`
	Store StoreConfig `mapstructure:"store"`
	Auth  AuthConfig  `mapstructure:"auth"`
	Log   LogConfig   `mapstructure:"log"`
}

type HTTPConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type GRPCConfig struct {
	Enable bool   `mapstructure:"enable"`
	Port   string `mapstructure:"port"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// StoreConfig selects the repository backend: "mongo" or "memory".
type StoreConfig struct {
	Type string `mapstructure:"type"`
}

type AuthConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // json | text
}

const envPrefix = "CATALOG"

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.read_timeout", 5*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.idle_timeout", 120*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("grpc.enable", true)
	v.SetDefault("grpc.port", "9090")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017/")
	v.SetDefault("mongo.database", "filmfinder")
	v.SetDefault("mongo.connect_timeout", 10*time.Second)
	v.SetDefault("store.type", "mongo")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig reads configPath (skipped when empty), then applies environment
// overrides such as CATALOG_MONGO_URI. MONGODB_URI and DATABASE_NAME are
// accepted as aliases for the mongo settings.
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("mongo.uri", envPrefix+"_MONGO_URI", "MONGODB_URI"); err != nil {
		return nil, fmt.Errorf("bind mongo.uri: %w", err)
	}
	if err := v.BindEnv("mongo.database", envPrefix+"_MONGO_DATABASE", "DATABASE_NAME"); err != nil {
		return nil, fmt.Errorf("bind mongo.database: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Type {
	case "mongo":
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("mongo.uri is required when store.type is mongo"))
		}
		if c.Mongo.Database == "" {
			errs = append(errs, errors.New("mongo.database is required when store.type is mongo"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown store.type %q (want mongo or memory)", c.Store.Type))
	}
	if c.HTTP.Port == "" {
		errs = append(errs, errors.New("http.port is required"))
	}
	if c.GRPC.Enable && c.GRPC.Port == "" {
		errs = append(errs, errors.New("grpc.port is required when grpc is enabled"))
	}
	return errors.Join(errs...)
}
