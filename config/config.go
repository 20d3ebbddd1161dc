package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the service. It is loaded once in
// app.Run and handed to constructors explicitly; there is no package-level
// instance, so tests can build arbitrary configurations.
type Config struct {
	Database struct {
		Host     string `mapstructure:"host" validate:"required"`
		Port     string `mapstructure:"port" validate:"required"`
		User     string `mapstructure:"user" validate:"required"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name" validate:"required"`
	} `mapstructure:"database"`
	Redis struct {
		Host     string `mapstructure:"host" validate:"required"`
		Port     string `mapstructure:"port" validate:"required"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Server struct {
		Port string `mapstructure:"port" validate:"required"`
	} `mapstructure:"server"`
	JWT struct {
		SecretKey string `mapstructure:"secret_key" validate:"required,min=32"`
		Issuer    string `mapstructure:"issuer" validate:"required"`
		// Lifetimes are in seconds to match the wire-level expires_in field.
		AccessTTLSeconds  int `mapstructure:"access_ttl_seconds" validate:"required,min=60"`
		RefreshTTLSeconds int `mapstructure:"refresh_ttl_seconds" validate:"required,min=3600"`
	} `mapstructure:"jwt"`
	Auth struct {
		BcryptCost          int   `mapstructure:"bcrypt_cost" validate:"required,min=12,max=31"`
		MaxConcurrentHashes int64 `mapstructure:"max_concurrent_hashes" validate:"required,min=1"`
	} `mapstructure:"auth"`
}

var validate = validator.New()

// Load reads config.yml from path, applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.AutomaticEnv()

	v.SetDefault("jwt.issuer", "dating-api")
	v.SetDefault("jwt.access_ttl_seconds", 900)      // 15 minutes
	v.SetDefault("jwt.refresh_ttl_seconds", 1209600) // 14 days
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.max_concurrent_hashes", 8)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
