// Package config loads icecorectl's configuration: which catalog to
// talk to, the warehouse location, and storage/logging knobs, from a
// YAML file plus environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// CatalogConfig names the catalog backend and how to reach it.
// Exactly one of REST or Glue applies, selected by Type.
type CatalogConfig struct {
	Type string `mapstructure:"type"` // "rest" or "glue"

	REST struct {
		URI       string `mapstructure:"uri"`
		Token     string `mapstructure:"token"`
		AuthType  string `mapstructure:"auth_type"`
		Warehouse string `mapstructure:"warehouse"`
	} `mapstructure:"rest"`

	Glue struct {
		Region    string `mapstructure:"region"`
		Profile   string `mapstructure:"profile"`
		RoleARN   string `mapstructure:"role_arn"`
		Warehouse string `mapstructure:"warehouse"`
	} `mapstructure:"glue"`
}

// StorageConfig carries the object-store properties icecore's iceio
// backends and the optional sign-request hook read at client
// construction (spec.md §5 "Credentials and endpoint overrides are
// sourced from a properties map").
type StorageConfig struct {
	S3Endpoint    string `mapstructure:"s3_endpoint"`
	S3Region      string `mapstructure:"s3_region"`
	S3PathStyle   bool   `mapstructure:"s3_path_style"`
	S3Signer      string `mapstructure:"s3_signer"` // "" or "tabular"
	SignerURI     string `mapstructure:"signer_uri"`
	SignerToken   string `mapstructure:"signer_token"`
}

// Config holds all configuration for icecorectl.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Storage StorageConfig `mapstructure:"storage"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`

	Scan struct {
		MaxWorkers int `mapstructure:"max_workers"`
	} `mapstructure:"scan"`
}

var (
	config *Config
	once   sync.Once
)

// Load initializes and loads the config exactly once per process.
func Load(configPath string) (*Config, error) {
	var err error
	once.Do(func() {
		err = loadConfig(configPath)
	})
	return config, err
}

// Get returns the current config, panics if config is not loaded.
func Get() *Config {
	if config == nil {
		panic("config is not loaded")
	}
	return config
}

func loadConfig(configPath string) error {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("icecorectl")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		fmt.Printf("No config file found, using defaults and environment variables\n")
	}

	v.SetEnvPrefix("ICECORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("catalog.type")
	v.BindEnv("catalog.rest.uri")
	v.BindEnv("catalog.rest.token")
	v.BindEnv("catalog.rest.auth_type")
	v.BindEnv("catalog.rest.warehouse")
	v.BindEnv("catalog.glue.region")
	v.BindEnv("catalog.glue.profile")
	v.BindEnv("catalog.glue.role_arn")
	v.BindEnv("catalog.glue.warehouse")

	v.BindEnv("storage.s3_endpoint")
	v.BindEnv("storage.s3_region")
	v.BindEnv("storage.s3_path_style")
	v.BindEnv("storage.s3_signer")
	v.BindEnv("storage.signer_uri")
	v.BindEnv("storage.signer_token")

	setDefaults(v)

	config = &Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return validate(config)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.type", "rest")
	v.SetDefault("catalog.rest.auth_type", "none")

	v.SetDefault("storage.s3_region", "us-east-1")
	v.SetDefault("storage.s3_path_style", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("scan.max_workers", 8)
}

func validate(cfg *Config) error {
	validTypes := map[string]bool{"rest": true, "glue": true}
	if !validTypes[strings.ToLower(cfg.Catalog.Type)] {
		return fmt.Errorf("invalid catalog.type: %s", cfg.Catalog.Type)
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	if cfg.Scan.MaxWorkers < 1 {
		return fmt.Errorf("invalid scan.max_workers: must be at least 1")
	}

	validSigners := map[string]bool{"": true, "tabular": true}
	if !validSigners[strings.ToLower(cfg.Storage.S3Signer)] {
		return fmt.Errorf("invalid storage.s3_signer: %s", cfg.Storage.S3Signer)
	}

	return nil
}
