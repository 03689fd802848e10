package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"rkd-client/pkg/cache"
	"rkd-client/pkg/rkd"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWSDLEndpoint       = "https://api.rkd.reuters.com/api"
	DefaultNamespacesEndpoint = "http://www.reuters.com/ns/2006/05/01"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Service struct {
		WSDLEndpoint       string        `yaml:"wsdl_endpoint"`
		NamespacesEndpoint string        `yaml:"namespaces_endpoint"`
		Timeout            time.Duration `yaml:"timeout"`
		RequestsPerSecond  float64       `yaml:"requests_per_second"`
		Burst              int           `yaml:"burst"`
	} `yaml:"service"`
	Credentials struct {
		Username      string `yaml:"username"`
		Password      string `yaml:"password"`
		ApplicationID string `yaml:"app_id"`
	} `yaml:"credentials"`
	Redis struct {
		Enabled     bool   `yaml:"enabled"`
		Host        string `yaml:"host"`
		Port        int    `yaml:"port"`
		Password    string `yaml:"password"`
		DB          int    `yaml:"db"`
		TLSEnabled  bool   `yaml:"tls_enabled"`
		TLSCertFile string `yaml:"tls_cert_file"`
		TLSKeyFile  string `yaml:"tls_key_file"`
	} `yaml:"redis"`
	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// LoadConfig reads the YAML file at path, applies environment overrides and
// defaults, and validates the result. A missing file is not an error when
// the environment supplies everything required.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Override with environment variables if set
func (cfg *Config) applyEnv() error {
	if v := os.Getenv("RKD_USERNAME"); v != "" {
		cfg.Credentials.Username = v
	}
	if v := os.Getenv("RKD_PASSWORD"); v != "" {
		cfg.Credentials.Password = v
	}
	if v := os.Getenv("RKD_APP_ID"); v != "" {
		cfg.Credentials.ApplicationID = v
	}
	if v := os.Getenv("RKD_WSDL_ENDPOINT"); v != "" {
		cfg.Service.WSDLEndpoint = v
	}
	if v := os.Getenv("RKD_NAMESPACES_ENDPOINT"); v != "" {
		cfg.Service.NamespacesEndpoint = v
	}
	if v := os.Getenv("RKD_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RKD_TIMEOUT value: %w", err)
		}
		cfg.Service.Timeout = d
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT value: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		cfg.Redis.Host = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_PORT value: %w", err)
		}
		cfg.Redis.Port = port
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB value: %w", err)
		}
		cfg.Redis.DB = db
	}
	if v := os.Getenv("REDIS_TLS_ENABLED"); v != "" {
		cfg.Redis.TLSEnabled = v == "true"
	}
	if v := os.Getenv("REDIS_TLS_CERT_FILE"); v != "" {
		cfg.Redis.TLSCertFile = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Set default values
func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Service.WSDLEndpoint == "" {
		cfg.Service.WSDLEndpoint = DefaultWSDLEndpoint
	}
	if cfg.Service.NamespacesEndpoint == "" {
		cfg.Service.NamespacesEndpoint = DefaultNamespacesEndpoint
	}
	if cfg.Service.Timeout == 0 {
		cfg.Service.Timeout = rkd.DefaultTimeout
	}
	if cfg.Service.Burst == 0 {
		cfg.Service.Burst = 5
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "INFO"
	}
}

// Validate checks required values and ranges.
func (cfg *Config) Validate() error {
	if cfg.Credentials.Username == "" {
		return fmt.Errorf("RKD_USERNAME is required")
	}
	if cfg.Credentials.Password == "" {
		return fmt.Errorf("RKD_PASSWORD is required")
	}
	if cfg.Credentials.ApplicationID == "" {
		return fmt.Errorf("RKD_APP_ID is required")
	}
	if _, err := url.ParseRequestURI(cfg.Service.WSDLEndpoint); err != nil {
		return fmt.Errorf("invalid wsdl_endpoint: %w", err)
	}
	if _, err := url.ParseRequestURI(cfg.Service.NamespacesEndpoint); err != nil {
		return fmt.Errorf("invalid namespaces_endpoint: %w", err)
	}
	if cfg.Service.Timeout < 0 {
		return fmt.Errorf("service timeout must not be negative")
	}
	if cfg.Service.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Redis.Enabled {
		if err := cfg.RedisConfig().Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Endpoints returns the service locations for the core builder.
func (cfg *Config) Endpoints() rkd.Endpoints {
	return rkd.Endpoints{
		WSDL:       cfg.Service.WSDLEndpoint,
		Namespaces: cfg.Service.NamespacesEndpoint,
	}
}

// RKDCredentials returns the configured RKD credentials.
func (cfg *Config) RKDCredentials() rkd.Credentials {
	return rkd.Credentials{
		Username:      cfg.Credentials.Username,
		Password:      cfg.Credentials.Password,
		ApplicationID: cfg.Credentials.ApplicationID,
	}
}

// RedisConfig returns the Redis connection settings.
func (cfg *Config) RedisConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		TLSEnabled:  cfg.Redis.TLSEnabled,
		TLSCertFile: cfg.Redis.TLSCertFile,
		TLSKeyFile:  cfg.Redis.TLSKeyFile,
	}
}
