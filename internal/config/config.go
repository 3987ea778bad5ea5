// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (ATTUNE_* and explicit secret bindings)
//  2. Config file (./config.yaml or ~/.attune/config.yaml)
//  3. Default values
//
// Validation happens in validation.go with sentinel errors so callers can
// use errors.Is for specific failures.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Environment identifiers used in Config.Environment.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// AuthConfig configures the identity gate.
//
// VerifyURL is the identity provider's token verification endpoint. The
// gate exchanges the caller's bearer token there and uses only the
// returned subject for authorization.
//
// DevBypass substitutes DevSubject for the verified subject. It is only
// honored when Environment == "development"; validation rejects it
// everywhere else so the bypass can never activate for external traffic.
type AuthConfig struct {
	VerifyURL  string `mapstructure:"verify_url" json:"verify_url"`
	DevBypass  bool   `mapstructure:"dev_bypass" json:"dev_bypass"`
	DevSubject string `mapstructure:"dev_subject" json:"dev_subject"`
}

// AudioConfig configures the internal audio-synthesis collaborator.
type AudioConfig struct {
	BaseURL   string `mapstructure:"base_url" json:"base_url"`
	VoiceName string `mapstructure:"voice_name" json:"voice_name"`
}

// WeatherConfig configures the external forecast API.
type WeatherConfig struct {
	BaseURL string `mapstructure:"base_url" json:"base_url"`
}

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON; update it when
// adding passwords, keys, or tokens.
type Config struct {
	Environment string `mapstructure:"environment" json:"environment"`

	// AI provider and model configuration
	Provider  string `mapstructure:"provider" json:"provider"`
	ModelName string `mapstructure:"model_name" json:"model_name"`
	MaxTurns  int    `mapstructure:"max_turns" json:"max_turns"`

	// Ollama configuration (only used when provider is "ollama")
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Storage
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Memory recall
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// HTTP serving
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"`
	RateLimit   float64  `mapstructure:"rate_limit" json:"rate_limit"`
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`

	// Collaborators
	Auth    AuthConfig    `mapstructure:"auth" json:"auth"`
	Audio   AudioConfig   `mapstructure:"audio" json:"audio"`
	Weather WeatherConfig `mapstructure:"weather" json:"weather"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(home, ".attune")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults plus env cover it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("environment", EnvDevelopment)

	// AI defaults
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("max_turns", 8)
	viper.SetDefault("ollama_host", "http://localhost:11434")
	viper.SetDefault("embedder_model", "gemini-embedding-001")

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "attune")
	viper.SetDefault("postgres_password", "attune_dev_password")
	viper.SetDefault("postgres_db_name", "attune")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// HTTP defaults
	viper.SetDefault("listen_addr", "127.0.0.1:3500")
	viper.SetDefault("cors_origins", []string{"http://localhost:3000"})
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("rate_limit", 10.0)
	viper.SetDefault("rate_burst", 60)

	// Collaborator defaults
	viper.SetDefault("audio.base_url", "http://localhost:3501")
	viper.SetDefault("audio.voice_name", "aura")
	viper.SetDefault("weather.base_url", "https://api.open-meteo.com")
	viper.SetDefault("auth.dev_bypass", false)
	viper.SetDefault("auth.dev_subject", "dev-user")
}

// bindEnvVariables binds environment variables explicitly.
// GEMINI_API_KEY and OPENAI_API_KEY are read directly by the Genkit
// provider plugins, not via viper; validation only checks presence.
func bindEnvVariables() {
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("environment", "ATTUNE_ENV")
	mustBind("provider", "ATTUNE_PROVIDER")
	mustBind("model_name", "ATTUNE_MODEL_NAME")
	mustBind("ollama_host", "ATTUNE_OLLAMA_HOST")
	mustBind("listen_addr", "ATTUNE_LISTEN_ADDR")
	mustBind("cors_origins", "ATTUNE_CORS_ORIGINS")
	mustBind("trust_proxy", "ATTUNE_TRUST_PROXY")
	mustBind("postgres_password", "ATTUNE_POSTGRES_PASSWORD")
	mustBind("auth.verify_url", "ATTUNE_AUTH_VERIFY_URL")
	mustBind("auth.dev_bypass", "ATTUNE_AUTH_DEV_BYPASS")
	mustBind("audio.base_url", "ATTUNE_AUDIO_BASE_URL")
}

// IsDev reports whether the configuration targets a development environment.
func (c *Config) IsDev() bool {
	return c.Environment == EnvDevelopment
}

// BypassActive reports whether the development auth bypass may be used.
// The bypass requires both the flag and a development environment;
// production configurations can never activate it.
func (c *Config) BypassActive() bool {
	return c.Auth.DevBypass && c.IsDev()
}

// PostgresURL returns the connection string in URL form, suitable for
// both pgxpool and golang-migrate.
func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:   c.PostgresDBName,
	}
	q := url.Values{}
	q.Set("sslmode", c.PostgresSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
