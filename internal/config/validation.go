package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidEnvironment indicates an unknown environment value.
	ErrInvalidEnvironment = errors.New("invalid environment")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidMaxTurns indicates the agentic turn limit is out of range.
	ErrInvalidMaxTurns = errors.New("invalid max turns")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrMissingVerifyURL indicates the identity provider endpoint is not set.
	ErrMissingVerifyURL = errors.New("missing auth verify URL")

	// ErrInvalidVerifyURL indicates the identity provider endpoint is malformed.
	ErrInvalidVerifyURL = errors.New("invalid auth verify URL")

	// ErrBypassInProduction indicates the dev auth bypass was enabled
	// outside a development environment.
	ErrBypassInProduction = errors.New("auth dev bypass outside development")

	// ErrInvalidAudioBaseURL indicates the audio collaborator URL is malformed.
	ErrInvalidAudioBaseURL = errors.New("invalid audio base URL")
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		return fmt.Errorf("%w: %q (must be %q or %q)",
			ErrInvalidEnvironment, c.Environment, EnvDevelopment, EnvProduction)
	}

	validProviders := []string{ProviderGemini, ProviderOllama, ProviderOpenAI}
	if !slices.Contains(validProviders, c.Provider) {
		return fmt.Errorf("%w: %q is not one of %v", ErrInvalidProvider, c.Provider, validProviders)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	if c.MaxTurns < 1 || c.MaxTurns > 32 {
		return fmt.Errorf("%w: must be between 1 and 32, got %d", ErrInvalidMaxTurns, c.MaxTurns)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	// Modern SSL modes only; allow/prefer are MITM-vulnerable.
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	if c.PostgresPassword == "attune_dev_password" && !c.IsDev() {
		slog.Warn("using default development password for PostgreSQL",
			"hint", "change postgres_password for production deployments")
	}

	return c.validateAuth()
}

// validateAuth validates the identity gate configuration.
//
// The dev bypass is rejected outright in non-development environments
// rather than silently ignored: a misconfigured production deployment
// must fail at startup, not serve unauthenticated traffic.
func (c *Config) validateAuth() error {
	if c.Auth.DevBypass && !c.IsDev() {
		return fmt.Errorf("%w: auth.dev_bypass requires environment=%q",
			ErrBypassInProduction, EnvDevelopment)
	}

	if c.BypassActive() {
		// Bypass mode needs no identity provider.
		return nil
	}

	if c.Auth.VerifyURL == "" {
		return fmt.Errorf("%w: auth.verify_url is required when dev bypass is off",
			ErrMissingVerifyURL)
	}
	if u, err := url.Parse(c.Auth.VerifyURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidVerifyURL, c.Auth.VerifyURL)
	}

	if c.Audio.BaseURL != "" {
		if u, err := url.Parse(c.Audio.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidAudioBaseURL, c.Audio.BaseURL)
		}
	}

	return nil
}
