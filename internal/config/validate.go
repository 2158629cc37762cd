package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Credentials are not required
// here so that read-only commands (show, status, export) work without them;
// RequireCredentials checks those before generation starts.
func (c *Config) Validate() error {
	if err := c.validateGemini(); err != nil {
		return err
	}
	if err := c.validateAnalyzer(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGemini() error {
	switch c.Gemini.Auth {
	case AuthAPIKey, AuthADC:
	default:
		return fmt.Errorf("gemini.auth must be %q or %q, got %q", AuthAPIKey, AuthADC, c.Gemini.Auth)
	}
	return nil
}

func (c *Config) validateAnalyzer() error {
	switch c.Analyzer.Provider {
	case ProviderGemini, ProviderLLM:
	default:
		return fmt.Errorf("analyzer.provider must be %q or %q, got %q", ProviderGemini, ProviderLLM, c.Analyzer.Provider)
	}
	return nil
}

func (c *Config) validateMedia() error {
	if !strings.Contains(c.Media.AspectRatio, ":") {
		return fmt.Errorf("media.aspect_ratio must look like W:H, got %q", c.Media.AspectRatio)
	}
	if c.Media.PollBackoff < 1 {
		return errors.New("media.poll_backoff must be at least 1")
	}
	if c.Media.PollMaxInterval < c.Media.PollInterval {
		return errors.New("media.poll_max_interval must be greater than or equal to media.poll_interval")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageInline, StorageFile:
	case StorageMinIO:
		if c.Storage.MinIOEndpoint == "" {
			return errors.New("storage.minio_endpoint must be set when storage.backend is \"minio\"")
		}
		if strings.TrimSpace(c.Storage.MinIOAccessKey) == "" || strings.TrimSpace(c.Storage.MinIOSecretKey) == "" {
			return errors.New("storage.minio_access_key and storage.minio_secret_key must be set when storage.backend is \"minio\"")
		}
	default:
		return fmt.Errorf("storage.backend must be inline, file or minio, got %q", c.Storage.Backend)
	}
	return nil
}

// RequireCredentials reports a configuration error when the selected backends
// have no credentials.
func (c *Config) RequireCredentials() error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/cineboard/config.toml"
	}
	if c.Gemini.Auth == AuthAPIKey && c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini.api_key is required. Set GEMINI_API_KEY env var or edit %s (create with 'cineboard config init')", defaultPath)
	}
	if c.Analyzer.Provider == ProviderLLM && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required when analyzer.provider is \"llm\". Set OPENAI_API_KEY or OPENROUTER_API_KEY, or edit %s", defaultPath)
	}
	return nil
}
