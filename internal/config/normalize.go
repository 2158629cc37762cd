package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGemini()
	c.normalizeAnalyzer()
	c.normalizeLLM()
	c.normalizeMedia()
	c.normalizeStorage()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AssetDir) == "" {
		c.Paths.AssetDir = defaultAssetDir
	}
	if c.Paths.AssetDir, err = expandPath(c.Paths.AssetDir); err != nil {
		return fmt.Errorf("paths.asset_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeGemini() {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = firstEnv("GEMINI_API_KEY", "API_KEY")
	}
	c.Gemini.VideoAPIKey = strings.TrimSpace(c.Gemini.VideoAPIKey)
	if c.Gemini.VideoAPIKey == "" {
		c.Gemini.VideoAPIKey = firstEnv("GEMINI_VIDEO_API_KEY")
	}
	c.Gemini.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gemini.BaseURL), "/")
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = defaultGeminiBaseURL
	}
	c.Gemini.Auth = strings.ToLower(strings.TrimSpace(c.Gemini.Auth))
	if c.Gemini.Auth == "" {
		c.Gemini.Auth = AuthAPIKey
	}
	c.Gemini.AnalysisModel = defaultString(c.Gemini.AnalysisModel, defaultAnalysisModel)
	c.Gemini.ImageModel = defaultString(c.Gemini.ImageModel, defaultImageModel)
	c.Gemini.VideoModel = defaultString(c.Gemini.VideoModel, defaultVideoModel)
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = defaultGeminiTimeout
	}
}

func (c *Config) normalizeAnalyzer() {
	c.Analyzer.Provider = strings.ToLower(strings.TrimSpace(c.Analyzer.Provider))
	if c.Analyzer.Provider == "" {
		c.Analyzer.Provider = ProviderGemini
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = defaultString(c.LLM.BaseURL, defaultLLMBaseURL)
	c.LLM.Model = defaultString(c.LLM.Model, defaultLLMModel)
	c.LLM.Referer = defaultString(c.LLM.Referer, defaultLLMReferer)
	c.LLM.Title = defaultString(c.LLM.Title, defaultLLMTitle)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeout
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = firstEnv("OPENAI_API_KEY", "OPENROUTER_API_KEY")
	}
}

func (c *Config) normalizeMedia() {
	c.Media.AspectRatio = defaultString(c.Media.AspectRatio, defaultAspectRatio)
	c.Media.VideoResolution = defaultString(c.Media.VideoResolution, defaultVideoResolution)
	if c.Media.SceneSeconds <= 0 {
		c.Media.SceneSeconds = defaultSceneSeconds
	}
	if c.Media.PollInterval <= 0 {
		c.Media.PollInterval = defaultPollInterval
	}
	if c.Media.PollTimeout < 0 {
		c.Media.PollTimeout = 0
	}
	if c.Media.PollBackoff == 0 {
		c.Media.PollBackoff = 1
	}
	if c.Media.PollMaxInterval <= 0 {
		c.Media.PollMaxInterval = defaultPollMaxInterval
	}
}

func (c *Config) normalizeStorage() {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageInline
	}
	c.Storage.MinIOEndpoint = strings.TrimSpace(c.Storage.MinIOEndpoint)
	c.Storage.MinIOBucket = defaultString(c.Storage.MinIOBucket, defaultMinIOBucket)
	if c.Storage.MinIOAccessKey == "" {
		c.Storage.MinIOAccessKey = firstEnv("MINIO_ACCESS_KEY")
	}
	if c.Storage.MinIOSecretKey == "" {
		c.Storage.MinIOSecretKey = firstEnv("MINIO_SECRET_KEY")
	}
	if c.Storage.PresignHours <= 0 {
		c.Storage.PresignHours = defaultPresignHours
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func defaultString(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
