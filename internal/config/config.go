package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	AssetDir string `toml:"asset_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Gemini contains connection settings for the Gemini REST API.
type Gemini struct {
	APIKey string `toml:"api_key"`
	// VideoAPIKey is the key selected for video generation. Falls back to APIKey.
	VideoAPIKey    string `toml:"video_api_key"`
	BaseURL        string `toml:"base_url"`
	Auth           string `toml:"auth"` // "api_key" or "adc"
	AnalysisModel  string `toml:"analysis_model"`
	ImageModel     string `toml:"image_model"`
	VideoModel     string `toml:"video_model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Analyzer selects the story analysis backend.
type Analyzer struct {
	Provider string `toml:"provider"` // "gemini" or "llm"
}

// LLM contains OpenAI-compatible connection settings used when analyzer.provider = "llm".
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Media contains generation parameters shared by the image and video strategies.
type Media struct {
	AspectRatio     string  `toml:"aspect_ratio"`
	VideoResolution string  `toml:"video_resolution"`
	SceneSeconds    int     `toml:"scene_seconds"`
	PollInterval    int     `toml:"poll_interval"`     // seconds
	PollTimeout     int     `toml:"poll_timeout"`      // seconds, 0 = unbounded
	PollBackoff     float64 `toml:"poll_backoff"`      // 1 = fixed interval
	PollMaxInterval int     `toml:"poll_max_interval"` // seconds
}

// Storage selects where generated media bytes are kept.
type Storage struct {
	Backend        string `toml:"backend"` // "inline", "file" or "minio"
	MinIOEndpoint  string `toml:"minio_endpoint"`
	MinIOAccessKey string `toml:"minio_access_key"`
	MinIOSecretKey string `toml:"minio_secret_key"`
	MinIOBucket    string `toml:"minio_bucket"`
	MinIOUseSSL    bool   `toml:"minio_use_ssl"`
	PresignHours   int    `toml:"presign_hours"`
}

// Notifications configures milestone notifications published to ntfy.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`      // full topic URL; empty disables notifications
	RequestTimeout int    `toml:"request_timeout"` // seconds
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for CineBoard.
//
// Configuration sections by subsystem:
//   - Paths: data, log and asset directories plus the API bind address
//   - Gemini: REST endpoint, credentials and model names
//   - Analyzer: which backend produces the scene breakdown
//   - LLM: OpenAI-compatible analyzer backend
//   - Media: aspect ratio, resolution, scene length and video polling
//   - Storage: asset sink backend and MinIO settings
//   - Notifications: ntfy topic for storyboard milestones
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Gemini   Gemini   `toml:"gemini"`
	Analyzer Analyzer `toml:"analyzer"`
	LLM      LLM      `toml:"llm"`
	Media    Media    `toml:"media"`
	Storage  Storage  `toml:"storage"`

	Notifications Notifications `toml:"notifications"`

	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cineboard/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file in the working directory or next to
// the config file is loaded first so credentials can be kept out of the TOML.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	loadDotEnv(resolvedPath)

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv never overrides variables already present in the environment.
func loadDotEnv(configPath string) {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			_ = godotenv.Load(candidate)
		}
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cineboard.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories, and the asset
// directory when the file storage backend is selected.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir}
	if c.Storage.Backend == StorageFile {
		dirs = append(dirs, c.Paths.AssetDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite session database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "cineboard.db")
}

// LockPath returns the writer lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "cineboard.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the OpenAI-compatible connection settings.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the analyzer's OpenAI-compatible connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}

// VideoKey returns the key used for video generation and downloads.
func (c *Config) VideoKey() string {
	if key := strings.TrimSpace(c.Gemini.VideoAPIKey); key != "" {
		return key
	}
	return strings.TrimSpace(c.Gemini.APIKey)
}
