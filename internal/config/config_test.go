package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cineboard/internal/config"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "API_KEY", "GEMINI_VIDEO_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "cineboard")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Gemini.APIKey != "test-key" {
		t.Fatalf("expected Gemini key from env, got %q", cfg.Gemini.APIKey)
	}
	if cfg.VideoKey() != "test-key" {
		t.Fatalf("expected video key to fall back to api key, got %q", cfg.VideoKey())
	}
	if cfg.Gemini.ImageModel != "gemini-2.5-flash-image" {
		t.Fatalf("unexpected image model default: %q", cfg.Gemini.ImageModel)
	}
	if cfg.Media.PollInterval != 5 || cfg.Media.PollTimeout != 0 || cfg.Media.PollBackoff != 1 {
		t.Fatalf("unexpected poll defaults: %+v", cfg.Media)
	}
	if cfg.Media.SceneSeconds != 10 {
		t.Fatalf("unexpected scene seconds: %d", cfg.Media.SceneSeconds)
	}
	if cfg.Storage.Backend != config.StorageInline {
		t.Fatalf("expected inline storage default, got %q", cfg.Storage.Backend)
	}
	if cfg.Notifications.NtfyTopic != "" || cfg.Notifications.RequestTimeout != 10 {
		t.Fatalf("unexpected notification defaults: %+v", cfg.Notifications)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "cineboard.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	clearCredentialEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
data_dir = "~/boards"

[gemini]
api_key = "file-key"
video_api_key = "paid-key"
video_model = "veo-custom"

[analyzer]
provider = "LLM"

[llm]
api_key = "llm-key"

[media]
poll_interval = 2
poll_timeout = 600
poll_backoff = 1.5
poll_max_interval = 20

[notifications]
ntfy_topic = "  https://ntfy.example/boards  "
request_timeout = 0

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q (exists=%v)", resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "boards") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.VideoKey() != "paid-key" {
		t.Fatalf("expected dedicated video key, got %q", cfg.VideoKey())
	}
	if cfg.Gemini.VideoModel != "veo-custom" {
		t.Fatalf("unexpected video model: %q", cfg.Gemini.VideoModel)
	}
	if cfg.Analyzer.Provider != config.ProviderLLM {
		t.Fatalf("expected provider to be lowercased, got %q", cfg.Analyzer.Provider)
	}
	if cfg.Media.PollTimeout != 600 || cfg.Media.PollBackoff != 1.5 {
		t.Fatalf("unexpected media settings: %+v", cfg.Media)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging settings: %+v", cfg.Logging)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/boards" || cfg.Notifications.RequestTimeout != 10 {
		t.Fatalf("unexpected notification settings: %+v", cfg.Notifications)
	}
	if err := cfg.RequireCredentials(); err != nil {
		t.Fatalf("expected credentials to be satisfied: %v", err)
	}
}

func TestLoadReadsDotEnvNextToConfig(t *testing.T) {
	clearCredentialEnv(t)
	os.Unsetenv("GEMINI_API_KEY")
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[logging]\nlevel = \"info\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Gemini.APIKey != "from-dotenv" {
		t.Fatalf("expected key from .env, got %q", cfg.Gemini.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"auth", func(c *config.Config) { c.Gemini.Auth = "password" }, "gemini.auth"},
		{"provider", func(c *config.Config) { c.Analyzer.Provider = "magic" }, "analyzer.provider"},
		{"backoff", func(c *config.Config) { c.Media.PollBackoff = 0.5 }, "media.poll_backoff"},
		{"max interval", func(c *config.Config) { c.Media.PollMaxInterval = 1 }, "media.poll_max_interval"},
		{"aspect", func(c *config.Config) { c.Media.AspectRatio = "wide" }, "media.aspect_ratio"},
		{"backend", func(c *config.Config) { c.Storage.Backend = "s3" }, "storage.backend"},
		{"minio endpoint", func(c *config.Config) { c.Storage.Backend = config.StorageMinIO }, "storage.minio_endpoint"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestRequireCredentialsWithoutKey(t *testing.T) {
	cfg := config.Default()
	if err := cfg.RequireCredentials(); err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
	cfg.Gemini.Auth = config.AuthADC
	if err := cfg.RequireCredentials(); err != nil {
		t.Fatalf("adc auth should not need an api key: %v", err)
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if decoded.Media.PollInterval != 5 {
		t.Fatalf("unexpected sample poll interval: %d", decoded.Media.PollInterval)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestEnsureDirectoriesCreatesAssetDirForFileBackend(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.AssetDir = filepath.Join(base, "assets")
	cfg.Storage.Backend = config.StorageFile

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.AssetDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
