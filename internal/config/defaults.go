package config

const (
	defaultDataDir         = "~/.local/share/cineboard"
	defaultLogDir          = "~/.local/share/cineboard/logs"
	defaultAssetDir        = "~/.local/share/cineboard/assets"
	defaultAPIBind         = "127.0.0.1:7490"
	defaultGeminiBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	defaultAnalysisModel   = "gemini-3-pro-preview"
	defaultImageModel      = "gemini-2.5-flash-image"
	defaultVideoModel      = "veo-3.1-fast-generate-preview"
	defaultGeminiTimeout   = 120
	defaultLLMBaseURL      = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel        = "google/gemini-3-flash-preview"
	defaultLLMReferer      = "https://github.com/cineboard/cineboard"
	defaultLLMTitle        = "CineBoard Story Analyzer"
	defaultLLMTimeout      = 60
	defaultAspectRatio     = "16:9"
	defaultVideoResolution = "720p"
	defaultSceneSeconds    = 10
	defaultPollInterval    = 5
	defaultPollMaxInterval = 30
	defaultMinIOBucket     = "cineboard"
	defaultPresignHours    = 24
	defaultNtfyTimeout     = 10
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Auth modes for the Gemini client.
const (
	AuthAPIKey = "api_key"
	AuthADC    = "adc"
)

// Analyzer providers.
const (
	ProviderGemini = "gemini"
	ProviderLLM    = "llm"
)

// Storage backends.
const (
	StorageInline = "inline"
	StorageFile   = "file"
	StorageMinIO  = "minio"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			AssetDir: defaultAssetDir,
			APIBind:  defaultAPIBind,
		},
		Gemini: Gemini{
			BaseURL:        defaultGeminiBaseURL,
			Auth:           AuthAPIKey,
			AnalysisModel:  defaultAnalysisModel,
			ImageModel:     defaultImageModel,
			VideoModel:     defaultVideoModel,
			TimeoutSeconds: defaultGeminiTimeout,
		},
		Analyzer: Analyzer{
			Provider: ProviderGemini,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Media: Media{
			AspectRatio:     defaultAspectRatio,
			VideoResolution: defaultVideoResolution,
			SceneSeconds:    defaultSceneSeconds,
			PollInterval:    defaultPollInterval,
			PollBackoff:     1,
			PollMaxInterval: defaultPollMaxInterval,
		},
		Storage: Storage{
			Backend:      StorageInline,
			MinIOBucket:  defaultMinIOBucket,
			MinIOUseSSL:  true,
			PresignHours: defaultPresignHours,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
