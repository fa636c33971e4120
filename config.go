package nutricoach

import "time"

type ModelConfig struct {
	// Provider selects the text generator: bedrock, ollama, mock or none.
	Provider     string  `env:"MODEL_PROVIDER,default=none"`
	ModelID      string  `env:"MODEL_ID"`
	MaxTokens    int32   `env:"MAX_TOKENS,default=512"`
	Temperature  float32 `env:"TEMPERATURE,default=0.7"`
	TopP         float32 `env:"TOP_P,default=0.9"`
	OllamaURL    string  `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
	SystemPrompt string  `env:"MODEL_SYSTEM_PROMPT"`
}

type AppConfig struct {
	Address string `env:"ADDRESS,default=:8080"`
	GinMode string `env:"GIN_MODE,default=release"`
	// AllowedOrigins is semicolon separated.
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:3000"`
	StaticDir      string        `env:"STATIC_DIR"`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE,default=15s"`
}

type StoreConfig struct {
	DatabaseURL string `env:"DATABASE_URL,default=sqlite:health_app.db"`
	LogSQL      bool   `env:"LOG_SQL,default=false"`
	RedisAddr   string `env:"REDIS_ADDR"`
	RedisPass   string `env:"REDIS_PASSWORD"`
	RedisDB     int    `env:"REDIS_DB,default=0"`
}

type FeedbackConfig struct {
	Timeout        time.Duration `env:"FEEDBACK_TIMEOUT,default=30s"`
	LockTTL        time.Duration `env:"FEEDBACK_LOCK_TTL,default=45s"`
	GuidancePath   string        `env:"GUIDANCE_PATH"`
	GuidanceBucket string        `env:"GUIDANCE_S3_BUCKET"`
	GuidanceKey    string        `env:"GUIDANCE_S3_KEY"`
	// LogPath receives one JSON line per generation attempt; "-" means stdout.
	LogPath string `env:"FEEDBACK_LOG_PATH"`
}

type SlackConfig struct {
	WebhookURL string `env:"SLACK_WEBHOOK_URL"`
	Channel    string `env:"SLACK_CHANNEL,default=#nutrition"`
}

// Config groups every section decoded from the environment.
type Config struct {
	Model    ModelConfig
	App      AppConfig
	Store    StoreConfig
	Feedback FeedbackConfig
	Slack    SlackConfig
}
