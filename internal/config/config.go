package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm" validate:"required"`
	Storage   StorageConfig   `mapstructure:"storage" validate:"required"`
	TTS       TTSConfig       `mapstructure:"tts" validate:"required"`
	Review    ReviewConfig    `mapstructure:"review" validate:"required"`
	Queue     QueueConfig     `mapstructure:"queue" validate:"required"`
	Languages LanguagesConfig `mapstructure:"languages" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat       string        `mapstructure:"log_format" validate:"omitempty,oneof=json text"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrateOnStart  bool          `mapstructure:"migrate_on_start"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	Provider        string        `mapstructure:"provider" validate:"required,oneof=gemini openai"`
	GeminiAPIKey    string        `mapstructure:"gemini_api_key" validate:"required_if=Provider gemini"`
	OpenAIAPIKey    string        `mapstructure:"openai_api_key" validate:"required_if=Provider openai"`
	ModelName       string        `mapstructure:"model_name" validate:"required"`
	MaxRetries      int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelay      time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
	StoryMaxTokens  int           `mapstructure:"story_max_tokens" validate:"gt=0"`
	MarkupMaxTokens int           `mapstructure:"markup_max_tokens" validate:"gt=0"`
}

// StorageConfig locates the object store bucket holding prompts and audio.
type StorageConfig struct {
	// BucketURL is a gocloud.dev/blob URL such as file:///var/lib/memorai or mem://.
	BucketURL       string `mapstructure:"bucket_url" validate:"required"`
	StoryPromptKey  string `mapstructure:"story_prompt_key" validate:"required"`
	MarkupPromptKey string `mapstructure:"markup_prompt_key" validate:"required"`
	AudioPrefix     string `mapstructure:"audio_prefix" validate:"required"`
}

// TTSConfig contains the speech synthesis settings.
type TTSConfig struct {
	VoiceName       string        `mapstructure:"voice_name" validate:"required"`
	LanguageCode    string        `mapstructure:"language_code" validate:"required"`
	SampleRateHertz int32         `mapstructure:"sample_rate_hertz" validate:"gt=0"`
	CompletionTopic string        `mapstructure:"completion_topic" validate:"required"`
	MaxConcurrent   int           `mapstructure:"max_concurrent" validate:"gte=1"`
	TaskTimeout     time.Duration `mapstructure:"task_timeout" validate:"gt=0"`
}

// ReviewConfig contains review generation settings.
type ReviewConfig struct {
	LockTimeout       time.Duration `mapstructure:"lock_timeout" validate:"gt=0"`
	LockPurgeInterval time.Duration `mapstructure:"lock_purge_interval" validate:"gt=0"`
	MinChunkSize      int           `mapstructure:"min_chunk_size" validate:"gte=1"`
	MaxChunkSize      int           `mapstructure:"max_chunk_size" validate:"gtefield=MinChunkSize"`
	StoryCardLimit    int           `mapstructure:"story_card_limit" validate:"gte=1"`
}

// QueueConfig contains the background task runner settings.
type QueueConfig struct {
	WorkerCount           int           `mapstructure:"worker_count" validate:"gte=1"`
	CompletionWorkerCount int           `mapstructure:"completion_worker_count" validate:"gte=1"`
	Size                  int           `mapstructure:"size" validate:"gte=1"`
	VisibilityTimeout     time.Duration `mapstructure:"visibility_timeout" validate:"gt=0"`
	MaxReceiveCount       int           `mapstructure:"max_receive_count" validate:"gte=1"`
	RetryDelay            time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
}

// LanguagesConfig names the languages interpolated into the markup prompt.
type LanguagesConfig struct {
	InstructionalName string `mapstructure:"instructional_name" validate:"required"`
	InstructionalCode string `mapstructure:"instructional_code" validate:"required"`
	TargetName        string `mapstructure:"target_name" validate:"required"`
	TargetCode        string `mapstructure:"target_code" validate:"required"`
}
