package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. MEMORAI_DATABASE_URL for database.url.
const EnvPrefix = "MEMORAI"

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"port":         "server.port",
	"log-level":    "server.log_level",
	"database-url": "database.url",
	"migrate":      "database.migrate_on_start",
}

// RegisterFlags adds the command line flags understood by Load to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a configuration file (yaml, json or toml)")
	fs.String("env-file", ".env", "path to a dotenv file loaded before reading the environment")
	fs.Int("port", 8080, "HTTP listen port")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.Bool("migrate", true, "apply database migrations on start")
}

// Load configuration from defaults, an optional config file, a dotenv file,
// environment variables and command line flags, in increasing precedence.
// fs may be nil. Returns a populated Config struct or an error if
// loading/validation fails.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	configFile := ""
	envFile := ".env"
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
		if f := fs.Lookup("env-file"); f != nil {
			envFile = f.Value.String()
		}
	}

	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				// Only explicitly set flags override lower layers
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct validation tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrate_on_start", true)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.openai_api_key", "")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", 2*time.Second)
	v.SetDefault("llm.story_max_tokens", 100)
	v.SetDefault("llm.markup_max_tokens", 1000)

	v.SetDefault("storage.bucket_url", "file:///var/lib/memorai")
	v.SetDefault("storage.story_prompt_key", "prompts/prompt-story.md")
	v.SetDefault("storage.markup_prompt_key", "prompts/prompt-ssml.md")
	v.SetDefault("storage.audio_prefix", "audio")

	v.SetDefault("tts.voice_name", "de-DE-Neural2-F")
	v.SetDefault("tts.language_code", "de-DE")
	v.SetDefault("tts.sample_rate_hertz", 24000)
	v.SetDefault("tts.completion_topic", "review-audio-completed")
	v.SetDefault("tts.max_concurrent", 4)
	v.SetDefault("tts.task_timeout", 2*time.Minute)

	v.SetDefault("review.lock_timeout", 180*time.Second)
	v.SetDefault("review.lock_purge_interval", time.Minute)
	v.SetDefault("review.min_chunk_size", 5)
	v.SetDefault("review.max_chunk_size", 7)
	v.SetDefault("review.story_card_limit", 4)

	v.SetDefault("queue.worker_count", 2)
	v.SetDefault("queue.completion_worker_count", 1)
	v.SetDefault("queue.size", 100)
	v.SetDefault("queue.visibility_timeout", 300*time.Second)
	v.SetDefault("queue.max_receive_count", 3)
	v.SetDefault("queue.retry_delay", 30*time.Second)

	v.SetDefault("languages.instructional_name", "English")
	v.SetDefault("languages.instructional_code", "en")
	v.SetDefault("languages.target_name", "German")
	v.SetDefault("languages.target_code", "de")
}
