package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/snarg/autoscribe/internal/transcribe"
)

type Config struct {
	InputDir  string `env:"INPUT_DIR" envDefault:"./input"`
	OutputDir string `env:"OUTPUT_DIR" envDefault:"./output"`
	AudioExt  string `env:"AUDIO_EXT" envDefault:".m4a"`

	Model    string `env:"MODEL" envDefault:"base"`
	Language string `env:"LANGUAGE" envDefault:"ja"`

	Provider       string        `env:"PROVIDER" envDefault:"local"`
	ModelDir       string        `env:"MODEL_DIR" envDefault:"./models"`
	WhisperBin     string        `env:"WHISPER_BIN" envDefault:"whisper-cli"`
	WhisperURL     string        `env:"WHISPER_URL"`
	WhisperTimeout time.Duration `env:"WHISPER_TIMEOUT" envDefault:"5m"`

	MaxSegment time.Duration `env:"MAX_SEGMENT" envDefault:"10m"`

	ReadyStableSamples int           `env:"READY_STABLE_SAMPLES" envDefault:"3"`
	ReadyPollInterval  time.Duration `env:"READY_POLL_INTERVAL" envDefault:"500ms"`
	ReadyMaxWait       time.Duration `env:"READY_MAX_WAIT" envDefault:"30s"`
	ReadyInitialDelay  time.Duration `env:"READY_INITIAL_DELAY" envDefault:"2s"`

	HTTPAddr     string        `env:"HTTP_ADDR"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`

	MQTTBrokerURL string `env:"MQTT_BROKER_URL"`
	MQTTClientID  string `env:"MQTT_CLIENT_ID" envDefault:"autoscribe"`
	MQTTTopic     string `env:"MQTT_TOPIC" envDefault:"autoscribe/transcripts"`
	MQTTUsername  string `env:"MQTT_USERNAME"`
	MQTTPassword  string `env:"MQTT_PASSWORD"`

	S3 S3Config `envPrefix:"S3_"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// S3Config configures optional off-box transcript archival.
// Archival is enabled when Bucket is non-empty.
type S3Config struct {
	Endpoint  string `env:"ENDPOINT"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
	Bucket    string `env:"BUCKET"`
	Prefix    string `env:"PREFIX" envDefault:"transcripts"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile   string
	InputDir  string
	OutputDir string
	Model     string
	Language  string
	HTTPAddr  string
	LogLevel  string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	// Parse environment variables into config struct
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.InputDir != "" {
		cfg.InputDir = overrides.InputDir
	}
	if overrides.OutputDir != "" {
		cfg.OutputDir = overrides.OutputDir
	}
	if overrides.Model != "" {
		cfg.Model = overrides.Model
	}
	if overrides.Language != "" {
		cfg.Language = overrides.Language
	}
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !transcribe.ValidModelSize(c.Model) {
		return fmt.Errorf("MODEL %q: want one of %s", c.Model, strings.Join(transcribe.ModelSizes, ", "))
	}
	switch c.Provider {
	case "local":
	case "http":
		if c.WhisperURL == "" {
			return fmt.Errorf("PROVIDER=http requires WHISPER_URL")
		}
	default:
		return fmt.Errorf("PROVIDER %q: want local or http", c.Provider)
	}
	if c.MaxSegment <= 0 {
		return fmt.Errorf("MAX_SEGMENT must be positive, got %s", c.MaxSegment)
	}
	if c.ReadyStableSamples < 1 {
		return fmt.Errorf("READY_STABLE_SAMPLES must be at least 1, got %d", c.ReadyStableSamples)
	}

	// Normalize the extension filter to ".ext" lowercase.
	ext := strings.ToLower(strings.TrimSpace(c.AudioExt))
	if ext == "" {
		return fmt.Errorf("AUDIO_EXT must not be empty")
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.AudioExt = ext

	return nil
}
