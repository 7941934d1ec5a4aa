// Package config loads the linelens process configuration.
//
// Values are layered: defaults, then an optional TOML file, then the
// environment (including an optional .env file). Configuration is read once at
// startup and never mutated afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/papercomputeco/linelens/pkg/logger"
	"github.com/papercomputeco/linelens/pkg/vision"
)

const (
	DefaultPort = 3000

	// DefaultMaxImageBytes matches the largest image the platform accepts.
	DefaultMaxImageBytes = 10 << 20
)

// Config is the process configuration.
type Config struct {
	ChannelAccessToken string `toml:"channel_access_token"`
	ChannelSecret      string `toml:"channel_secret"`

	GeminiAPIKey  string `toml:"gemini_api_key"`
	GeminiModel   string `toml:"gemini_model"`
	GeminiBaseURL string `toml:"gemini_base_url"`

	ImageMIMEType string `toml:"image_mime_type"`
	MaxImageBytes int64  `toml:"max_image_bytes"`

	Port      int    `toml:"port"`
	Debug     bool   `toml:"debug"`
	LogFormat string `toml:"log_format"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		GeminiModel:   vision.DefaultModel,
		ImageMIMEType: vision.DefaultMIMEType,
		MaxImageBytes: DefaultMaxImageBytes,
		Port:          DefaultPort,
		LogFormat:     logger.FormatConsole,
	}
}

// Load builds the configuration. path is an optional TOML file; envFile is an
// optional dotenv file whose values never override variables already set.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("decoding config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.ChannelAccessToken, "CHANNEL_ACCESS_TOKEN")
	setString(&c.ChannelSecret, "CHANNEL_SECRET")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.GeminiModel, "GEMINI_MODEL")
	setString(&c.GeminiBaseURL, "GEMINI_BASE_URL")
	setString(&c.ImageMIMEType, "IMAGE_MIME_TYPE")
	setString(&c.LogFormat, "LOG_FORMAT")

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}

	if v := os.Getenv("MAX_IMAGE_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_IMAGE_BYTES %q: %w", v, err)
		}
		c.MaxImageBytes = n
	}

	if v := os.Getenv("DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG %q: %w", v, err)
		}
		c.Debug = debug
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate reports missing credentials or out of range values.
func (c Config) Validate() error {
	var errs []error
	if c.ChannelAccessToken == "" {
		errs = append(errs, errors.New("CHANNEL_ACCESS_TOKEN is required"))
	}
	if c.ChannelSecret == "" {
		errs = append(errs, errors.New("CHANNEL_SECRET is required"))
	}
	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	return errors.Join(errs...)
}

// ListenAddr is the address the HTTP server binds to.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
