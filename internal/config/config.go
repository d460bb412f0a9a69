package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// BackendConfig holds the advisory backend connection settings.
type BackendConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	APIKey           string        `mapstructure:"api_key"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
	ChatTimeout      time.Duration `mapstructure:"chat_timeout"`
	RecommendTimeout time.Duration `mapstructure:"recommend_timeout"`
	SentimentTimeout time.Duration `mapstructure:"sentiment_timeout"`
	MaxBodyBytes     int64         `mapstructure:"max_body_bytes"`
}

// ServerConfig holds the HTTP serving settings.
type ServerConfig struct {
	ListenAddr  string   `mapstructure:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// ProfileConfig holds profile persistence settings.
type ProfileConfig struct {
	StoreDir string `mapstructure:"store_dir"`
}

// Config is the root configuration for the engine.
type Config struct {
	Backend          BackendConfig `mapstructure:"backend"`
	Server           ServerConfig  `mapstructure:"server"`
	Profile          ProfileConfig `mapstructure:"profile"`
	OptionsCacheSize int           `mapstructure:"options_cache_size"`
	LogLevel         string        `mapstructure:"log_level"`
}

// Load reads finsage-config.(yaml|json) from $HOME or the working directory,
// applies FINSAGE_* environment overrides, and falls back to defaults when no
// file exists.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("finsage-config")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FINSAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://localhost:8000/api")
	v.SetDefault("backend.fetch_timeout", 20*time.Second)
	v.SetDefault("backend.chat_timeout", 30*time.Second)
	v.SetDefault("backend.recommend_timeout", 45*time.Second)
	v.SetDefault("backend.sentiment_timeout", 10*time.Second)
	v.SetDefault("backend.max_body_bytes", int64(1<<20))
	v.SetDefault("server.listen_addr", ":8085")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("profile.store_dir", "")
	v.SetDefault("options_cache_size", 256)
	v.SetDefault("log_level", "info")
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return fmt.Errorf("backend.base_url must not be empty")
	}
	if c.Backend.FetchTimeout <= 0 || c.Backend.ChatTimeout <= 0 ||
		c.Backend.RecommendTimeout <= 0 || c.Backend.SentimentTimeout <= 0 {
		return fmt.Errorf("backend timeouts must be positive")
	}
	if c.OptionsCacheSize <= 0 {
		return fmt.Errorf("options_cache_size must be positive")
	}
	return nil
}
