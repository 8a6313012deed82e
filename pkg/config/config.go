package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/AniTho/Generative-AI/tokenizer"
)

// EnvPrefix prefixes every environment override, e.g. BPETOK_TOKENIZER_MAX_NEW_TOKENS.
const EnvPrefix = "BPETOK"

// Config holds the configuration for the tokenizer CLI.
// Values are read by viper from a config file, environment variables or defaults.
type Config struct {
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Log       LogConfig       `mapstructure:"log"`
}

// TokenizerConfig configures BPE training.
type TokenizerConfig struct {
	MaxNewTokens int  `mapstructure:"max_new_tokens"`
	Workers      int  `mapstructure:"workers"`    // goroutines counting pairs per merge step
	StopEarly    bool `mapstructure:"stop_early"` // keep a partial vocabulary when the corpus runs out of pairs
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Tokenizer: TokenizerConfig{
			MaxNewTokens: tokenizer.DefaultMaxNewTokens,
			Workers:      1,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the file at path, or from bpetok.yaml in the
// working directory or $HOME/.bpetok when path is empty. A missing default
// file is not an error; a missing explicit file is. Callers apply their own
// overrides and then call Validate.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.bpetok")
		v.SetConfigName("bpetok")
		v.SetConfigType("yaml")
	}

	def := DefaultConfig()
	v.SetDefault("tokenizer.max_new_tokens", def.Tokenizer.MaxNewTokens)
	v.SetDefault("tokenizer.workers", def.Tokenizer.Workers)
	v.SetDefault("tokenizer.stop_early", def.Tokenizer.StopEarly)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.pretty", def.Log.Pretty)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	return &cfg, nil
}

// Validate rejects settings training cannot run with.
func (c *Config) Validate() error {
	if c.Tokenizer.MaxNewTokens <= 0 {
		return fmt.Errorf("%w: tokenizer.max_new_tokens must be greater than 0, got %d", tokenizer.ErrInvalidConfiguration, c.Tokenizer.MaxNewTokens)
	}
	if c.Tokenizer.Workers <= 0 {
		return fmt.Errorf("%w: tokenizer.workers must be greater than 0, got %d", tokenizer.ErrInvalidConfiguration, c.Tokenizer.Workers)
	}
	return nil
}
