// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the collector. It is constructed once
// at process start and passed by parameter into every component; no package
// carries ambient globals.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// GithubToken is the personal access token. GithubTokenFile, when set,
	// is read at load time and takes precedence.
	GithubToken     string `mapstructure:"GITHUB_TOKEN"`
	GithubTokenFile string `mapstructure:"GITHUB_TOKEN_FILE"`

	// DataDir holds the numbered dataset shards. CheckpointFile is the
	// append-only log of processed logins; UserListFile is the candidate
	// list consumed by incremental builds.
	DataDir        string `mapstructure:"DATA_DIR"`
	CheckpointFile string `mapstructure:"CHECKPOINT_FILE"`
	UserListFile   string `mapstructure:"USER_LIST_FILE"`

	// DBURL enables the optional Postgres sink when non-empty.
	DBURL string `mapstructure:"DB_URL"`

	HTTPAddr string `mapstructure:"HTTP_ADDR"`

	SeedUserCount int `mapstructure:"SEED_USER_COUNT"`
	MaxUsers      int `mapstructure:"MAX_USERS"`
	BatchSize     int `mapstructure:"BATCH_SIZE"`
	MaxShards     int `mapstructure:"MAX_SHARDS"`

	// Per-endpoint item caps. Pagination for pathologically large accounts
	// is cut off between pages once the cap is exceeded.
	RepoCap     int `mapstructure:"REPO_CAP"`
	FollowerCap int `mapstructure:"FOLLOWER_CAP"`
	StarredCap  int `mapstructure:"STARRED_CAP"`

	PageSize        int `mapstructure:"PAGE_SIZE"`
	StarredPageSize int `mapstructure:"STARRED_PAGE_SIZE"`

	// RequestsPerSecond drives the proactive half of the rate limiter;
	// RateLimitBuffer is the remaining-request floor below which the
	// collector waits for the quota window to reset.
	RequestsPerSecond float64 `mapstructure:"REQUESTS_PER_SECOND"`
	RateLimitBuffer   int     `mapstructure:"RATE_LIMIT_BUFFER"`

	// IncludeStarred also harvests each user's starred repositories during
	// bulk collection.
	IncludeStarred bool `mapstructure:"INCLUDE_STARRED"`
}

// LoadConfig reads configuration from a .env file and/or environment
// variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATA_DIR", "datasets")
	viper.SetDefault("CHECKPOINT_FILE", "processed_users.txt")
	viper.SetDefault("USER_LIST_FILE", "user_list.txt")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("SEED_USER_COUNT", 100)
	viper.SetDefault("MAX_USERS", 3000)
	viper.SetDefault("BATCH_SIZE", 1000)
	viper.SetDefault("MAX_SHARDS", 80)
	viper.SetDefault("REPO_CAP", 2000)
	viper.SetDefault("FOLLOWER_CAP", 2000)
	viper.SetDefault("STARRED_CAP", 1900)
	viper.SetDefault("PAGE_SIZE", 100)
	viper.SetDefault("STARRED_PAGE_SIZE", 500)
	viper.SetDefault("REQUESTS_PER_SECOND", 1.2)
	viper.SetDefault("RATE_LIMIT_BUFFER", 100)
	viper.SetDefault("INCLUDE_STARRED", false)

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so keys
	// without a default must be bound explicitly or Unmarshal never sees
	// their environment values.
	for _, key := range []string{"GITHUB_TOKEN", "GITHUB_TOKEN_FILE", "DB_URL"} {
		if err := viper.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GithubTokenFile != "" {
		token, err := os.ReadFile(cfg.GithubTokenFile)
		if err != nil {
			return nil, fmt.Errorf("reading GITHUB_TOKEN_FILE: %w", err)
		}
		cfg.GithubToken = strings.TrimSpace(string(token))
	}

	if cfg.GithubToken == "" {
		return nil, errors.New("GITHUB_TOKEN (or GITHUB_TOKEN_FILE) is a required configuration field")
	}
	if cfg.BatchSize <= 0 {
		return nil, errors.New("BATCH_SIZE must be positive")
	}
	if cfg.MaxShards <= 0 {
		return nil, errors.New("MAX_SHARDS must be positive")
	}
	if cfg.PageSize <= 0 || cfg.StarredPageSize <= 0 {
		return nil, errors.New("page sizes must be positive")
	}
	if cfg.RequestsPerSecond <= 0 {
		return nil, errors.New("REQUESTS_PER_SECOND must be positive")
	}

	return &cfg, nil
}
