// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel               string        `mapstructure:"LOG_LEVEL"`
	HTTPAddr               string        `mapstructure:"HTTP_ADDR"`
	DBURL                  string        `mapstructure:"DB_URL"`
	GithubToken            string        `mapstructure:"GITHUB_TOKEN"`
	GithubOrg              string        `mapstructure:"GITHUB_ORG"`
	GithubAPIURL           string        `mapstructure:"GITHUB_API_URL"`
	ContributorConcurrency int           `mapstructure:"CONTRIBUTOR_CONCURRENCY"`
	TwitterBearerToken     string        `mapstructure:"TWITTER_BEARER_TOKEN"`
	TwitterUserID          string        `mapstructure:"TWITTER_USER_ID"`
	TwitterUsername        string        `mapstructure:"TWITTER_USERNAME"`
	TwitterAPIURL          string        `mapstructure:"TWITTER_API_URL"`
	TweetCooldown          time.Duration `mapstructure:"TWEET_COOLDOWN"`
	TweetFetchAllCount     int           `mapstructure:"TWEET_FETCH_ALL_COUNT"`
	TweetAutoFetchInterval time.Duration `mapstructure:"TWEET_AUTO_FETCH_INTERVAL"`
	FetchMarkerName        string        `mapstructure:"FETCH_MARKER_NAME"`
}

// defaults lists every key so that AutomaticEnv values are picked up by Unmarshal.
var defaults = map[string]any{
	"LOG_LEVEL":                 "info",
	"HTTP_ADDR":                 ":8080",
	"DB_URL":                    "",
	"GITHUB_TOKEN":              "",
	"GITHUB_ORG":                "dscnitrourkela",
	"GITHUB_API_URL":            "",
	"CONTRIBUTOR_CONCURRENCY":   10,
	"TWITTER_BEARER_TOKEN":      "",
	"TWITTER_USER_ID":           "",
	"TWITTER_USERNAME":          "",
	"TWITTER_API_URL":           "https://api.twitter.com",
	"TWEET_COOLDOWN":            "2h",
	"TWEET_FETCH_ALL_COUNT":     20,
	"TWEET_AUTO_FETCH_INTERVAL": "0s",
	"FETCH_MARKER_NAME":         "latest",
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if file not found

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DBURL == "" {
		return errors.New("DB_URL is a required configuration field")
	}
	if c.GithubToken == "" {
		return errors.New("GITHUB_TOKEN is a required configuration field")
	}
	if c.TwitterBearerToken == "" {
		return errors.New("TWITTER_BEARER_TOKEN is a required configuration field")
	}
	if c.TwitterUserID == "" && c.TwitterUsername == "" {
		return errors.New("one of TWITTER_USER_ID or TWITTER_USERNAME must be set")
	}
	if c.TweetCooldown < 0 {
		return errors.New("TWEET_COOLDOWN must not be negative")
	}
	if c.TweetFetchAllCount < 1 || c.TweetFetchAllCount > 100 {
		return errors.New("TWEET_FETCH_ALL_COUNT must be between 1 and 100")
	}
	if c.TweetAutoFetchInterval < 0 {
		return errors.New("TWEET_AUTO_FETCH_INTERVAL must not be negative")
	}
	if c.FetchMarkerName == "" {
		return errors.New("FETCH_MARKER_NAME must not be empty")
	}
	return nil
}
