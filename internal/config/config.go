package config

import "os"

// Config gathers environment settings and the global fallback values used by
// the normalizer and the feed synthesizer. Defaults live here, not as
// scattered literals, so tests can override them deterministically.
type Config struct {
	Port             string
	BaseURL          string
	DatabaseURL      string
	RedisAddr        string
	AudioStoragePath string

	SpotifyClientID     string
	SpotifyClientSecret string

	DefaultLanguage   string
	DefaultOwnerEmail string
	DefaultCategory   string
	DefaultAuthor     string
}

// Load reads the environment and applies defaults for anything unset.
func Load() Config {
	cfg := Config{
		Port:                os.Getenv("PORT"),
		BaseURL:             os.Getenv("BASE_URL"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		AudioStoragePath:    os.Getenv("AUDIO_STORAGE_PATH"),
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
	}
	return cfg.withDefaults()
}

// Defaults returns a Config carrying only the fallback values, for code paths
// (and tests) that never touch the environment.
func Defaults() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:" + c.Port
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "127.0.0.1:6379"
	}
	if c.AudioStoragePath == "" {
		c.AudioStoragePath = "audio"
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "ko"
	}
	if c.DefaultOwnerEmail == "" {
		c.DefaultOwnerEmail = "noreply@example.com"
	}
	if c.DefaultCategory == "" {
		c.DefaultCategory = "기타"
	}
	if c.DefaultAuthor == "" {
		c.DefaultAuthor = "Unknown"
	}
	return c
}
