package utils

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	HTTPAddr string `env:"BOOKSHELF_HTTP_ADDR" envDefault:":8080"`
	SyncAddr string `env:"BOOKSHELF_SYNC_ADDR" envDefault:":7070"`
	LogLevel string `env:"BOOKSHELF_LOG_LEVEL" envDefault:"info"`
	Dev      bool   `env:"BOOKSHELF_DEV"`
	// TrustedProxies is passed to gin; empty trusts none.
	TrustedProxies []string `env:"BOOKSHELF_TRUSTED_PROXIES" envSeparator:"," envDefault:"127.0.0.1"`
	// PollInterval is how often the server looks for collection changes
	// written by other processes. Zero disables polling.
	PollInterval time.Duration `env:"BOOKSHELF_POLL_INTERVAL" envDefault:"2s"`
}

func LoadServerConfig() ServerConfig {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		// fall back to defaults on malformed values
		return ServerConfig{
			HTTPAddr:       ":8080",
			SyncAddr:       ":7070",
			LogLevel:       "info",
			TrustedProxies: []string{"127.0.0.1"},
			PollInterval:   2 * time.Second,
		}
	}
	return cfg
}
