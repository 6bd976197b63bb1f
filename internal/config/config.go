package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application. Every value has a
// working default so the server starts with no environment at all.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// LogFormat selects the slog handler: "text" or "json".
	LogFormat string
	// SendBufferSize is the per-connection outbound frame buffer. Frames
	// beyond it are dropped rather than queued.
	SendBufferSize int
}

const (
	defaultAddr           = ":8080"
	defaultSendBufferSize = 256
)

// New loads configuration from environment variables, reading a .env file
// first when one exists.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Addr:           defaultAddr,
		LogFormat:      os.Getenv("LOG_FORMAT"),
		SendBufferSize: defaultSendBufferSize,
	}

	if addr := os.Getenv("APP_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if raw := os.Getenv("WS_SEND_BUFFER"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.SendBufferSize = n
		}
	}

	return cfg
}
