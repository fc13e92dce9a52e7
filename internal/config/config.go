package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration for every subcommand.
type Config struct {
	ServerPort         int
	LogFilePath        string
	LogLevel           string
	CORSAllowedOrigins []string
	DeviceTokenSecret  string // Empty disables device authentication

	SummarySchedule  string // Standard 5-field cron expression
	SummaryTodosFile string // YAML mapping of receiver -> required count

	BackendURL        string
	SerialPorts       []string
	BaudRate          int
	ConnectRetryDelay time.Duration
	PollInterval      time.Duration
	ForwardTimeout    time.Duration
}

// DefaultSerialPorts are tried in order when SERIAL_PORTS is not set.
var DefaultSerialPorts = []string{
	"/dev/ttyUSB0",
	"/dev/ttyACM0",
	"/dev/cu.usbmodem*",
	"COM3",
	"COM4",
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	port, err := getEnvInt("PORT", 5001)
	if err != nil {
		return nil, err
	}
	baud, err := getEnvInt("BAUD_RATE", 9600)
	if err != nil {
		return nil, err
	}
	retryDelay, err := getEnvDuration("CONNECT_RETRY_DELAY", 5*time.Second)
	if err != nil {
		return nil, err
	}
	pollInterval, err := getEnvDuration("POLL_INTERVAL", 100*time.Millisecond)
	if err != nil {
		return nil, err
	}
	forwardTimeout, err := getEnvDuration("FORWARD_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:         port,
		LogFilePath:        getEnv("LOG_FILE", "./patient_log.txt"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		DeviceTokenSecret:  getEnv("DEVICE_TOKEN_SECRET", ""),
		SummarySchedule:    getEnv("SUMMARY_SCHEDULE", ""),
		SummaryTodosFile:   getEnv("SUMMARY_TODOS_FILE", ""),
		BackendURL:         getEnv("BACKEND_URL", "http://localhost:5001"),
		SerialPorts:        getEnvList("SERIAL_PORTS", DefaultSerialPorts),
		BaudRate:           baud,
		ConnectRetryDelay:  retryDelay,
		PollInterval:       pollInterval,
		ForwardTimeout:     forwardTimeout,
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
