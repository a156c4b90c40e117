// Package config loads process configuration from the environment, the
// way cmd/toolplan and its ambient services are wired.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the settings cmd/toolplan needs to reach a model service
// and run the SDK against it.
type Config struct {
	Port                   string
	LogLevel               string
	ModelServiceURL        string
	ModelAPIKey            string
	ModelName              string
	ModelTimeout           time.Duration
	ExecutorMaxConcurrency int
}

// Load reads configuration from environment variables, falling back to
// defaults suited to local development against an OpenAI-compatible
// endpoint running on the operator's machine.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	modelURL := os.Getenv("MODEL_SERVICE_URL")
	if modelURL == "" {
		modelURL = "http://localhost:1234/v1/chat/completions"
	}

	modelName := os.Getenv("MODEL_NAME")
	if modelName == "" {
		modelName = "local-model"
	}

	timeout := 30 * time.Second
	if raw := os.Getenv("MODEL_TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}

	maxConcurrency := 0 // 0 means unbounded: every ready step in a wave launches at once
	if raw := os.Getenv("EXECUTOR_MAX_WAVE_CONCURRENCY"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			maxConcurrency = n
		}
	}

	return &Config{
		Port:                   port,
		LogLevel:               logLevel,
		ModelServiceURL:        modelURL,
		ModelAPIKey:            os.Getenv("MODEL_API_KEY"),
		ModelName:              modelName,
		ModelTimeout:           timeout,
		ExecutorMaxConcurrency: maxConcurrency,
	}
}
