package config

import "time"

// Config holds server configuration values. Loaded once at startup,
// immutable afterwards.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// Inference backend settings.
	OllamaURL        string        `mapstructure:"ollama_url" yaml:"ollama_url"`
	Model            string        `mapstructure:"model" yaml:"model"`
	InferenceTimeout time.Duration `mapstructure:"inference_timeout" yaml:"inference_timeout"`

	// Relay settings.
	AIMarker        string   `mapstructure:"ai_marker" yaml:"ai_marker"`
	AssistantName   string   `mapstructure:"assistant_name" yaml:"assistant_name"`
	DefaultRooms    []string `mapstructure:"default_rooms" yaml:"default_rooms"`
	MaxMessageBytes int      `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		OllamaURL:         "http://localhost:11434",
		Model:             "llama3.2",
		InferenceTimeout:  30 * time.Second,
		AIMarker:          "@ai",
		AssistantName:     "AI Assistant",
		DefaultRooms:      []string{"general", "tech", "random"},
		MaxMessageBytes:   4096,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Used for CLI flag overrides on top of the loaded file.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.OllamaURL != "" {
		c.OllamaURL = other.OllamaURL
	}
	if other.Model != "" {
		c.Model = other.Model
	}
	if other.InferenceTimeout != 0 {
		c.InferenceTimeout = other.InferenceTimeout
	}
	if other.AIMarker != "" {
		c.AIMarker = other.AIMarker
	}
	if other.AssistantName != "" {
		c.AssistantName = other.AssistantName
	}
	if len(other.DefaultRooms) != 0 {
		c.DefaultRooms = other.DefaultRooms
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
}
