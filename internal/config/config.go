package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	GeneratorEcho = "echo"
	GeneratorLLM  = "llm"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string   `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string   `env:"DATABASE_URL,required,notEmpty"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string   `env:"LOG_FILE"`
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	ChatTokenDelay time.Duration `env:"CHAT_TOKEN_DELAY" envDefault:"50ms"`
	ChatLockTTL    time.Duration `env:"CHAT_LOCK_TTL" envDefault:"2m"`
	ChatRateLimit  int           `env:"CHAT_RATE_LIMIT" envDefault:"30"`
	ChatRateWindow time.Duration `env:"CHAT_RATE_WINDOW" envDefault:"1m"`

	Generator       string `env:"GENERATOR" envDefault:"echo"`
	LLMAPIKey       string `env:"LLM_API_KEY"`
	LLMBaseURL      string `env:"LLM_BASE_URL" envDefault:"https://api.flock.io/v1"`
	LLMModel        string `env:"LLM_MODEL" envDefault:"qwen3-235b-a22b-instruct-2507"`
	LLMAPIKeyHeader string `env:"LLM_API_KEY_HEADER" envDefault:"x-litellm-api-key"`

	SerperAPIKey string        `env:"SERPER_API_KEY"`
	SerperURL    string        `env:"SERPER_URL" envDefault:"https://google.serper.dev/search"`
	NewsCacheTTL time.Duration `env:"NEWS_CACHE_TTL" envDefault:"10m"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UseLLM indica si las respuestas deben generarse con el LLM real.
func (c *Config) UseLLM() bool {
	return c.Generator == GeneratorLLM && c.LLMAPIKey != ""
}
