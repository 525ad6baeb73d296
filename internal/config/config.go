package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	ServiceName string `yaml:"service_name"`
	LogLevel    string `yaml:"log_level"`

	Server struct {
		Port            int           `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
		Seed   bool   `yaml:"seed"`
	} `yaml:"database"`

	LLM LLMConfig `yaml:"llm"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`

	RateLimit struct {
		Enabled  bool          `yaml:"enabled"`
		Requests int64         `yaml:"requests"`
		Window   time.Duration `yaml:"window"`
		Burst    int64         `yaml:"burst"`
	} `yaml:"rate_limit"`

	Session struct {
		SuggestionTTL time.Duration `yaml:"suggestion_ttl"`
	} `yaml:"session"`

	MetricsConfig struct {
		Enabled bool   `yaml:"enabled"`
		Port    int    `yaml:"port"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// LLMConfig selects and configures the fallback language model
type LLMConfig struct {
	Provider     string        `yaml:"provider"`
	Model        string        `yaml:"model"`
	Temperature  float64       `yaml:"temperature"`
	DefaultLang  string        `yaml:"default_lang"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   uint64        `yaml:"max_retries"`
	GroqAPIKey   string        `yaml:"-"`
	OpenAIAPIKey string        `yaml:"-"`
	GitHubToken  string        `yaml:"-"`
	Azure        struct {
		Endpoint   string `yaml:"endpoint"`
		APIKey     string `yaml:"-"`
		Deployment string `yaml:"deployment"`
	} `yaml:"azure"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	cfg := &Config{
		ServiceName: "primos-chat",
		LogLevel:    "info",
	}
	cfg.Server.Port = 8080
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.Database.Driver = "sqlite3"
	cfg.Database.DSN = "primos.db"
	cfg.Database.Seed = true
	cfg.LLM.Provider = "groq"
	cfg.LLM.Temperature = 0.1
	cfg.LLM.DefaultLang = "en"
	cfg.LLM.Timeout = 20 * time.Second
	cfg.LLM.MaxRetries = 2
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Requests = 30
	cfg.RateLimit.Window = time.Minute
	cfg.RateLimit.Burst = 10
	cfg.Session.SuggestionTTL = 5 * time.Minute
	cfg.MetricsConfig.Enabled = true
	cfg.MetricsConfig.Port = 9090
	cfg.MetricsConfig.Path = "/metrics"
	return cfg
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error. envFile, when
// set, is loaded into the process environment first.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at startup
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server port must be positive, got %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres", "memory":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature must be within [0, 2], got %v", c.LLM.Temperature)
	}
	if c.Session.SuggestionTTL <= 0 {
		return fmt.Errorf("session suggestion_ttl must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.ServiceName = getEnv("SERVICE_NAME", cfg.ServiceName)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)
	cfg.MetricsConfig.Port = getEnvInt("METRICS_PORT", cfg.MetricsConfig.Port)
	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("DATABASE_URL", cfg.Database.DSN)
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)

	cfg.LLM.Provider = getEnv("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.Temperature = getEnvFloat("LLM_TEMPERATURE", cfg.LLM.Temperature)
	cfg.LLM.DefaultLang = getEnv("LLM_DEFAULT_LANG", cfg.LLM.DefaultLang)
	cfg.LLM.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	cfg.LLM.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.LLM.GitHubToken = os.Getenv("GITHUB_TOKEN")
	cfg.LLM.Azure.Endpoint = getEnv("AZURE_OPENAI_ENDPOINT", cfg.LLM.Azure.Endpoint)
	cfg.LLM.Azure.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
	cfg.LLM.Azure.Deployment = getEnv("AZURE_OPENAI_DEPLOYMENT_NAME", cfg.LLM.Azure.Deployment)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
