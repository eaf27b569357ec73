package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/linesmerrill/ai-court-api/logging"
	"github.com/linesmerrill/ai-court-api/models"
)

// Config holds the project config values
type Config struct {
	Env          string
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string

	// StoreDriver is one of memory, mongo or sqlite
	StoreDriver string
	SQLitePath  string

	// Generator is one of openai or echo
	Generator         string
	LLMBaseURL        string
	LLMAPIKey         string
	LLMModel          string
	LLMTemperature    float32
	LLMStream         bool
	GenerationTimeout time.Duration
	RequestTimeout    time.Duration

	SessionTTL       time.Duration
	EvictionSchedule string

	OperatorEmail        string
	OperatorPasswordHash string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_NAME", "ai-court")
	v.SetDefault("STORE_DRIVER", "memory")
	v.SetDefault("SQLITE_PATH", "ai-court.db")
	v.SetDefault("GENERATOR", "openai")
	v.SetDefault("LLM_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("LLM_MODEL", "gpt-4o-mini")
	v.SetDefault("LLM_TEMPERATURE", 0.3)
	v.SetDefault("LLM_STREAM", false)
	v.SetDefault("GENERATION_TIMEOUT", "60s")
	v.SetDefault("REQUEST_TIMEOUT", "10m")
	v.SetDefault("SESSION_TTL", "2h")
	v.SetDefault("EVICTION_SCHEDULE", "@every 1m")
}

// Load reads the config from the environment and, when CONFIG_FILE is set,
// from that file. Environment values win over the file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	c := &Config{
		Env:                  strings.ToLower(v.GetString("APP_ENV")),
		URL:                  v.GetString("DB_URI"),
		DatabaseName:         v.GetString("DB_NAME"),
		BaseURL:              v.GetString("BASE_URL"),
		Port:                 v.GetString("PORT"),
		StoreDriver:          strings.ToLower(v.GetString("STORE_DRIVER")),
		SQLitePath:           v.GetString("SQLITE_PATH"),
		Generator:            strings.ToLower(v.GetString("GENERATOR")),
		LLMBaseURL:           v.GetString("LLM_BASE_URL"),
		LLMAPIKey:            v.GetString("LLM_API_KEY"),
		LLMModel:             v.GetString("LLM_MODEL"),
		LLMTemperature:       float32(v.GetFloat64("LLM_TEMPERATURE")),
		LLMStream:            v.GetBool("LLM_STREAM"),
		GenerationTimeout:    v.GetDuration("GENERATION_TIMEOUT"),
		RequestTimeout:       v.GetDuration("REQUEST_TIMEOUT"),
		SessionTTL:           v.GetDuration("SESSION_TTL"),
		EvictionSchedule:     v.GetString("EVICTION_SCHEDULE"),
		OperatorEmail:        v.GetString("OPERATOR_EMAIL"),
		OperatorPasswordHash: v.GetString("OPERATOR_PASSWORD_HASH"),
	}
	return c, c.validate()
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "memory", "sqlite":
	case "mongo":
		if c.URL == "" {
			return fmt.Errorf("STORE_DRIVER=mongo requires DB_URI")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.Generator {
	case "openai", "echo":
	default:
		return fmt.Errorf("unknown GENERATOR %q", c.Generator)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive")
	}
	return nil
}

// New sets up all config related services. The zap logger for APP_ENV
// replaces the global logger.
func New() (*Config, error) {
	c, err := Load()
	if err != nil {
		return nil, err
	}

	logger, err := setLogger(c.Env)
	if err != nil {
		return nil, err
	}
	_ = zap.ReplaceGlobals(logger)
	return c, nil
}

func setLogger(env string) (*zap.Logger, error) {
	return logging.New(env)
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().Errorw(message, "status", httpStatusCode, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	b, _ := json.Marshal(models.ErrorMessageResponse{Response: models.MessageError{Message: message, Error: errMsg}})
	_, _ = w.Write(b)
}
