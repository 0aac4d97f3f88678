package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	App struct {
		Port            string        `mapstructure:"port"`
		Env             string        `mapstructure:"env"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"app"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Redis struct {
		Addr       string        `mapstructure:"addr"`
		Password   string        `mapstructure:"password"`
		ProfileTTL time.Duration `mapstructure:"profile_ttl"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		GroupID string   `mapstructure:"group_id"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret string        `mapstructure:"jwt_secret"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`
	LLM struct {
		Provider string        `mapstructure:"provider"`
		Model    string        `mapstructure:"model"`
		APIKey   string        `mapstructure:"api_key"`
		BaseURL  string        `mapstructure:"base_url"`
		Timeout  time.Duration `mapstructure:"timeout"`
	} `mapstructure:"llm"`
	CORS struct {
		AllowOrigins []string `mapstructure:"allow_origins"`
	} `mapstructure:"cors"`
	Tracing struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
		ServiceName  string `mapstructure:"service_name"`
	} `mapstructure:"tracing"`
}

// LoadConfig reads config.yaml from the given paths (default ".") and .env, then applies env overrides.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	if err := godotenv.Load(); err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read env only. Error: %v", err)
	}

	v.SetDefault("app.port", "5001")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.shutdown_timeout", 10*time.Second)
	v.SetDefault("redis.profile_ttl", 5*time.Minute)
	v.SetDefault("kafka.group_id", "suggestion-worker-group")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("cors.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("tracing.service_name", "career-compass")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.port", "APP_PORT", "PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.shutdown_timeout", "SHUTDOWN_TIMEOUT")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.profile_ttl", "REDIS_PROFILE_TTL")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_ttl", "JWT_TOKEN_TTL")
	v.BindEnv("llm.provider", "LLM_PROVIDER")
	v.BindEnv("llm.model", "LLM_MODEL")
	v.BindEnv("llm.api_key", "LLM_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("llm.base_url", "LLM_BASE_URL")
	v.BindEnv("llm.timeout", "LLM_TIMEOUT")
	v.BindEnv("cors.allow_origins", "CORS_ALLOW_ORIGINS")
	v.BindEnv("tracing.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("tracing.service_name", "OTEL_SERVICE_NAME")

	if err = v.Unmarshal(&cfg); err != nil {
		return
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	cfg.CORS.AllowOrigins = splitList(cfg.CORS.AllowOrigins)
	return
}

// Validate reports configuration that would make the server unable to serve any request.
func (c Config) Validate() error {
	var errs []error
	if c.DB.DSN == "" {
		errs = append(errs, errors.New("db.dsn (DB_DSN) is required"))
	}
	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.APIKey == "" {
			errs = append(errs, errors.New("llm.api_key (LLM_API_KEY or GEMINI_API_KEY) is required for gemini"))
		}
	case ProviderOpenAI:
		if c.LLM.APIKey == "" && c.LLM.BaseURL == "" {
			errs = append(errs, errors.New("llm.api_key or llm.base_url is required for openai"))
		}
	default:
		errs = append(errs, errors.New("llm.provider must be one of: gemini, openai"))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}
	return errors.Join(errs...)
}

// splitList flattens comma separated env values ("a,b") into separate entries.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
