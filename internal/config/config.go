package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// RemediationMode selects how failed assessments are remediated.
type RemediationMode string

const (
	RemediationRetrieval RemediationMode = "retrieval"
	RemediationSynthesis RemediationMode = "synthesis"
)

type Config struct {
	Mode      Mode   `mapstructure:"mode" validate:"oneof=offline online"`
	HTTPAddr  string `mapstructure:"http_addr" validate:"required"`
	PublicURL string `mapstructure:"public_url"`
	LogMode   string `mapstructure:"log_mode"`

	// LogRedaction masks secrets and hashes user ids in logs.
	LogRedaction bool `mapstructure:"log_redaction"`

	DBDriver string `mapstructure:"db_driver" validate:"oneof=sqlite postgres"`
	DBDSN    string `mapstructure:"db_dsn"`

	AuthHMACSecret  string `mapstructure:"auth_hmac_secret" validate:"required,min=8"`
	EnableLocalAuth bool   `mapstructure:"enable_local_auth"`
	AdminUser       string `mapstructure:"admin_user"`
	AdminPassHash   string `mapstructure:"admin_pass_hash"` // bcrypt

	CORSOriginsOnline  []string `mapstructure:"cors_origins_online"`
	CORSOriginsOffline []string `mapstructure:"cors_origins_offline"`

	Remediation RemediationConfig `mapstructure:"remediation"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Generate    GenerateConfig    `mapstructure:"generate"`
	Redis       RedisConfig       `mapstructure:"redis"`
}

type RemediationConfig struct {
	Mode              RemediationMode `mapstructure:"mode" validate:"oneof=retrieval synthesis"`
	GenerationTimeout time.Duration   `mapstructure:"generation_timeout" validate:"gt=0"`
	MaxBlocks         int             `mapstructure:"max_blocks" validate:"min=1,max=12"`
	MaxBlockChars     int             `mapstructure:"max_block_chars" validate:"min=50"`
	CacheTTL          time.Duration   `mapstructure:"cache_ttl"`
}

type LLMConfig struct {
	// Provider is one of anthropic, openai, gemini or mock.
	Provider    string  `mapstructure:"provider" validate:"oneof=anthropic openai gemini mock"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	MaxTokens   int     `mapstructure:"max_tokens" validate:"min=64"`
	Temperature float64 `mapstructure:"temperature" validate:"min=0,max=2"`
}

type GenerateConfig struct {
	LessonsPerTopic int           `mapstructure:"lessons_per_topic" validate:"min=1,max=20"`
	Concurrency     int           `mapstructure:"concurrency" validate:"min=1"`
	RetryAttempts   uint          `mapstructure:"retry_attempts" validate:"min=1"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	TopicTimeout    time.Duration `mapstructure:"topic_timeout" validate:"gt=0"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// envBindings maps config keys to the environment variables that feed them.
var envBindings = map[string]string{
	"mode":                           "MODE",
	"http_addr":                      "HTTP_ADDR",
	"public_url":                     "PUBLIC_URL",
	"log_mode":                       "LOG_MODE",
	"log_redaction":                  "LOG_REDACTION_ENABLED",
	"db_driver":                      "DB_DRIVER",
	"db_dsn":                         "DB_DSN",
	"auth_hmac_secret":               "AUTH_HMAC_SECRET",
	"enable_local_auth":              "ENABLE_LOCAL_AUTH",
	"admin_user":                     "ADMIN_USER",
	"admin_pass_hash":                "ADMIN_PASS_HASH",
	"cors_origins_online":            "CORS_ORIGINS_ONLINE",
	"cors_origins_offline":           "CORS_ORIGINS_OFFLINE",
	"remediation.mode":               "REMEDIATION_MODE",
	"remediation.generation_timeout": "GENERATION_TIMEOUT",
	"remediation.max_blocks":         "REMEDIAL_MAX_BLOCKS",
	"remediation.max_block_chars":    "REMEDIAL_MAX_BLOCK_CHARS",
	"remediation.cache_ttl":          "REMEDIATION_CACHE_TTL",
	"llm.provider":                   "LLM_PROVIDER",
	"llm.model":                      "LLM_MODEL",
	"llm.api_key":                    "LLM_API_KEY",
	"llm.base_url":                   "LLM_BASE_URL",
	"llm.max_tokens":                 "LLM_MAX_TOKENS",
	"llm.temperature":                "LLM_TEMPERATURE",
	"generate.lessons_per_topic":     "GENERATE_LESSONS_PER_TOPIC",
	"generate.concurrency":           "GENERATE_CONCURRENCY",
	"generate.retry_attempts":        "GENERATE_RETRY_ATTEMPTS",
	"generate.retry_delay":           "GENERATE_RETRY_DELAY",
	"generate.topic_timeout":         "GENERATE_TOPIC_TIMEOUT",
	"redis.addr":                     "REDIS_ADDR",
	"redis.password":                 "REDIS_PASSWORD",
	"redis.db":                       "REDIS_DB",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(ModeOffline))
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_mode", "development")
	v.SetDefault("log_redaction", true)
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("auth_hmac_secret", "supersecret-dev-key")
	v.SetDefault("enable_local_auth", true)
	v.SetDefault("admin_user", "admin")
	v.SetDefault("admin_pass_hash", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji")
	v.SetDefault("cors_origins_online", "https://lms.mindengage.ai")
	v.SetDefault("cors_origins_offline", "http://localhost:3000,http://localhost:3010,http://localhost:3020")

	v.SetDefault("remediation.mode", string(RemediationRetrieval))
	v.SetDefault("remediation.generation_timeout", 20*time.Second)
	v.SetDefault("remediation.max_blocks", 4)
	v.SetDefault("remediation.max_block_chars", 1200)
	v.SetDefault("remediation.cache_ttl", 24*time.Hour)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.temperature", 0.4)

	v.SetDefault("generate.lessons_per_topic", 5)
	v.SetDefault("generate.concurrency", 4)
	v.SetDefault("generate.retry_attempts", 2)
	v.SetDefault("generate.retry_delay", time.Second)
	v.SetDefault("generate.topic_timeout", 90*time.Second)
}

// Load reads configuration from an optional YAML file and the environment.
// Environment variables win over file values.
func Load(configFile string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("gateway")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/mindengage")
	}

	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSOriginsOnline = splitCSV(cfg.CORSOriginsOnline)
	cfg.CORSOriginsOffline = splitCSV(cfg.CORSOriginsOffline)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and provider credentials.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Remediation.Mode == RemediationSynthesis && c.LLM.Provider != "mock" && c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required for the %s provider in synthesis mode", c.LLM.Provider)
	}
	return nil
}

// CORSOrigins returns the allowed origins for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

// viper hands back a single comma-joined element for env-provided lists.
func splitCSV(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, p := range strings.Split(item, ",") {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
