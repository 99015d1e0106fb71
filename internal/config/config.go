package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Mapping  MappingConfig  `yaml:"mapping"`
	Provider ProviderConfig `yaml:"provider"`
	Storage  StorageConfig  `yaml:"storage"`
}

type AppConfig struct {
	Name      string `yaml:"name"`
	APIPrefix string `yaml:"api_prefix"`
	LogLevel  string `yaml:"log_level"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	MaxUploadMB    int      `yaml:"max_upload_mb"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// MaxUploadBytes 上传大小上限
func (c ServerConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Addr 监听地址
func (c ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// MappingConfig 列映射与转换参数
type MappingConfig struct {
	AcceptThreshold     float64 `yaml:"accept_threshold"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	DefaultCurrency     string  `yaml:"default_currency"`
	UseLLMMapping       bool    `yaml:"use_llm_mapping"`
	CatalogFile         string  `yaml:"catalog_file"`
}

// ProviderConfig 映射建议 provider
type ProviderConfig struct {
	Name           string `yaml:"name"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	Endpoint       string `yaml:"endpoint"`
	Region         string `yaml:"region"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (c ProviderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// StorageConfig 任务与费率卡存储；为空时使用内存实现
type StorageConfig struct {
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"` // DatabaseURL 为空时使用
	RedisURL    string `yaml:"redis_url"`
	JobTTLHours int    `yaml:"job_ttl_hours"`
	S3Bucket    string `yaml:"s3_bucket"`
	S3Region    string `yaml:"s3_region"`
	AWSProfile  string `yaml:"aws_profile"`
}

func (c StorageConfig) JobTTL() time.Duration {
	return time.Duration(c.JobTTLHours) * time.Hour
}

// Load 读取配置文件；path 为空时只使用默认值
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, eris.Wrapf(err, "parse config %s", path)
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.App.Name == "" {
		cfg.App.Name = "Rate Card Conversion"
	}
	if cfg.App.APIPrefix == "" {
		cfg.App.APIPrefix = "/v1"
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 10
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Mapping.AcceptThreshold == 0 {
		cfg.Mapping.AcceptThreshold = 0.62
	}
	if cfg.Mapping.ConfidenceThreshold == 0 {
		cfg.Mapping.ConfidenceThreshold = 0.80
	}
	if cfg.Mapping.DefaultCurrency == "" {
		cfg.Mapping.DefaultCurrency = "USD"
	}
	if cfg.Provider.Name == "" {
		cfg.Provider.Name = "openai"
	}
	if cfg.Provider.Model == "" && cfg.Provider.Name == "openai" {
		cfg.Provider.Model = "gpt-4o-mini"
	}
	if cfg.Provider.TimeoutSeconds == 0 {
		cfg.Provider.TimeoutSeconds = 30
	}
	if cfg.Storage.JobTTLHours == 0 {
		cfg.Storage.JobTTLHours = 24
	}
	if cfg.Storage.S3Region == "" {
		cfg.Storage.S3Region = "us-east-1"
	}
}

// LoadFromEnv 读取配置文件后应用环境变量（会先加载 .env）
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	setString(&cfg.App.LogLevel, "RCC_LOG_LEVEL")
	setString(&cfg.Server.Host, "RCC_HOST")
	if err := setInt(&cfg.Server.Port, "RCC_PORT"); err != nil {
		return nil, err
	}
	if err := setInt(&cfg.Server.MaxUploadMB, "RCC_MAX_UPLOAD_MB"); err != nil {
		return nil, err
	}
	if v := os.Getenv("RCC_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}

	if err := setFloat(&cfg.Mapping.AcceptThreshold, "RCC_ACCEPT_THRESHOLD"); err != nil {
		return nil, err
	}
	if err := setFloat(&cfg.Mapping.ConfidenceThreshold, "RCC_CONFIDENCE_THRESHOLD"); err != nil {
		return nil, err
	}
	setString(&cfg.Mapping.DefaultCurrency, "RCC_DEFAULT_CURRENCY")
	setString(&cfg.Mapping.CatalogFile, "RCC_CATALOG_FILE")
	if v := os.Getenv("RCC_USE_LLM_MAPPING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, eris.Wrapf(err, "RCC_USE_LLM_MAPPING=%q", v)
		}
		cfg.Mapping.UseLLMMapping = b
	}

	setString(&cfg.Provider.Name, "RCC_PROVIDER")
	setString(&cfg.Provider.Model, "RCC_PROVIDER_MODEL")
	setString(&cfg.Provider.Endpoint, "RCC_PROVIDER_ENDPOINT")
	setString(&cfg.Provider.APIKey, providerKeyEnv(cfg.Provider.Name))
	setString(&cfg.Provider.APIKey, "RCC_PROVIDER_API_KEY")
	setString(&cfg.Provider.Region, "AWS_REGION")

	setString(&cfg.Storage.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Storage.DatabaseURL, "RCC_DATABASE_URL")
	setString(&cfg.Storage.SQLitePath, "RCC_SQLITE_PATH")
	setString(&cfg.Storage.RedisURL, "RCC_REDIS_URL")
	setString(&cfg.Storage.S3Bucket, "RCC_S3_BUCKET")
	setString(&cfg.Storage.S3Region, "RCC_S3_REGION")
	setString(&cfg.Storage.AWSProfile, "AWS_PROFILE")

	return cfg, nil
}

// providerKeyEnv provider 对应的标准 API Key 变量名
func providerKeyEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "qwen", "dashscope":
		return "DASHSCOPE_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) error {
	v := os.Getenv(env)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return eris.Wrapf(err, "%s=%q", env, v)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, env string) error {
	v := os.Getenv(env)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return eris.Wrapf(err, "%s=%q", env, v)
	}
	*dst = f
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
