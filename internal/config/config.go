package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Similarity SimilarityConfig `mapstructure:"similarity"`
	Lark       LarkConfig       `mapstructure:"lark"`
	Documents  DocumentsConfig  `mapstructure:"documents"`
	Report     ReportConfig     `mapstructure:"report"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds the audit log database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Temperature    float32       `mapstructure:"temperature"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// SimilarityConfig holds the vector store configuration
type SimilarityConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Collection string        `mapstructure:"collection"`
	TopK       int           `mapstructure:"top_k"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// LarkConfig holds the SIU alert messaging configuration
type LarkConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
	SIUChatID string `mapstructure:"siu_chat_id"`
}

// DocumentsConfig holds claim document handling configuration
type DocumentsConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// ReportConfig holds adjuster brief output configuration
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("database.path", "data/claims.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	viper.SetDefault("openai.model", "gpt-4")
	viper.SetDefault("openai.embedding_model", "text-embedding-3-small")
	viper.SetDefault("openai.temperature", 0.3)
	viper.SetDefault("openai.timeout", 60*time.Second)

	viper.SetDefault("similarity.enabled", false)
	viper.SetDefault("similarity.base_url", "http://localhost:6333")
	viper.SetDefault("similarity.collection", "claims")
	viper.SetDefault("similarity.top_k", 5)
	viper.SetDefault("similarity.timeout", 15*time.Second)

	viper.SetDefault("lark.enabled", false)

	viper.SetDefault("documents.base_dir", "claim_documents")
	viper.SetDefault("report.output_dir", "generated_briefs")

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("similarity.api_key", "QDRANT_API_KEY")
	viper.BindEnv("lark.app_id", "LARK_APP_ID")
	viper.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	viper.BindEnv("lark.siu_chat_id", "LARK_SIU_CHAT_ID")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Similarity.Enabled && c.Similarity.BaseURL == "" {
		return fmt.Errorf("similarity.base_url is required when similarity search is enabled")
	}
	if c.Lark.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required when SIU alerts are enabled")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required when SIU alerts are enabled")
		}
		if c.Lark.SIUChatID == "" {
			return fmt.Errorf("lark.siu_chat_id is required when SIU alerts are enabled")
		}
	}
	return nil
}
