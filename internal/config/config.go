package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Session  SessionConfig  `mapstructure:"session"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Google   OAuthConfig    `mapstructure:"google"`
	Outlook  OAuthConfig    `mapstructure:"outlook"`
}

// StorageConfig selects the storage implementation at process start.
type StorageConfig struct {
	// Driver is one of "postgres", "sqlite" or "memory".
	Driver string `mapstructure:"driver"`
	// Path is the database file when Driver is "sqlite".
	Path string `mapstructure:"path"`
}

// DatabaseConfig represents PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// ServerConfig represents HTTP server settings
type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// SessionConfig represents session cookie settings
type SessionConfig struct {
	Secret string `mapstructure:"secret"`
}

// OpenAIConfig represents the AI provider settings
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// OAuthConfig represents one calendar provider's OAuth client settings
type OAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Best effort: a missing .env just means plain environment variables.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("storage.driver", "postgres")
	viper.SetDefault("storage.path", "tasksync.db")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.name", "tasksync")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	viper.SetDefault("session.secret", "")
	viper.SetDefault("openai.model", "gpt-4o")
	viper.SetDefault("google.redirect_uri", "http://localhost:5000/api/auth/google/callback")
	viper.SetDefault("outlook.redirect_uri", "http://localhost:5000/api/auth/outlook/callback")

	bindEnvs()
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; defaults and env vars cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Session.Secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET must be set")
	}

	return &cfg, nil
}

func bindEnvs() {
	viper.BindEnv("storage.driver", "STORAGE_DRIVER")
	viper.BindEnv("storage.path", "SQLITE_PATH")
	viper.BindEnv("database.host", "PG_HOST")
	viper.BindEnv("database.port", "PG_PORT")
	viper.BindEnv("database.user", "PG_USER")
	viper.BindEnv("database.password", "PG_PASSWORD")
	viper.BindEnv("database.name", "PG_DATABASE")
	viper.BindEnv("database.ssl_mode", "PG_SSL_MODE")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("session.secret", "SESSION_SECRET")
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("openai.model", "OPENAI_MODEL")
	viper.BindEnv("google.client_id", "GOOGLE_CLIENT_ID")
	viper.BindEnv("google.client_secret", "GOOGLE_CLIENT_SECRET")
	viper.BindEnv("google.redirect_uri", "GOOGLE_REDIRECT_URI")
	viper.BindEnv("outlook.client_id", "OUTLOOK_CLIENT_ID")
	viper.BindEnv("outlook.client_secret", "OUTLOOK_CLIENT_SECRET")
	viper.BindEnv("outlook.redirect_uri", "OUTLOOK_REDIRECT_URI")
}

// GetDatabaseDSN builds the PostgreSQL connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.Name, c.Database.SSLMode)
}

// ServerAddr returns the host:port the HTTP server listens on
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
