package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all the configuration for the application.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	SMTP         SMTPConfig
	Google       GoogleConfig
	AdminGate    AdminGateConfig
	Verification VerificationConfig
	JWTSecret    string `mapstructure:"jwtsecret"`

	// AppBaseURL is the public base URL of the web client, used to build
	// links carried in emails (e.g. the password reset page).
	AppBaseURL string `mapstructure:"appbaseurl"`
}

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig holds the Redis configuration.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type GoogleConfig struct {
	ClientID     string `mapstructure:"clientid"`
	ClientSecret string `mapstructure:"clientsecret"`
	RedirectURL  string `mapstructure:"redirecturl"`
}

// AdminGateConfig holds the server-verified credentials for the admin gate.
// These are deliberately config-supplied, never compiled into the binary.
type AdminGateConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Question string `mapstructure:"question"`
	Answer   string `mapstructure:"answer"`
	TTLHours int    `mapstructure:"ttlhours"`
}

type VerificationConfig struct {
	TTLMinutes int `mapstructure:"ttlminutes"`
}

// Load creates a new Config object from the .env file and environment variables.
func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Load .env into the process environment so BindEnv sees file-based values.
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ godotenv could not load .env: %v", err)
	}

	// Bind structured keys to environment variables.
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("database.url", "DATABASE_URL")
	_ = viper.BindEnv("redis.url", "REDIS_URL")
	_ = viper.BindEnv("jwtsecret", "JWT_SECRET")
	_ = viper.BindEnv("smtp.host", "SMTP_HOST")
	_ = viper.BindEnv("smtp.port", "SMTP_PORT")
	_ = viper.BindEnv("smtp.username", "SMTP_USERNAME")
	_ = viper.BindEnv("smtp.password", "SMTP_PASSWORD")
	_ = viper.BindEnv("smtp.from", "SMTP_FROM")
	_ = viper.BindEnv("google.clientid", "GOOGLE_CLIENT_ID")
	_ = viper.BindEnv("google.clientsecret", "GOOGLE_CLIENT_SECRET")
	_ = viper.BindEnv("google.redirecturl", "GOOGLE_REDIRECT_URL")
	_ = viper.BindEnv("admingate.username", "ADMIN_GATE_USERNAME")
	_ = viper.BindEnv("admingate.password", "ADMIN_GATE_PASSWORD")
	_ = viper.BindEnv("admingate.question", "ADMIN_GATE_QUESTION")
	_ = viper.BindEnv("admingate.answer", "ADMIN_GATE_ANSWER")
	_ = viper.BindEnv("admingate.ttlhours", "ADMIN_GATE_TTL_HOURS")
	_ = viper.BindEnv("verification.ttlminutes", "VERIFICATION_TTL_MINUTES")
	_ = viper.BindEnv("appbaseurl", "APP_BASE_URL")

	if err := viper.ReadInConfig(); err != nil {
		// We can still proceed if all config is set via environment variables.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("❌ Error reading config file: %s", err)
		} else {
			log.Printf("⚠️ .env file not found, relying on environment variables")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("❌ Unable to decode config into struct: %v", err)
	}

	// --- Set default values ---
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.AdminGate.TTLHours <= 0 {
		cfg.AdminGate.TTLHours = 24
	}
	if cfg.Verification.TTLMinutes <= 0 {
		cfg.Verification.TTLMinutes = 10
	}
	if cfg.AppBaseURL == "" {
		cfg.AppBaseURL = "http://localhost:5173"
	}

	log.Println("✅ Configuration loaded successfully")
	return &cfg
}

// DemoMode reports whether the backing stores are unconfigured (absent or
// left at placeholder values). In demo mode the service runs against
// in-memory fixtures instead of failing outright.
func (c *Config) DemoMode() bool {
	return isPlaceholder(c.Database.URL) || isPlaceholder(c.Redis.URL)
}

func isPlaceholder(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "" {
		return true
	}
	return v == "changeme" || strings.HasPrefix(v, "your-")
}
