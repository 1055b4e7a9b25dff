package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// EnvPrefix is the prefix of every environment variable read by the service
const EnvPrefix = "CP"

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"./configs/.env",
	"../configs/.env",
}

// LoadConfig loads configuration from file based on the environment
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file first
	if err := loadDotEnvFile(); err != nil {
		fmt.Println("Warning: Could not load .env file:", err)
	}

	return loadConfig(getEnvironment(), ConfigPaths)
}

func loadConfig(env string, paths []string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")

	for _, path := range paths {
		v.AddConfigPath(path)
	}

	// Set default values for non-critical settings
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Set environment variables to override config
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Process environment variable overrides for sensitive values
	processEnvOverrides(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.Environment = env

	// Convert time.Duration fields from their raw values
	processDurations(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the settings that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Session.Driver {
	case "database", "redis", "memory":
	default:
		return fmt.Errorf("unsupported session driver: %s", c.Session.Driver)
	}
	if c.Session.Driver == "database" && c.Database.Driver == "memory" {
		return fmt.Errorf("session driver database requires the postgres database driver")
	}

	if len(strings.TrimSpace(c.Payment.Currency)) != 3 {
		return fmt.Errorf("invalid payment currency: %q", c.Payment.Currency)
	}
	if _, err := time.LoadLocation(c.Payment.Timezone); err != nil {
		return fmt.Errorf("invalid payment timezone %q: %w", c.Payment.Timezone, err)
	}

	return nil
}

// Location returns the timezone used for transaction dates
func (c PaymentConfig) Location() *time.Location {
	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return location
}

// loadDotEnvFile attempts to load environment variables from .env files
func loadDotEnvFile() error {
	var lastError error

	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return nil
			} else {
				lastError = err
			}
		}
	}

	if lastError != nil {
		return fmt.Errorf("could not load any .env file: %w", lastError)
	}

	return fmt.Errorf("no .env file found in search paths")
}

// setDefaults sets default values for non-critical configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15)       // seconds
	v.SetDefault("server.writeTimeout", 15)      // seconds
	v.SetDefault("server.idleTimeout", 60)       // seconds
	v.SetDefault("server.readHeaderTimeout", 10) // seconds
	v.SetDefault("server.shutdownTimeout", 10)   // seconds

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 10)
	v.SetDefault("database.connMaxLifetime", 30) // minutes
	v.SetDefault("database.connMaxIdleTime", 15) // minutes
	v.SetDefault("database.queryTimeout", 5)     // seconds
	v.SetDefault("database.retryAttempts", 3)
	v.SetDefault("database.retryDelay", 1) // seconds

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.callerInfo", true)

	v.SetDefault("pesapal.testEnabled", true)
	v.SetDefault("pesapal.merchantUrl", "https://www.pesapal.com/API/PostPesapalDirectOrderV4")
	v.SetDefault("pesapal.testMerchantUrl", "https://demo.pesapal.com/API/PostPesapalDirectOrderV4")
	v.SetDefault("pesapal.apiUrl", "https://www.pesapal.com/api")
	v.SetDefault("pesapal.testApiUrl", "https://demo.pesapal.com/api")
	v.SetDefault("pesapal.requestTimeout", 30) // seconds

	v.SetDefault("payment.currency", "USD")
	v.SetDefault("payment.timezone", "UTC")
	v.SetDefault("payment.returnRedirectPath", "/projects/{catslug}/{slug}/backing/share")
	v.SetDefault("payment.removeSessionOnCompletion", true)

	v.SetDefault("session.driver", "database")
	v.SetDefault("session.cookieName", "cf_payment")
	v.SetDefault("session.maxAge", 86400) // seconds
	v.SetDefault("session.ttl", 1440)     // minutes

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.keyPrefix", "cp:payment_session:")
}

// getEnvironment determines the environment to use based on CP_ENV environment variable
func getEnvironment() string {
	env := os.Getenv(EnvPrefix + "_ENV")
	if env == "" {
		env = Development
	}
	return strings.ToLower(env)
}

// processEnvOverrides ensures environment variables override config values
func processEnvOverrides(v *viper.Viper) {
	overrides := map[string]string{
		"CP_DB_DRIVER":               "database.driver",
		"CP_DB_HOST":                 "database.host",
		"CP_DB_PORT":                 "database.port",
		"CP_DB_USERNAME":             "database.username",
		"CP_DB_PASSWORD":             "database.password",
		"CP_DB_NAME":                 "database.database",
		"CP_DB_SSL_MODE":             "database.sslMode",
		"CP_SERVER_HOST":             "server.host",
		"CP_SERVER_PORT":             "server.port",
		"CP_LOGGER_LEVEL":            "logger.level",
		"CP_PESAPAL_CONSUMER_KEY":    "pesapal.consumerKey",
		"CP_PESAPAL_CONSUMER_SECRET": "pesapal.consumerSecret",
		"CP_PAYMENT_CALLBACK_URL":    "payment.callbackBaseUrl",
		"CP_SESSION_DRIVER":          "session.driver",
		"CP_SESSION_SECRET":          "session.secret",
		"CP_REDIS_ADDR":              "redis.addr",
		"CP_REDIS_PASSWORD":          "redis.password",
	}
	for env, key := range overrides {
		if value := os.Getenv(env); value != "" {
			v.Set(key, value)
		}
	}

	if testEnabled := os.Getenv("CP_PESAPAL_TEST_ENABLED"); testEnabled != "" {
		if enabled, err := strconv.ParseBool(testEnabled); err == nil {
			v.Set("pesapal.testEnabled", enabled)
		}
	}
	if maxOpenConns := getEnvInt("CP_DB_MAX_OPEN_CONNS", 0); maxOpenConns > 0 {
		v.Set("database.maxOpenConns", maxOpenConns)
	}
	if maxIdleConns := getEnvInt("CP_DB_MAX_IDLE_CONNS", 0); maxIdleConns > 0 {
		v.Set("database.maxIdleConns", maxIdleConns)
	}
	if redisDB := getEnvInt("CP_REDIS_DB", -1); redisDB >= 0 {
		v.Set("redis.db", redisDB)
	}
}

// Helper function to get environment variable as int
func getEnvInt(name string, defaultVal int) int {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

// processDurations converts time.Duration fields from their raw values to actual durations
func processDurations(config *Config) {
	config.Server.ReadTimeout = time.Duration(config.Server.ReadTimeout) * time.Second
	config.Server.WriteTimeout = time.Duration(config.Server.WriteTimeout) * time.Second
	config.Server.IdleTimeout = time.Duration(config.Server.IdleTimeout) * time.Second
	config.Server.ReadHeaderTimeout = time.Duration(config.Server.ReadHeaderTimeout) * time.Second
	config.Server.ShutdownTimeout = time.Duration(config.Server.ShutdownTimeout) * time.Second

	config.Database.ConnMaxLifetime = time.Duration(config.Database.ConnMaxLifetime) * time.Minute
	config.Database.ConnMaxIdleTime = time.Duration(config.Database.ConnMaxIdleTime) * time.Minute
	config.Database.QueryTimeout = time.Duration(config.Database.QueryTimeout) * time.Second
	config.Database.RetryDelay = time.Duration(config.Database.RetryDelay) * time.Second

	config.PesaPal.RequestTimeout = time.Duration(config.PesaPal.RequestTimeout) * time.Second
	config.Session.TTL = time.Duration(config.Session.TTL) * time.Minute
}
