package database

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultApplicationName is reported to postgres in pg_stat_activity
const DefaultApplicationName = "crowdfunding-payments"

// Config represents database configuration
type Config struct {
	Driver          string
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	SSLMode         string
	ApplicationName string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration
	LogLevel        string // silent, error, warn, info or debug
	RetryAttempts   int
	RetryDelay      time.Duration
}

// DefaultConfig returns the CP_DB_* environment settings over built-in defaults.
// Credentials are never defaulted.
func DefaultConfig() *Config {
	return &Config{
		Driver:          envString("CP_DB_DRIVER", "postgres"),
		Host:            envString("CP_DB_HOST", ""),
		Port:            envInt("CP_DB_PORT", 5432),
		Username:        envString("CP_DB_USERNAME", ""),
		Password:        envString("CP_DB_PASSWORD", ""),
		Database:        envString("CP_DB_NAME", "crowdfunding_payments"),
		SSLMode:         envString("CP_DB_SSL_MODE", "disable"),
		ApplicationName: DefaultApplicationName,
		MaxOpenConns:    envInt("CP_DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    envInt("CP_DB_MAX_IDLE_CONNS", 10),
		ConnMaxLifetime: time.Duration(envInt("CP_DB_CONN_MAX_LIFETIME_MINUTES", 30)) * time.Minute,
		ConnMaxIdleTime: time.Duration(envInt("CP_DB_CONN_MAX_IDLE_TIME_MINUTES", 15)) * time.Minute,
		QueryTimeout:    time.Duration(envInt("CP_DB_QUERY_TIMEOUT_SECONDS", 5)) * time.Second,
		LogLevel:        envString("CP_LOGGER_LEVEL", "info"),
		RetryAttempts:   envInt("CP_DB_RETRY_ATTEMPTS", 3),
		RetryDelay:      time.Duration(envInt("CP_DB_RETRY_DELAY_SECONDS", 1)) * time.Second,
	}
}

var (
	validSSLModes  = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}
	validLogLevels = []string{"silent", "error", "warn", "info", "debug"}
)

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var problems []error

	if c.Driver != "postgres" {
		problems = append(problems, fmt.Errorf("unsupported database driver: %s", c.Driver))
	}
	if c.Host == "" {
		problems = append(problems, errors.New("database host is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Errorf("invalid port number: %d", c.Port))
	}
	if c.Username == "" {
		problems = append(problems, errors.New("database username is required"))
	}
	if c.Password == "" {
		problems = append(problems, errors.New("database password is required"))
	}
	if c.Database == "" {
		problems = append(problems, errors.New("database name is required"))
	}
	if !slices.Contains(validSSLModes, c.SSLMode) {
		problems = append(problems, fmt.Errorf("invalid SSL mode: %s", c.SSLMode))
	}
	if c.MaxOpenConns <= 0 {
		problems = append(problems, fmt.Errorf("max open connections must be positive, got: %d", c.MaxOpenConns))
	}
	if c.MaxIdleConns <= 0 || c.MaxIdleConns > c.MaxOpenConns {
		problems = append(problems, fmt.Errorf("max idle connections must be between 1 and %d, got: %d", c.MaxOpenConns, c.MaxIdleConns))
	}
	if c.QueryTimeout <= 0 {
		problems = append(problems, errors.New("query timeout must be positive"))
	}
	if c.RetryAttempts < 0 || c.RetryDelay < 0 {
		problems = append(problems, errors.New("connection retry settings must be non-negative"))
	}
	if !slices.Contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		problems = append(problems, fmt.Errorf("invalid log level: %s", c.LogLevel))
	}

	return errors.Join(problems...)
}

// DSN returns the keyword/value connection string understood by pgx
func (c *Config) DSN() string {
	parts := []string{
		"host=" + quoteDSNValue(c.Host),
		"port=" + strconv.Itoa(c.Port),
		"user=" + quoteDSNValue(c.Username),
		"password=" + quoteDSNValue(c.Password),
		"dbname=" + quoteDSNValue(c.Database),
		"sslmode=" + quoteDSNValue(c.SSLMode),
	}
	if c.ApplicationName != "" {
		parts = append(parts, "application_name="+quoteDSNValue(c.ApplicationName))
	}
	return strings.Join(parts, " ")
}

// quoteDSNValue single-quotes values that are empty or contain spaces, quotes or backslashes
func quoteDSNValue(value string) string {
	if value != "" && !strings.ContainsAny(value, ` '\`) {
		return value
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return "'" + escaped + "'"
}

func envString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
