package database

import (
	"strconv"
	"strings"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/config"
)

// CreateConfigFromViperConfig adapts the application configuration to database configuration.
// Values already resolved by the config loader win over environment defaults.
func CreateConfigFromViperConfig(conf *config.Config) *Config {
	dbConf := DefaultConfig()
	db := conf.Database

	if db.Driver != "" {
		dbConf.Driver = db.Driver
	}
	if db.Host != "" {
		dbConf.Host = db.Host
	}
	if port := ParsePort(db.Port); port != 0 {
		dbConf.Port = port
	}
	if db.Username != "" {
		dbConf.Username = db.Username
	}
	if db.Password != "" {
		dbConf.Password = db.Password
	}
	if db.Database != "" {
		dbConf.Database = db.Database
	}
	if db.SSLMode != "" {
		dbConf.SSLMode = db.SSLMode
	}
	if db.MaxOpenConns > 0 {
		dbConf.MaxOpenConns = db.MaxOpenConns
	}
	if db.MaxIdleConns > 0 {
		dbConf.MaxIdleConns = db.MaxIdleConns
	}
	if db.ConnMaxLifetime > 0 {
		dbConf.ConnMaxLifetime = db.ConnMaxLifetime
	}
	if db.ConnMaxIdleTime > 0 {
		dbConf.ConnMaxIdleTime = db.ConnMaxIdleTime
	}
	if db.QueryTimeout > 0 {
		dbConf.QueryTimeout = db.QueryTimeout
	}
	if db.RetryAttempts > 0 {
		dbConf.RetryAttempts = db.RetryAttempts
	}
	if db.RetryDelay > 0 {
		dbConf.RetryDelay = db.RetryDelay
	}
	if conf.Logger.Level != "" {
		dbConf.LogLevel = conf.Logger.Level
	}

	return dbConf
}

// ParsePort converts a port string to an int, zero signals an unset or invalid port
func ParsePort(port string) int {
	p, err := strconv.Atoi(strings.TrimSpace(port))
	if err != nil || p <= 0 || p > 65535 {
		return 0
	}
	return p
}
