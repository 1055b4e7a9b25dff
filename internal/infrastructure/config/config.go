package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Logger      LoggerConfig   `mapstructure:"logger"`
	PesaPal     PesaPalConfig  `mapstructure:"pesapal"`
	Payment     PaymentConfig  `mapstructure:"payment"`
	Session     SessionConfig  `mapstructure:"session"`
	Redis       RedisConfig    `mapstructure:"redis"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
	AllowedOrigins    []string      `mapstructure:"allowedOrigins"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres or memory
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"` // minutes
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`    // seconds
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"` // seconds
	SeedDemoData    bool          `mapstructure:"seedDemoData"`
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"timeFormat"`
	CallerInfo bool   `mapstructure:"callerInfo"`
}

// PesaPalConfig contains the merchant account settings of the gateway
type PesaPalConfig struct {
	ConsumerKey     string        `mapstructure:"consumerKey"`
	ConsumerSecret  string        `mapstructure:"consumerSecret"`
	TestEnabled     bool          `mapstructure:"testEnabled"`
	MerchantURL     string        `mapstructure:"merchantUrl"`
	TestMerchantURL string        `mapstructure:"testMerchantUrl"`
	APIURL          string        `mapstructure:"apiUrl"`
	TestAPIURL      string        `mapstructure:"testApiUrl"`
	RequestTimeout  time.Duration `mapstructure:"requestTimeout"` // seconds
}

// PaymentConfig contains platform payment settings
type PaymentConfig struct {
	Currency                  string `mapstructure:"currency"`
	Timezone                  string `mapstructure:"timezone"`
	ReturnRedirectPath        string `mapstructure:"returnRedirectPath"`
	CallbackBaseURL           string `mapstructure:"callbackBaseUrl"`
	RemoveSessionOnCompletion bool   `mapstructure:"removeSessionOnCompletion"`
}

// SessionConfig contains payment session storage and cookie settings
type SessionConfig struct {
	Driver     string        `mapstructure:"driver"` // database, redis or memory
	CookieName string        `mapstructure:"cookieName"`
	Secret     string        `mapstructure:"secret"`
	MaxAge     int           `mapstructure:"maxAge"` // seconds
	Secure     bool          `mapstructure:"secure"`
	TTL        time.Duration `mapstructure:"ttl"` // minutes
}

// RedisConfig contains redis connection settings
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"keyPrefix"`
}
