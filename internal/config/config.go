package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env      string         `yaml:"env"`      // Env is the current environment: local, dev, prod.
	Postgres PostgresConfig `yaml:"postgres"` // Postgres holds the database configuration.
	HTTP     HTTPConfig     `yaml:"http"`     // HTTP holds the API server configuration.
	Auth     AuthConfig     `yaml:"auth"`     // Auth holds token signing configuration.
	Uploads  UploadsConfig  `yaml:"uploads"`  // Uploads holds the file store configuration.
	Rabbit   RabbitConfig   `yaml:"rabbitmq"` // Rabbit holds the event broker configuration.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `yaml:"host"`     // Host is the database server address.
	Port     string `yaml:"port"`     // Port is the database server port.
	User     string `yaml:"user"`     // User is the database user.
	Password string `yaml:"password"` // Password is the database user's password.
	Dbname   string `yaml:"db_name"`  // Dbname is the name of the database.
}

// HTTPConfig struct holds the configuration details of the public API listener.
type HTTPConfig struct {
	Port         string        `yaml:"port"`          // Port is the API listener port.
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // ReadTimeout bounds request reading.
	WriteTimeout time.Duration `yaml:"write_timeout"` // WriteTimeout bounds response writing.
	IdleTimeout  time.Duration `yaml:"idle_timeout"`  // IdleTimeout bounds keep-alive connections.
}

// AuthConfig struct holds the token signing secret and lifetime.
type AuthConfig struct {
	Secret   string        `yaml:"secret"`    // Secret signs and verifies session tokens.
	TokenTTL time.Duration `yaml:"token_ttl"` // TokenTTL is the session token lifetime.
}

// UploadsConfig struct holds where uploaded documents and avatars land.
type UploadsConfig struct {
	Dir          string `yaml:"dir"`            // Dir is the root directory of the file store.
	MaxSizeBytes int64  `yaml:"max_size_bytes"` // MaxSizeBytes caps a single uploaded file.
}

// RabbitConfig struct holds the configuration details for the lifecycle event broker.
// An empty host disables publishing.
type RabbitConfig struct {
	Host     string `yaml:"host"`     // Host is the broker address.
	Port     string `yaml:"port"`     // Port is the broker port.
	User     string `yaml:"user"`     // User is the broker user.
	Password string `yaml:"password"` // Password is the broker user's password.
}

// MustLoad loads the configuration from a YAML file and returns a Config struct.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		panic("config path is empty")
	}

	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	viper.SetConfigFile(configPath)
	if err := viper.ReadInConfig(); err != nil {
		panic("config error: " + err.Error())
	}

	const (
		defReadTimeout   = 5 * time.Second
		defWriteTimeout  = 10 * time.Second
		defIdleTimeout   = time.Minute
		defTokenTTL      = 24 * time.Hour
		defUploadMaxSize = int64(5 << 20)
	)

	viper.SetDefault("postgres.port", "5432")
	viper.SetDefault("http.port", "8080")
	viper.SetDefault("http.read_timeout", defReadTimeout)
	viper.SetDefault("http.write_timeout", defWriteTimeout)
	viper.SetDefault("http.idle_timeout", defIdleTimeout)
	viper.SetDefault("auth.token_ttl", defTokenTTL)
	viper.SetDefault("uploads.dir", "uploads")
	viper.SetDefault("uploads.max_size_bytes", defUploadMaxSize)
	viper.SetDefault("rabbitmq.port", "5672")

	return &Config{
		Env: viper.GetString("env"),
		Postgres: PostgresConfig{
			Host:     viper.GetString("postgres.host"),
			Port:     viper.GetString("postgres.port"),
			User:     viper.GetString("postgres.user"),
			Password: viper.GetString("postgres.password"),
			Dbname:   viper.GetString("postgres.db_name"),
		},
		HTTP: HTTPConfig{
			Port:         viper.GetString("http.port"),
			ReadTimeout:  viper.GetDuration("http.read_timeout"),
			WriteTimeout: viper.GetDuration("http.write_timeout"),
			IdleTimeout:  viper.GetDuration("http.idle_timeout"),
		},
		Auth: AuthConfig{
			Secret:   viper.GetString("auth.secret"),
			TokenTTL: viper.GetDuration("auth.token_ttl"),
		},
		Uploads: UploadsConfig{
			Dir:          viper.GetString("uploads.dir"),
			MaxSizeBytes: viper.GetInt64("uploads.max_size_bytes"),
		},
		Rabbit: RabbitConfig{
			Host:     viper.GetString("rabbitmq.host"),
			Port:     viper.GetString("rabbitmq.port"),
			User:     viper.GetString("rabbitmq.user"),
			Password: viper.GetString("rabbitmq.password"),
		},
	}
}
