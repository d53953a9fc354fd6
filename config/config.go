package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	WebSocket WebSocketConfig
	Broker    BrokerConfig
	RateLimit RateLimitConfig
	AI        AIConfig
	Metrics   MetricsConfig
}

type ServerConfig struct {
	Port           int
	ReadTimeout    int // Seconds
	WriteTimeout   int // Seconds
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL             string
	MaxConns        int
	ConnectTimeout  int // Seconds
	BootstrapSchema bool
}

type RedisConfig struct {
	Address     string
	Password    string
	DB          int
	PoolSize    int
	PoolTimeout int // Seconds
}

type AuthConfig struct {
	JWTSecret         string
	CookieName        string
	CookieSecure      bool
	TokenTTL          int // Seconds
	TokenQueryParam   string
	RevocationListKey string
}

type WebSocketConfig struct {
	MessageSizeLimit int
	PingInterval     int // Seconds
	ActivityTimeout  int // Seconds
	WriteTimeout     int // Seconds
	KeepAlive        bool
	PresenceTTL      int // Seconds
}

type BrokerConfig struct {
	Type  string // "none", "redis" or "kafka"
	Topic string
	Kafka KafkaConfig
}

type KafkaConfig struct {
	Brokers []string
	GroupID string
}

type RateLimitConfig struct {
	Enabled      bool
	APIRequests  int
	APIWindow    int // Seconds
	AuthRequests int
	AuthWindow   int // Seconds
}

type AIConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  int // Seconds
}

type MetricsConfig struct {
	Enabled bool
	Port    int
	Path    string
}

var (
	instance *AppConfig
	once     sync.Once
)

func Initialize(env string) error {
	var initErr error
	once.Do(func() {
		viper.SetConfigName(fmt.Sprintf("config.%s", env))
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")

		viper.AutomaticEnv()
		viper.SetEnvPrefix("MENPRAC")

		setDefaults()
		bindEnvVars()

		if err := viper.ReadInConfig(); err != nil {
			// The config file is optional; env vars and defaults cover everything.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				initErr = fmt.Errorf("config file error: %w", err)
				return
			}
		}

		if err := viper.Unmarshal(&instance); err != nil {
			initErr = fmt.Errorf("config unmarshal error: %w", err)
			return
		}

		if err := instance.Validate(); err != nil {
			initErr = fmt.Errorf("config validation failed: %w", err)
			return
		}
	})
	return initErr
}

func Get() *AppConfig {
	return instance
}
