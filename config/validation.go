package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func (c *AppConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	if c.Database.URL == "" {
		return errors.New("database.url must be configured")
	}

	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == "default-secret" {
		return errors.New("auth.jwtSecret must be set to a strong secret")
	}
	if c.Auth.CookieName == "" {
		return errors.New("auth.cookieName must be configured")
	}
	if c.Auth.TokenTTL < 60 {
		return errors.New("auth.tokenTTL must be at least 60 seconds")
	}

	// Validate broker configuration
	switch strings.ToLower(c.Broker.Type) {
	case "none":
		// Single-instance deployment, no cross-instance fan-out.
	case "redis":
		if c.Redis.Address == "" {
			return errors.New("redis address must be specified for redis broker")
		}
		if c.Broker.Topic == "" {
			return errors.New("broker topic must be configured for redis broker")
		}
	case "kafka":
		if len(c.Broker.Kafka.Brokers) == 0 {
			return errors.New("kafka brokers must be specified for kafka broker")
		}
		if c.Broker.Kafka.GroupID == "" {
			return errors.New("kafka groupID must be specified for kafka broker")
		}
	default:
		return fmt.Errorf("invalid broker type: %s. Must be 'none', 'redis' or 'kafka'", c.Broker.Type)
	}

	if c.WebSocket.PingInterval >= c.WebSocket.ActivityTimeout {
		return errors.New("ping interval should be less than activity timeout")
	}

	if c.WebSocket.PresenceTTL <= c.WebSocket.ActivityTimeout {
		return errors.New("presence TTL should be greater than activity timeout")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.APIRequests < 1 || c.RateLimit.AuthRequests < 1 {
			return errors.New("rate limit request counts must be positive")
		}
		if c.RateLimit.APIWindow < 1 || c.RateLimit.AuthWindow < 1 {
			return errors.New("rate limit windows must be positive")
		}
	}

	if c.AI.APIKey != "" && c.AI.Model == "" {
		return errors.New("ai.model must be configured when an API key is set")
	}

	return nil
}

func bindEnvVars() {
	// Server
	viper.BindEnv("server.port", "MENPRAC_PORT")

	// Database
	viper.BindEnv("database.url", "MENPRAC_DATABASE_URL")
	viper.BindEnv("database.bootstrapSchema", "MENPRAC_DATABASE_BOOTSTRAP")

	// Redis
	viper.BindEnv("redis.address", "MENPRAC_REDIS_ADDRESS")
	viper.BindEnv("redis.password", "MENPRAC_REDIS_PASSWORD")

	// Auth
	viper.BindEnv("auth.jwtSecret", "MENPRAC_JWT_SECRET")
	viper.BindEnv("auth.cookieSecure", "MENPRAC_COOKIE_SECURE")
	viper.BindEnv("auth.revocationListKey", "MENPRAC_AUTH_REVOCATION_KEY")

	// Broker
	viper.BindEnv("broker.type", "MENPRAC_BROKER_TYPE")
	viper.BindEnv("broker.topic", "MENPRAC_BROKER_TOPIC")
	viper.BindEnv("broker.kafka.brokers", "MENPRAC_KAFKA_BROKERS")
	viper.BindEnv("broker.kafka.groupID", "MENPRAC_KAFKA_GROUPID")

	// WebSocket
	viper.BindEnv("websocket.pingInterval", "MENPRAC_WS_PING_INTERVAL")
	viper.BindEnv("websocket.activityTimeout", "MENPRAC_WS_ACTIVITY_TIMEOUT")
	viper.BindEnv("websocket.writeTimeout", "MENPRAC_WS_WRITE_TIMEOUT")
	viper.BindEnv("websocket.presenceTTL", "MENPRAC_WS_PRESENCE_TTL")

	// AI
	viper.BindEnv("ai.apiKey", "GEMINI_API_KEY")
	viper.BindEnv("ai.model", "MENPRAC_AI_MODEL")
	viper.BindEnv("ai.endpoint", "MENPRAC_AI_ENDPOINT")
}
