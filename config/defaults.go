package config

import "github.com/spf13/viper"

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.readTimeout", 15)
	viper.SetDefault("server.writeTimeout", 15)
	viper.SetDefault("server.allowedOrigins", []string{
		"http://localhost:3000",
		"http://localhost:3001",
		"https://menprac.com",
		"https://www.menprac.com",
	})

	// Database
	viper.SetDefault("database.url", "postgres://localhost:5432/menprac?sslmode=disable")
	viper.SetDefault("database.maxConns", 10)
	viper.SetDefault("database.connectTimeout", 5)
	viper.SetDefault("database.bootstrapSchema", false)

	// Redis
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.poolSize", 100)
	viper.SetDefault("redis.poolTimeout", 5)

	// Auth
	viper.SetDefault("auth.jwtSecret", "default-secret")
	viper.SetDefault("auth.cookieName", "aura_token")
	viper.SetDefault("auth.cookieSecure", true)
	viper.SetDefault("auth.tokenTTL", 86400) // 1 day, same as the cookie
	viper.SetDefault("auth.tokenQueryParam", "token")
	viper.SetDefault("auth.revocationListKey", "jwt:revoked")

	// WebSocket
	viper.SetDefault("websocket.messageSizeLimit", 2048)
	viper.SetDefault("websocket.pingInterval", 25)
	viper.SetDefault("websocket.activityTimeout", 60)
	viper.SetDefault("websocket.writeTimeout", 10)
	viper.SetDefault("websocket.keepAlive", true)
	viper.SetDefault("websocket.presenceTTL", 90)

	// Broker (cross-instance event fan-out)
	viper.SetDefault("broker.type", "none")
	viper.SetDefault("broker.topic", "realtime-events")

	// Rate limiting
	viper.SetDefault("rateLimit.enabled", true)
	viper.SetDefault("rateLimit.apiRequests", 200)
	viper.SetDefault("rateLimit.apiWindow", 900) // 15 minutes
	viper.SetDefault("rateLimit.authRequests", 15)
	viper.SetDefault("rateLimit.authWindow", 3600) // 1 hour

	// AI note generation
	viper.SetDefault("ai.model", "gemini-2.5-flash")
	viper.SetDefault("ai.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("ai.timeout", 60)

	// Metrics
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)
	viper.SetDefault("metrics.path", "/metrics")
}
