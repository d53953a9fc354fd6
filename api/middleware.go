package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/menprac-cloud/menPrac-backend/auth"
	"github.com/menprac-cloud/menPrac-backend/metrics"
)

const claimsContextKey = "authClaims"

// requireAuth validates the JWT auth cookie and stores the claims on the
// request context. Browser clients never see the token; it lives in an
// HttpOnly cookie.
func (a *API) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(a.cfg.Auth.CookieName)
		if err != nil || tokenString == "" {
			metrics.AuthFailures.WithLabelValues("missing_cookie").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated."})
			return
		}

		claims, err := a.tokens.Validate(c.Request.Context(), tokenString)
		if err != nil {
			metrics.AuthFailures.WithLabelValues("invalid_token").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired. Please log in again."})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// currentUser returns the authenticated claims set by requireAuth.
func currentUser(c *gin.Context) *auth.Claims {
	return c.MustGet(claimsContextKey).(*auth.Claims)
}

// secureHeaders sets a conservative set of browser security headers.
func secureHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		c.Next()
	}
}

// corsMiddleware allows the configured frontend origins with credentials.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Set("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// metricsMiddleware counts requests by method, route template and status.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}
