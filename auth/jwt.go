package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/menprac-cloud/menPrac-backend/config"
)

var (
	// ErrInvalidToken is returned when the token fails signature or claim checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
	// ErrRevokedToken is returned when the token appears on the revocation list.
	ErrRevokedToken = errors.New("token has been revoked")
)

// Claims carries the authenticated clinician identity. The 'jti' from
// RegisteredClaims is used for token revocation on logout.
type Claims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates the JWT carried by the auth cookie and
// by the websocket handshake. Revoked token IDs are kept in Redis until the
// token would have expired anyway.
type TokenManager struct {
	cfg         *config.AuthConfig
	redisClient *redis.Client
}

// NewTokenManager creates a new token manager.
func NewTokenManager(cfg *config.AuthConfig, redisClient *redis.Client) *TokenManager {
	return &TokenManager{
		cfg:         cfg,
		redisClient: redisClient,
	}
}

// Issue creates a signed token for the given clinician.
func (m *TokenManager) Issue(userID int64, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(m.cfg.TokenTTL) * time.Second)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.cfg.JWTSecret))
}

// Validate parses and validates a JWT string. It checks the signature,
// standard claims (like expiration), and the revocation list in Redis.
func (m *TokenManager) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.cfg.JWTSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	isRevoked, err := m.isTokenRevoked(ctx, claims.ID)
	if err != nil {
		// Log the error but don't block login, to prevent a Redis outage from
		// locking every user out.
		log.Printf("CRITICAL: Failed to check token revocation status: %v", err)
	}
	if isRevoked {
		return nil, ErrRevokedToken
	}

	return claims, nil
}

// Revoke places the token's JTI on the revocation list until the token's own
// expiry, after which the entry is pointless and allowed to lapse.
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	if m.redisClient == nil || claims.ID == "" {
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}

	key := fmt.Sprintf("%s:%s", m.cfg.RevocationListKey, claims.ID)
	return m.redisClient.Set(ctx, key, "1", ttl).Err()
}

// isTokenRevoked checks if a token ID (JTI) is in the Redis revocation list.
func (m *TokenManager) isTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if m.redisClient == nil || jti == "" {
		// If no Redis or JTI, we cannot check revocation.
		// This is a "fail-open" approach. Log if JTI is missing.
		if jti == "" {
			log.Println("Warning: JWT token is missing 'jti' claim, cannot check for revocation.")
		}
		return false, nil
	}

	key := fmt.Sprintf("%s:%s", m.cfg.RevocationListKey, jti)
	exists, err := m.redisClient.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis command failed: %w", err)
	}

	return exists == 1, nil
}
