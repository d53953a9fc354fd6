package api

import (
	"errors"
	"log"
	"net/http"
	"net/mail"

	"github.com/gin-gonic/gin"

	"github.com/menprac-cloud/menPrac-backend/auth"
	"github.com/menprac-cloud/menPrac-backend/metrics"
	"github.com/menprac-cloud/menPrac-backend/store"
)

type registerRequest struct {
	ClinicName string `json:"clinicName"`
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	Role       string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// setTokenCookie issues a token and attaches it as an HttpOnly cookie.
// SameSite=None because the frontend is served from a different domain.
func (a *API) setTokenCookie(c *gin.Context, user *store.User) error {
	token, err := a.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return err
	}

	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(a.cfg.Auth.CookieName, token, a.cfg.Auth.TokenTTL, "/", "", a.cfg.Auth.CookieSecure, true)
	return nil
}

func (a *API) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required."})
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address."})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) || errors.Is(err, auth.ErrPasswordTooLong) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Registration error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error during registration."})
		return
	}

	user, err := a.store.CreateUser(c.Request.Context(), req.ClinicName, req.Email, passwordHash, req.Role)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists."})
			return
		}
		log.Printf("Registration error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error during registration."})
		return
	}

	if err := a.setTokenCookie(c, user); err != nil {
		log.Printf("Token issue error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error during registration."})
		return
	}
	metrics.AuthSuccess.Inc()

	c.JSON(http.StatusCreated, gin.H{"user": user, "message": "Registration successful!"})
}

func (a *API) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required."})
		return
	}

	user, err := a.store.UserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.AuthFailures.WithLabelValues("bad_credentials").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password."})
			return
		}
		log.Printf("Login error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error during login."})
		return
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		metrics.AuthFailures.WithLabelValues("bad_credentials").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password."})
		return
	}

	if err := a.setTokenCookie(c, user); err != nil {
		log.Printf("Token issue error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error during login."})
		return
	}
	metrics.AuthSuccess.Inc()

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (a *API) handleLogout(c *gin.Context) {
	// Revoke the token so the cookie is dead even if a copy survives.
	if err := a.tokens.Revoke(c.Request.Context(), currentUser(c)); err != nil {
		log.Printf("Token revocation failed: %v", err)
	}

	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(a.cfg.Auth.CookieName, "", -1, "/", "", a.cfg.Auth.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
