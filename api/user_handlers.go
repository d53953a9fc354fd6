package api

import (
	"errors"
	"log"
	"net/http"
	"net/mail"

	"github.com/gin-gonic/gin"

	"github.com/menprac-cloud/menPrac-backend/store"
)

type updateProfileRequest struct {
	ClinicName string `json:"clinicName" binding:"required"`
	Email      string `json:"email" binding:"required"`
}

func (a *API) handleGetProfile(c *gin.Context) {
	user, err := a.store.UserByID(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		log.Printf("Error fetching user profile: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching profile"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (a *API) handleUpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "clinicName and email are required."})
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address."})
		return
	}

	user, err := a.store.UpdateUserProfile(c.Request.Context(), currentUser(c).UserID, req.ClinicName, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists."})
			return
		}
		log.Printf("Error updating user profile: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error updating profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}
