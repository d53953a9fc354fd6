package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menprac-cloud/menPrac-backend/store"
)

type createProgramRequest struct {
	LearnerID  int64  `json:"learnerId" binding:"required"`
	Title      string `json:"title" binding:"required"`
	TargetType string `json:"targetType" binding:"required"`
}

func (a *API) handleListPrograms(c *gin.Context) {
	programs, err := a.store.ProgramsByClinician(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		log.Printf("Error fetching programs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching programs"})
		return
	}
	c.JSON(http.StatusOK, programs)
}

func (a *API) handleCreateProgram(c *gin.Context) {
	var req createProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "learnerId, title and targetType are required."})
		return
	}

	ctx := c.Request.Context()

	// The learner must belong to the requesting clinician.
	learnerName, err := a.store.LearnerOwnedBy(ctx, req.LearnerID, currentUser(c).UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized. This client is not assigned to you."})
			return
		}
		log.Printf("Error creating program: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error creating program"})
		return
	}

	program, err := a.store.CreateProgram(ctx, req.LearnerID, req.Title, req.TargetType)
	if err != nil {
		log.Printf("Error creating program: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error creating program"})
		return
	}
	program.LearnerName = learnerName

	c.JSON(http.StatusCreated, program)
}
