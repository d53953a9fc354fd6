package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/menprac-cloud/menPrac-backend/store"
)

type startSessionRequest struct {
	LearnerID int64 `json:"learnerId" binding:"required"`
}

type logTrialRequest struct {
	SessionID int64    `json:"sessionId" binding:"required"`
	ProgramID int64    `json:"programId" binding:"required"`
	Value     *float64 `json:"value"`
}

func (a *API) handleStartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "learnerId is required."})
		return
	}

	ctx := c.Request.Context()

	if _, err := a.store.LearnerOwnedBy(ctx, req.LearnerID, currentUser(c).UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized. This client is not assigned to you."})
			return
		}
		log.Printf("Error starting session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error starting session"})
		return
	}

	session, err := a.store.StartSession(ctx, req.LearnerID, currentUser(c).UserID)
	if err != nil {
		log.Printf("Error starting session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error starting session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": session.ID, "start_time": session.StartTime})
}

// handleSessionPrograms returns the learner and their active targets for the
// live data-collection view.
func (a *API) handleSessionPrograms(c *gin.Context) {
	learnerID, err := strconv.ParseInt(c.Param("learnerId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid learner id."})
		return
	}

	ctx := c.Request.Context()

	if _, err := a.store.LearnerOwnedBy(ctx, learnerID, currentUser(c).UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Learner not found or unauthorized"})
			return
		}
		log.Printf("Error fetching session data: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	learner, err := a.store.LearnerByID(ctx, learnerID)
	if err != nil {
		log.Printf("Error fetching session data: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	programs, err := a.store.ActiveProgramsByLearner(ctx, learnerID)
	if err != nil {
		log.Printf("Error fetching session data: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"learner": learner, "programs": programs})
}

// handleLogTrial records one data point. This is the hot write path during a
// live session; one insert, no fan-out.
func (a *API) handleLogTrial(c *gin.Context) {
	var req logTrialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId and programId are required."})
		return
	}

	ctx := c.Request.Context()

	if err := a.store.SessionOwnedBy(ctx, req.SessionID, currentUser(c).UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized. This session is not yours."})
			return
		}
		log.Printf("Error logging trial: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error logging trial"})
		return
	}

	value := 1.0
	if req.Value != nil {
		value = *req.Value
	}

	trial, err := a.store.LogTrial(ctx, req.SessionID, req.ProgramID, value)
	if err != nil {
		log.Printf("Error logging trial: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error logging trial"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": trial.ID, "timestamp": trial.Timestamp, "value": trial.Value})
}
