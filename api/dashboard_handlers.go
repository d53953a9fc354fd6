package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menprac-cloud/menPrac-backend/store"
)

type createAppointmentRequest struct {
	LearnerID int64  `json:"learnerId" binding:"required"`
	Date      string `json:"date" binding:"required"`      // YYYY-MM-DD
	StartTime string `json:"startTime" binding:"required"` // HH:MM
	EndTime   string `json:"endTime" binding:"required"`   // HH:MM
}

// handleDashboard aggregates everything the clinician's landing view needs.
func (a *API) handleDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	clinicianID := currentUser(c).UserID

	user, err := a.store.UserByID(ctx, clinicianID)
	if err != nil {
		log.Printf("Error fetching dashboard: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching dashboard"})
		return
	}

	learners, err := a.store.LearnersByClinician(ctx, clinicianID)
	if err != nil {
		log.Printf("Error fetching dashboard: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching dashboard"})
		return
	}

	schedule, err := a.store.AppointmentsToday(ctx, clinicianID)
	if err != nil {
		log.Printf("Error fetching dashboard: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching dashboard"})
		return
	}

	actions, err := a.store.OpenActionItems(ctx, clinicianID)
	if err != nil {
		log.Printf("Error fetching dashboard: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching dashboard"})
		return
	}

	mastered, err := a.store.MasteredTargetsCount(ctx, clinicianID)
	if err != nil {
		// A missing count should not take the whole dashboard down.
		log.Printf("Error counting mastered targets: %v", err)
		mastered = 0
	}

	clinicianName := user.ClinicName
	if clinicianName == "" {
		clinicianName = "Clinician"
	}

	caseload := make([]gin.H, 0, len(learners))
	for _, l := range learners {
		caseload = append(caseload, gin.H{
			"id":     l.ID,
			"name":   l.FirstName + " " + l.LastName,
			"status": l.Status,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"clinicianName": clinicianName,
		"metrics": gin.H{
			"activeLearners":    len(learners),
			"appointmentsToday": len(schedule),
			"pendingActions":    len(actions),
			"masteredTargets":   mastered,
		},
		"schedule":    schedule,
		"actionItems": actions,
		"caseload":    caseload,
	})
}

func (a *API) handleCreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "learnerId, date, startTime and endTime are required."})
		return
	}

	ctx := c.Request.Context()

	if _, err := a.store.LearnerOwnedBy(ctx, req.LearnerID, currentUser(c).UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized. This client is not assigned to you."})
			return
		}
		log.Printf("Error creating appointment: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error creating appointment"})
		return
	}

	appointment, err := a.store.CreateAppointment(ctx, req.LearnerID, currentUser(c).UserID, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		log.Printf("Error creating appointment: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error creating appointment"})
		return
	}

	c.JSON(http.StatusCreated, appointment)
}
