package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/menprac-cloud/menPrac-backend/store"
)

type createLearnerRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	DOB       string `json:"dob" binding:"required"` // YYYY-MM-DD
}

func (a *API) handleListLearners(c *gin.Context) {
	learners, err := a.store.LearnersByClinician(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		log.Printf("Error fetching learners: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching learners"})
		return
	}
	c.JSON(http.StatusOK, learners)
}

func (a *API) handleCreateLearner(c *gin.Context) {
	var req createLearnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "firstName, lastName and dob are required."})
		return
	}

	dob, err := time.Parse("2006-01-02", req.DOB)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dob must be formatted YYYY-MM-DD."})
		return
	}

	learner, err := a.store.CreateLearner(c.Request.Context(), currentUser(c).UserID, req.FirstName, req.LastName, dob)
	if err != nil {
		log.Printf("Error creating learner: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error creating learner"})
		return
	}
	c.JSON(http.StatusCreated, learner)
}

// handleLearnerProfile returns the learner record, completed-session notes
// and the aggregated trial series for the progress graph.
func (a *API) handleLearnerProfile(c *gin.Context) {
	learnerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid learner id."})
		return
	}

	ctx := c.Request.Context()

	if _, err := a.store.LearnerOwnedBy(ctx, learnerID, currentUser(c).UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Learner not found"})
			return
		}
		log.Printf("Error fetching profile: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching profile"})
		return
	}

	learner, err := a.store.LearnerByID(ctx, learnerID)
	if err != nil {
		log.Printf("Error fetching profile: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching profile"})
		return
	}

	notes, err := a.store.CompletedSessionNotes(ctx, learnerID)
	if err != nil {
		log.Printf("Error fetching profile: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching profile"})
		return
	}

	totals, err := a.store.TrialTotalsByProgram(ctx, learnerID)
	if err != nil {
		log.Printf("Error fetching profile: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"learner":   learner,
		"sessions":  notes,
		"graphData": buildGraphData(totals),
	})
}

// buildGraphData pivots the per-day, per-program totals into one point per
// day with a key per program, the shape the charting frontend consumes:
// [{"date": "Feb 22", "Manding": 15, "Tantrum": 2}, ...].
func buildGraphData(totals []store.TrialTotal) []map[string]any {
	points := []map[string]any{}
	index := map[string]map[string]any{}
	for _, t := range totals {
		point, ok := index[t.Date]
		if !ok {
			point = map[string]any{"date": t.Date}
			index[t.Date] = point
			points = append(points, point)
		}
		point[t.Program] = t.Total
	}
	return points
}
