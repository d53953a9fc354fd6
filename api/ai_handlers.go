package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/menprac-cloud/menPrac-backend/ai"
	"github.com/menprac-cloud/menPrac-backend/metrics"
	"github.com/menprac-cloud/menPrac-backend/realtime"
	"github.com/menprac-cloud/menPrac-backend/store"
)

type generateNoteRequest struct {
	SessionID       int64          `json:"sessionId" binding:"required"`
	SessionDuration int            `json:"sessionDuration"`
	Behaviors       map[string]any `json:"behaviors"`
	Skills          map[string]any `json:"skills"`
}

// handleGenerateNote drafts a clinical note for a session via the external
// text-generation service, persists it, and broadcasts a live-activity event
// to every connected clinician.
func (a *API) handleGenerateNote(c *gin.Context) {
	var req generateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID is required to generate a note."})
		return
	}

	ctx := c.Request.Context()

	if err := a.store.SessionOwnedBy(ctx, req.SessionID, currentUser(c).UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized. This session is not yours."})
			return
		}
		log.Printf("Error generating note: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error generating note"})
		return
	}

	note, err := a.notes.GenerateNote(ctx, ai.SessionData{
		DurationMinutes: req.SessionDuration,
		Behaviors:       req.Behaviors,
		Skills:          req.Skills,
	})
	if err != nil {
		metrics.NoteGenerationFailures.Inc()
		log.Printf("Note generation failed for session %d: %v", req.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate AI session note. Please check your API key and model limits.",
		})
		return
	}

	if _, err := a.store.CompleteSessionWithNote(ctx, req.SessionID, note); err != nil {
		log.Printf("Failed to persist note for session %d: %v", req.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error saving note"})
		return
	}
	metrics.NotesGenerated.Inc()

	// Note persisted; let everyone watching the live feed know.
	a.dispatcher.EmitToAll(ctx, realtime.Event{
		Name: realtime.EventLiveActivity,
		Payload: gin.H{
			"id":   uuid.New().String(),
			"text": fmt.Sprintf("AI successfully drafted a clinical note for session #%d.", req.SessionID),
			"time": time.Now().Format(store.ClockTime),
		},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Note generated successfully", "note": note})
}
