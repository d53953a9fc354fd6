package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/menprac-cloud/menPrac-backend/realtime"
)

type sendMessageRequest struct {
	ReceiverID int64  `json:"receiverId" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

func (a *API) handleContacts(c *gin.Context) {
	contacts, err := a.store.Contacts(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		log.Printf("Error fetching contacts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch contacts"})
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (a *API) handleMessageHistory(c *gin.Context) {
	contactID, err := strconv.ParseInt(c.Param("contactId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contact id."})
		return
	}

	messages, err := a.store.MessagesBetween(c.Request.Context(), currentUser(c).UserID, contactID)
	if err != nil {
		log.Printf("Error fetching messages: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// handleSendMessage persists the message, then pushes it into the receiver's
// room. Delivery is best-effort: an offline receiver reconciles through the
// history endpoint on reconnect.
func (a *API) handleSendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receiverId and content are required."})
		return
	}

	message, err := a.store.CreateMessage(c.Request.Context(), currentUser(c).UserID, req.ReceiverID, req.Content)
	if err != nil {
		log.Printf("Error sending message: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	// Persistence succeeded; only now is the notification dispatched.
	a.dispatcher.EmitToRoom(c.Request.Context(), realtime.RoomForUser(req.ReceiverID), realtime.Event{
		Name:    realtime.EventReceiveMessage,
		Payload: message,
	})

	c.JSON(http.StatusCreated, message)
}
