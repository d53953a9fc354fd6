package realtime

import "fmt"

// Event names pushed to clients.
const (
	// EventConnected acknowledges the handshake and carries the connection ID.
	EventConnected = "connected"
	// EventReceiveMessage delivers a persisted chat message to the receiver's room.
	EventReceiveMessage = "receive_message"
	// EventLiveActivity is broadcast to every connection when a notable
	// background event occurs, such as an AI note completing.
	EventLiveActivity = "live_activity"
	// EventError reports a refused inbound frame back to its sender.
	EventError = "error"
)

// Inbound event names consumed from clients.
const (
	// EventRegisterUser asks to join a user room. The requested identity must
	// match the one authenticated at the handshake; joining is idempotent.
	EventRegisterUser = "register_user"
)

// Event is an immutable named payload delivered over the websocket. It exists
// only transiently during dispatch; nothing buffers it for absent members.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"data,omitempty"`
}

// RoomForUser maps a clinician ID to their private room name.
func RoomForUser(userID int64) string {
	return fmt.Sprintf("user_%d", userID)
}
