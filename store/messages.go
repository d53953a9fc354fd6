package store

import (
	"context"
	"fmt"
)

// MessagesBetween returns the chat history between two clinicians in send
// order.
func (s *Store) MessagesBetween(ctx context.Context, myID, contactID int64) ([]Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, sender_id, receiver_id, content, is_read, sent_at
		 FROM messages
		 WHERE (sender_id = $1 AND receiver_id = $2)
		    OR (sender_id = $2 AND receiver_id = $1)
		 ORDER BY sent_at ASC`,
		myID, contactID,
	)
	if err != nil {
		return nil, fmt.Errorf("messages between: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.IsRead, &m.SentAt); err != nil {
			return nil, fmt.Errorf("messages scan: %w", err)
		}
		m.Time = m.SentAt.Format(ClockTime)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CreateMessage persists a chat message. Dispatching the realtime
// notification is the handler's job, and only after this succeeds.
func (s *Store) CreateMessage(ctx context.Context, senderID, receiverID int64, content string) (*Message, error) {
	var m Message
	err := s.db.QueryRow(ctx,
		`INSERT INTO messages (sender_id, receiver_id, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, sender_id, receiver_id, content, is_read, sent_at`,
		senderID, receiverID, content,
	).Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.IsRead, &m.SentAt)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	m.Time = m.SentAt.Format(ClockTime)
	return &m, nil
}
