package types

import "time"

// Message is a direct message from one user to another. Messages are
// append-only except for the read flag.
type Message struct {
	MessageID   int64     `json:"id"`
	SenderID    int64     `json:"sender_id"`
	RecipientID int64     `json:"recipient_id"`
	Content     string    `json:"content"`
	SentAt      time.Time `json:"sent_at"`
	IsRead      bool      `json:"is_read"`
}

// Counterpart returns the participant other than userID.
func (m *Message) Counterpart(userID int64) int64 {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}
