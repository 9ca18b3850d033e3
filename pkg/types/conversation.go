package types

import "time"

// ConversationSummary is the per-counterpart view of a user's messages.
type ConversationSummary struct {
	CounterpartID    int64     `json:"counterpart_id"`
	CounterpartName  string    `json:"counterpart_name"`
	CounterpartPhoto string    `json:"counterpart_photo,omitempty"`
	PreviewText      string    `json:"preview_text"`
	PreviewAt        time.Time `json:"preview_at"`
	Unread           int       `json:"unread"` // unread messages from the counterpart
}
