package models

import "time"

// StoredMessage is a persisted direct message between two staff members.
// The ID is a ULID assigned by the store, so lexicographic order matches
// insertion order. SentAt is server-assigned; messages are immutable once
// written.
type StoredMessage struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Content     string    `json:"content"`
	SentAt      time.Time `json:"sent_at"`
}
