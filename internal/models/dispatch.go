package models

import "time"

// Dispatch outcomes recorded per attempt.
const (
	DispatchStatusSent   = "sent"
	DispatchStatusFailed = "failed"
)

// DispatchEntry represents one dispatch log row.
type DispatchEntry struct {
	ID         int       `json:"id"`
	TemplateID int       `json:"template_id"`
	FiredAt    time.Time `json:"fired_at"`
	Status     string    `json:"status"` // sent, failed
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
