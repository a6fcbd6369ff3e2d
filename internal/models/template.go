package models

import (
	"time"

	"github.com/crucial707/hci-dispatch/internal/schedule"
)

// Template is a schedulable message template. Content fields are opaque to the
// dispatch engine; rendering and recipient resolution happen downstream.
type Template struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Subject   string          `json:"subject"`
	Body      string          `json:"body,omitempty"`
	Schedule  schedule.Record `json:"schedule"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
