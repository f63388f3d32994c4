package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusHistoryEntry records a single status change on an opportunity.
type StatusHistoryEntry struct {
	Status    OpportunityStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Notes     string            `json:"notes,omitempty"`
}

// Opportunity is a tracked sales deal. ClientID and OwnerID are plain foreign
// keys, resolved through their repositories when needed.
type Opportunity struct {
	ID             int64                `json:"id"`
	Title          string               `json:"title"`
	Description    string               `json:"description,omitempty"`
	EstimatedValue decimal.Decimal      `json:"estimated_value"`
	Status         OpportunityStatus    `json:"status"`
	CreationDate   time.Time            `json:"creation_date"`
	ClientID       int64                `json:"client_id"`
	OwnerID        int64                `json:"owner_id"`
	StatusHistory  []StatusHistoryEntry `json:"status_history"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
