package domain

import "time"

// StatusChangeEvent is emitted after an opportunity status change is persisted.
type StatusChangeEvent struct {
	ID            string
	OpportunityID int64
	From          OpportunityStatus
	To            OpportunityStatus
	OccurredAt    time.Time
}
