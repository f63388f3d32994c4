package ports

import (
	"context"

	"github.com/crmhub/crm-backend/internal/core/domain"
)

// StatusEventRecorder persists status-change events to the audit trail.
type StatusEventRecorder interface {
	Record(ctx context.Context, event domain.StatusChangeEvent) error
}
