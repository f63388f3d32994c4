package ports

import (
	"context"

	"github.com/crmhub/crm-backend/internal/core/domain"
)

// StatusEventPublisher hands status-change events to the audit pipeline.
// Implementations must not block the caller beyond a bounded buffer.
type StatusEventPublisher interface {
	Publish(event domain.StatusChangeEvent)
}

// StatusEventHandler consumes status-change events off the request path.
type StatusEventHandler interface {
	Handle(ctx context.Context, event domain.StatusChangeEvent) error
}
