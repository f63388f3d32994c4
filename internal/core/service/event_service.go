package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/crmhub/crm-backend/internal/core/domain"
	"github.com/crmhub/crm-backend/internal/core/ports"
	"github.com/crmhub/crm-backend/internal/metrics"
)

type statusEventService struct {
	recorder ports.StatusEventRecorder
	log      zerolog.Logger
}

// NewStatusEventService returns a StatusEventHandler that writes events to the
// audit trail.
func NewStatusEventService(recorder ports.StatusEventRecorder, log zerolog.Logger) ports.StatusEventHandler {
	return &statusEventService{recorder: recorder, log: log}
}

// Handle persists a single status-change event.
func (s *statusEventService) Handle(ctx context.Context, event domain.StatusChangeEvent) error {
	start := time.Now()
	defer func() {
		metrics.StatusEventRecordDuration.Observe(time.Since(start).Seconds())
	}()

	if event.OpportunityID == 0 || !event.To.IsValid() {
		metrics.StatusEventsRecordedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("handle status event %s: malformed event", event.ID)
	}

	if err := s.recorder.Record(ctx, event); err != nil {
		metrics.StatusEventsRecordedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("handle status event %s: %w", event.ID, err)
	}

	metrics.StatusEventsRecordedTotal.WithLabelValues("ok").Inc()
	s.log.Debug().
		Str("event_id", event.ID).
		Int64("opportunity_id", event.OpportunityID).
		Str("from", string(event.From)).
		Str("to", string(event.To)).
		Msg("status event recorded")
	return nil
}
