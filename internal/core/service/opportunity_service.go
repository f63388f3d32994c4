package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/crmhub/crm-backend/internal/core/domain"
	"github.com/crmhub/crm-backend/internal/core/ports"
	"github.com/crmhub/crm-backend/internal/metrics"
)

const opportunityScope = "opportunities"

type OpportunityService struct {
	repo    ports.OpportunityRepository
	clients ports.ClientRepository
	users   ports.UserRepository
	events  ports.StatusEventPublisher
	idem    idempotencyKeys
	logger  zerolog.Logger
}

// NewOpportunityService wires an OpportunityService. events and idem may be nil.
func NewOpportunityService(
	repo ports.OpportunityRepository,
	clients ports.ClientRepository,
	users ports.UserRepository,
	events ports.StatusEventPublisher,
	idem ports.IdempotencyStore,
	logger zerolog.Logger,
) *OpportunityService {
	return &OpportunityService{
		repo:    repo,
		clients: clients,
		users:   users,
		events:  events,
		idem:    idempotencyKeys{store: idem, scope: opportunityScope, logger: logger},
		logger:  logger,
	}
}

// Create resolves the client and owner references and persists a new
// opportunity. Status defaults to new and the creation date to today.
func (s *OpportunityService) Create(ctx context.Context, input ports.CreateOpportunityInput) (*ports.CreateOpportunityResult, error) {
	if id, found := s.idem.lookup(ctx, input.IdempotencyKey); found {
		existing, err := s.repo.FindByID(ctx, id)
		if err == nil {
			s.logger.Info().Str("idempotency_key", input.IdempotencyKey).Int64("opportunity_id", id).Msg("idempotent replay")
			return &ports.CreateOpportunityResult{Opportunity: existing, Replayed: true}, nil
		}
		s.logger.Warn().Err(err).Int64("opportunity_id", id).Msg("idempotent opportunity no longer available")
		if errors.Is(err, domain.ErrNotFound) {
			s.idem.forget(ctx, input.IdempotencyKey)
		}
	}

	if err := s.resolveClient(ctx, input.ClientID); err != nil {
		return nil, err
	}
	if err := s.resolveOwner(ctx, input.OwnerID); err != nil {
		return nil, err
	}
	if err := checkEstimatedValue(input.EstimatedValue); err != nil {
		return nil, err
	}
	status := input.Status.OrElse(domain.StatusNew)
	if !status.IsValid() {
		return nil, &domain.ValidationError{Code: domain.CodeUnknownStatus, Field: "status", Detail: string(status)}
	}

	now := time.Now().UTC()
	opp := &domain.Opportunity{
		Title:          input.Title,
		Description:    input.Description,
		EstimatedValue: input.EstimatedValue,
		Status:         status,
		CreationDate:   domain.DateOf(input.CreationDate.OrElse(now)),
		ClientID:       input.ClientID,
		OwnerID:        input.OwnerID,
		StatusHistory:  []domain.StatusHistoryEntry{{Status: status, Timestamp: now, Notes: "created"}},
		UpdatedAt:      now,
	}

	if err := s.repo.Save(ctx, opp); err != nil {
		s.logger.Error().Err(err).Msg("failed to create opportunity")
		return nil, err
	}

	s.idem.remember(ctx, input.IdempotencyKey, opp.ID)
	metrics.OpportunitiesCreatedTotal.Inc()
	s.logger.Info().
		Int64("opportunity_id", opp.ID).
		Int64("client_id", opp.ClientID).
		Int64("owner_id", opp.OwnerID).
		Str("status", string(opp.Status)).
		Msg("opportunity created")

	return &ports.CreateOpportunityResult{Opportunity: opp}, nil
}

// Update overwrites every field present in input. A status given here is a raw
// field write and is not checked against the lifecycle; use ChangeStatus for that.
// References are re-resolved only when they change.
func (s *OpportunityService) Update(ctx context.Context, id int64, input ports.UpdateOpportunityInput) (*domain.Opportunity, error) {
	opp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if clientID, ok := input.ClientID.Get(); ok && clientID != opp.ClientID {
		if err := s.resolveClient(ctx, clientID); err != nil {
			return nil, err
		}
		opp.ClientID = clientID
	}
	if ownerID, ok := input.OwnerID.Get(); ok && ownerID != opp.OwnerID {
		if err := s.resolveOwner(ctx, ownerID); err != nil {
			return nil, err
		}
		opp.OwnerID = ownerID
	}
	if value, ok := input.EstimatedValue.Get(); ok {
		if err := checkEstimatedValue(value); err != nil {
			return nil, err
		}
		opp.EstimatedValue = value
	}
	if title, ok := input.Title.Get(); ok {
		opp.Title = title
	}
	if description, ok := input.Description.Get(); ok {
		opp.Description = description
	}

	now := time.Now().UTC()
	if status, ok := input.Status.Get(); ok {
		if !status.IsValid() {
			return nil, &domain.ValidationError{Code: domain.CodeUnknownStatus, Field: "status", Detail: string(status)}
		}
		if status != opp.Status {
			opp.StatusHistory = append(opp.StatusHistory, domain.StatusHistoryEntry{Status: status, Timestamp: now, Notes: "overwritten by update"})
		}
		opp.Status = status
	}

	opp.UpdatedAt = now
	if err := s.repo.Save(ctx, opp); err != nil {
		s.logger.Error().Err(err).Int64("opportunity_id", id).Msg("failed to update opportunity")
		return nil, err
	}

	s.logger.Info().Int64("opportunity_id", id).Msg("opportunity updated")
	return opp, nil
}

// ChangeStatus moves an opportunity along its lifecycle. An illegal transition
// is returned untouched and nothing is persisted. On success a status-change
// event is published for the audit trail.
func (s *OpportunityService) ChangeStatus(ctx context.Context, id int64, target domain.OpportunityStatus) (*domain.Opportunity, error) {
	opp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := opp.Status
	if err := from.TransitionTo(target); err != nil {
		metrics.StatusTransitionsTotal.WithLabelValues(string(from), string(target), "rejected").Inc()
		return nil, err
	}

	now := time.Now().UTC()
	opp.Status = target
	opp.StatusHistory = append(opp.StatusHistory, domain.StatusHistoryEntry{Status: target, Timestamp: now})
	opp.UpdatedAt = now

	if err := s.repo.Save(ctx, opp); err != nil {
		s.logger.Error().Err(err).Int64("opportunity_id", id).Msg("failed to change opportunity status")
		return nil, err
	}

	metrics.StatusTransitionsTotal.WithLabelValues(string(from), string(target), "applied").Inc()
	if s.events != nil {
		s.events.Publish(domain.StatusChangeEvent{
			ID:            uuid.NewString(),
			OpportunityID: id,
			From:          from,
			To:            target,
			OccurredAt:    now,
		})
	}

	s.logger.Info().
		Int64("opportunity_id", id).
		Str("from", string(from)).
		Str("to", string(target)).
		Msg("opportunity status changed")

	return opp, nil
}

// Delete removes an opportunity. Missing opportunities yield a NotFoundError.
func (s *OpportunityService) Delete(ctx context.Context, id int64) error {
	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete opportunity: %w", err)
	}
	if !exists {
		return domain.NotFound(domain.EntityOpportunity, id)
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		s.logger.Error().Err(err).Int64("opportunity_id", id).Msg("failed to delete opportunity")
		return err
	}
	s.logger.Info().Int64("opportunity_id", id).Msg("opportunity deleted")
	return nil
}

func (s *OpportunityService) Get(ctx context.Context, id int64) (*domain.Opportunity, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *OpportunityService) List(ctx context.Context, filter ports.ListOpportunitiesFilter) ([]*domain.Opportunity, error) {
	return s.repo.List(ctx, filter)
}

func (s *OpportunityService) resolveClient(ctx context.Context, id int64) error {
	if id == 0 {
		return &domain.ValidationError{Code: domain.CodeMissingClientRef, Field: "client_id"}
	}
	exists, err := s.clients.ExistsByID(ctx, id)
	if err != nil {
		return fmt.Errorf("resolve client: %w", err)
	}
	if !exists {
		return domain.NotFound(domain.EntityClient, id)
	}
	return nil
}

func (s *OpportunityService) resolveOwner(ctx context.Context, id int64) error {
	if id == 0 {
		return &domain.ValidationError{Code: domain.CodeMissingOwnerRef, Field: "owner_id"}
	}
	exists, err := s.users.ExistsByID(ctx, id)
	if err != nil {
		return fmt.Errorf("resolve owner: %w", err)
	}
	if !exists {
		return domain.NotFound(domain.EntityUser, id)
	}
	return nil
}

func checkEstimatedValue(v decimal.Decimal) error {
	if v.IsNegative() {
		return &domain.ValidationError{Code: domain.CodeNegativeEstimatedValue, Field: "estimated_value", Detail: v.String()}
	}
	return nil
}
