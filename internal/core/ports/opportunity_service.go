package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crmhub/crm-backend/internal/core/domain"
	"github.com/crmhub/crm-backend/pkg/optional"
)

// CreateOpportunityInput carries all data needed to create an opportunity.
type CreateOpportunityInput struct {
	Title          string
	Description    string
	EstimatedValue decimal.Decimal
	Status         optional.Value[domain.OpportunityStatus] // defaults to new
	CreationDate   optional.Value[time.Time]                // defaults to today
	ClientID       int64
	OwnerID        int64
	IdempotencyKey string
}

// UpdateOpportunityInput is a whole-record style update: every present field
// overwrites the stored one. Status is written as-is, without lifecycle checks.
type UpdateOpportunityInput struct {
	Title          optional.Value[string]
	Description    optional.Value[string]
	EstimatedValue optional.Value[decimal.Decimal]
	Status         optional.Value[domain.OpportunityStatus]
	ClientID       optional.Value[int64]
	OwnerID        optional.Value[int64]
}

// CreateOpportunityResult wraps the created opportunity.
type CreateOpportunityResult struct {
	Opportunity *domain.Opportunity
	Replayed    bool
}

// OpportunityService defines use-case operations for opportunities.
type OpportunityService interface {
	Create(ctx context.Context, input CreateOpportunityInput) (*CreateOpportunityResult, error)
	Update(ctx context.Context, id int64, input UpdateOpportunityInput) (*domain.Opportunity, error)
	// ChangeStatus is the only operation that enforces the status lifecycle.
	ChangeStatus(ctx context.Context, id int64, target domain.OpportunityStatus) (*domain.Opportunity, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Opportunity, error)
	List(ctx context.Context, filter ListOpportunitiesFilter) ([]*domain.Opportunity, error)
}
