package ports

import (
	"context"

	"github.com/crmhub/crm-backend/internal/core/domain"
)

// ListOpportunitiesFilter carries the optional filters for listing opportunities.
type ListOpportunitiesFilter struct {
	Status   domain.OpportunityStatus
	ClientID int64
	OwnerID  int64
	Title    string // case-insensitive substring
}

// OpportunityRepository defines persistence operations for opportunities.
type OpportunityRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Opportunity, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	Save(ctx context.Context, o *domain.Opportunity) error
	DeleteByID(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListOpportunitiesFilter) ([]*domain.Opportunity, error)
}
