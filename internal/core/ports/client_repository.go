package ports

import (
	"context"

	"github.com/crmhub/crm-backend/internal/core/domain"
)

// ListClientsFilter carries the optional filters for listing clients.
// Zero values mean "no filter".
type ListClientsFilter struct {
	Name         string // case-insensitive substring
	DocumentKind domain.DocumentKind
	LeadScore    *float64 // exact match
	MinLeadScore *float64 // inclusive
	MaxLeadScore *float64 // inclusive
}

// ClientRepository defines persistence operations for clients.
// Lookups that find nothing return a *domain.NotFoundError.
type ClientRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Client, error)
	// FindByUniqueField looks up a client by an already-normalized unique value.
	FindByUniqueField(ctx context.Context, field domain.UniqueField, value string) (*domain.Client, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	// Save inserts c when c.ID is zero (assigning the ID) and replaces it otherwise.
	// A unique-index violation is returned as a *domain.ConflictError.
	Save(ctx context.Context, c *domain.Client) error
	DeleteByID(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListClientsFilter) ([]*domain.Client, error)
}
