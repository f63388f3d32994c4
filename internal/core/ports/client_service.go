package ports

import (
	"context"

	"github.com/crmhub/crm-backend/internal/core/domain"
	"github.com/crmhub/crm-backend/pkg/optional"
)

// CreateClientInput carries all data needed to create a client.
// Empty strings mean "not supplied".
type CreateClientInput struct {
	Name                 string
	Email                string
	Phone                string
	PhotoURL             string
	PersonalDocument     string
	OrganizationDocument string
	LeadScore            float64
	IdempotencyKey       string
}

// UpdateClientInput is a partial update. An absent field leaves the stored
// value untouched; an empty string clears it. Empty documents count as absent.
type UpdateClientInput struct {
	Name                 optional.Value[string]
	Email                optional.Value[string]
	Phone                optional.Value[string]
	PhotoURL             optional.Value[string]
	PersonalDocument     optional.Value[string]
	OrganizationDocument optional.Value[string]
	LeadScore            optional.Value[float64]
}

// CreateClientResult wraps the created client.
type CreateClientResult struct {
	Client *domain.Client
	// Replayed is true when the idempotency key matched an earlier create.
	Replayed bool
}

// ClientService defines use-case operations for clients.
type ClientService interface {
	Create(ctx context.Context, input CreateClientInput) (*CreateClientResult, error)
	Update(ctx context.Context, id int64, input UpdateClientInput) (*domain.Client, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Client, error)
	// FindByUniqueField normalizes value before looking it up.
	FindByUniqueField(ctx context.Context, field domain.UniqueField, value string) (*domain.Client, error)
	List(ctx context.Context, filter ListClientsFilter) ([]*domain.Client, error)
}
