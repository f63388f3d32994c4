package ports

import (
	"context"

	"github.com/crmhub/crm-backend/internal/core/domain"
)

// UserInput carries the fields of a user for create and update.
type UserInput struct {
	Name     string
	Email    string
	Phone    string
	PhotoURL string
	Role     string
}

// UserService defines use-case operations for users.
type UserService interface {
	Create(ctx context.Context, input UserInput) (*domain.User, error)
	Update(ctx context.Context, id int64, input UserInput) (*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}
