package ports

import (
	"context"

	"github.com/crmhub/crm-backend/internal/core/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	Save(ctx context.Context, u *domain.User) error
	List(ctx context.Context) ([]*domain.User, error)
}
