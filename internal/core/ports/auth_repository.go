package ports

import (
	"context"

	"github.com/99minutos/business-units/internal/core/domain"
)

// UserRepository defines the credential store. Implementations must enforce
// email uniqueness themselves and report a violation as domain.ErrUserExists.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
