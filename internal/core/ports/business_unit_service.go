package ports

import (
	"context"

	"github.com/99minutos/business-units/internal/core/domain"
)

// CreateBusinessUnitInput carries the fields accepted on creation.
type CreateBusinessUnitInput struct {
	Name     string
	Type     string
	ParentID *int64
}

type BusinessUnitService interface {
	Create(ctx context.Context, input CreateBusinessUnitInput) (*domain.BusinessUnit, error)
	List(ctx context.Context) ([]domain.BusinessUnit, error)
}
