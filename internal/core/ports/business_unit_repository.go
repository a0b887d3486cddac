package ports

import (
	"context"

	"github.com/99minutos/business-units/internal/core/domain"
)

// BusinessUnitRepository persists business units.
type BusinessUnitRepository interface {
	// Create inserts unit and sets its ID.
	Create(ctx context.Context, unit *domain.BusinessUnit) error
	// List returns all units ordered by id ascending.
	List(ctx context.Context) ([]domain.BusinessUnit, error)
	Exists(ctx context.Context, id int64) (bool, error)
}
