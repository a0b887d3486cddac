package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/99minutos/business-units/internal/core/domain"
	"github.com/99minutos/business-units/internal/core/ports"
)

var _ ports.BusinessUnitRepository = (*BusinessUnitRepository)(nil)

// BusinessUnitRepository stores business units in the business_units table.
type BusinessUnitRepository struct {
	db DBTX
}

// NewBusinessUnitRepository creates a BusinessUnitRepository.
func NewBusinessUnitRepository(db DBTX) *BusinessUnitRepository {
	return &BusinessUnitRepository{db: db}
}

// Create inserts unit and sets unit.ID from the generated key. Foreign-key and
// check violations come back as domain validation errors.
func (r *BusinessUnitRepository) Create(ctx context.Context, unit *domain.BusinessUnit) error {
	// Nil parent must reach the driver as an untyped NULL.
	var parentArg any
	if unit.ParentID != nil {
		parentArg = *unit.ParentID
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO business_units (name, type, parent_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`, unit.Name, string(unit.Type), parentArg).Scan(&unit.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.ForeignKeyViolation:
				return oops.Code("BUSINESS_UNIT_PARENT_NOT_FOUND").
					With("parent_id", parentArg).
					Wrap(domain.ErrParentNotFound)
			case pgerrcode.CheckViolation:
				return oops.Code("BUSINESS_UNIT_INVALID").
					With("constraint", pgErr.ConstraintName).
					Wrap(domain.NewValidationError("business_unit", "violates constraint "+pgErr.ConstraintName))
			}
		}
		return oops.Code("BUSINESS_UNIT_CREATE_FAILED").
			With("operation", "insert business unit").
			With("name", unit.Name).
			Wrap(err)
	}
	return nil
}

// List returns every business unit ordered by id ascending.
func (r *BusinessUnitRepository) List(ctx context.Context) ([]domain.BusinessUnit, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, type, parent_id
		FROM business_units
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, oops.With("operation", "list business units").Wrap(err)
	}
	defer rows.Close()

	units := make([]domain.BusinessUnit, 0)
	for rows.Next() {
		var (
			u        domain.BusinessUnit
			unitType string
		)
		if err := rows.Scan(&u.ID, &u.Name, &unitType, &u.ParentID); err != nil {
			return nil, oops.With("operation", "scan business unit row").Wrap(err)
		}
		u.Type = domain.BusinessUnitType(unitType)
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate business units").Wrap(err)
	}
	return units, nil
}

// Exists reports whether a business unit with id is stored.
func (r *BusinessUnitRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM business_units WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, oops.With("operation", "check business unit exists").With("id", id).Wrap(err)
	}
	return exists, nil
}
