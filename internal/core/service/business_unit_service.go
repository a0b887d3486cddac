package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/99minutos/business-units/internal/core/domain"
	"github.com/99minutos/business-units/internal/core/ports"
)

type BusinessUnitService struct {
	repo   ports.BusinessUnitRepository
	logger zerolog.Logger
}

func NewBusinessUnitService(repo ports.BusinessUnitRepository, logger zerolog.Logger) *BusinessUnitService {
	return &BusinessUnitService{repo: repo, logger: logger}
}

// Create validates and stores a business unit. A parent must already exist,
// which rules out self-references and cycles since units are never re-parented.
func (s *BusinessUnitService) Create(ctx context.Context, input ports.CreateBusinessUnitInput) (*domain.BusinessUnit, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	if strings.TrimSpace(input.Type) == "" {
		return nil, domain.NewValidationError("type", "is required")
	}
	unitType := domain.BusinessUnitType(strings.TrimSpace(input.Type))
	if !unitType.Valid() {
		return nil, domain.NewValidationError("type", "must be one of: group company branch")
	}

	if input.ParentID != nil {
		if *input.ParentID <= 0 {
			return nil, domain.NewValidationError("parent_id", "must be a positive id")
		}
		exists, err := s.repo.Exists(ctx, *input.ParentID)
		if err != nil {
			return nil, domain.Internal("check parent business unit", err)
		}
		if !exists {
			return nil, domain.ErrParentNotFound
		}
	}

	unit := &domain.BusinessUnit{
		Name:     name,
		Type:     unitType,
		ParentID: input.ParentID,
	}
	if err := s.repo.Create(ctx, unit); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("name", name).Msg("failed to create business unit")
		return nil, domain.Internal("create business unit", err)
	}

	s.logger.Info().Int64("id", unit.ID).Str("type", string(unit.Type)).Msg("business unit created")
	return unit, nil
}

// List returns every business unit ordered by id ascending.
func (s *BusinessUnitService) List(ctx context.Context) ([]domain.BusinessUnit, error) {
	units, err := s.repo.List(ctx)
	if err != nil {
		return nil, domain.Internal("list business units", err)
	}
	if units == nil {
		units = []domain.BusinessUnit{}
	}
	return units, nil
}
