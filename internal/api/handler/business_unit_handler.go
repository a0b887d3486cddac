package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/business-units/internal/api/metrics"
	"github.com/99minutos/business-units/internal/core/ports"
)

type BusinessUnitHandler struct {
	service ports.BusinessUnitService
}

func NewBusinessUnitHandler(service ports.BusinessUnitService) *BusinessUnitHandler {
	return &BusinessUnitHandler{service: service}
}

type createBusinessUnitRequest struct {
	Name     string `json:"name" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=group company branch"`
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
}

// Create stores a business unit.
//
// @Summary      Create a business unit
// @Tags         business-units
// @Accept       json
// @Produce      json
// @Param        body  body      createBusinessUnitRequest  true  "Business unit"
// @Success      201   {object}  domain.BusinessUnit
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/business-units [post]
func (h *BusinessUnitHandler) Create(c echo.Context) error {
	var req createBusinessUnitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	unit, err := h.service.Create(c.Request().Context(), ports.CreateBusinessUnitInput{
		Name:     req.Name,
		Type:     req.Type,
		ParentID: req.ParentID,
	})
	if err != nil {
		return err
	}

	metrics.BusinessUnitsCreatedTotal.WithLabelValues(string(unit.Type)).Inc()
	return c.JSON(http.StatusCreated, unit)
}

// List returns all business units ordered by id.
//
// @Summary      List business units
// @Tags         business-units
// @Produce      json
// @Success      200   {array}   domain.BusinessUnit
// @Failure      500   {object}  map[string]string
// @Router       /api/business-units [get]
func (h *BusinessUnitHandler) List(c echo.Context) error {
	units, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, units)
}
