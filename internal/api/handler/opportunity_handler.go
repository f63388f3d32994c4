package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/crmhub/crm-backend/internal/core/domain"
	"github.com/crmhub/crm-backend/internal/core/ports"
)

// OpportunityHandler handles HTTP requests for opportunity operations.
type OpportunityHandler struct {
	service ports.OpportunityService
}

func NewOpportunityHandler(service ports.OpportunityService) *OpportunityHandler {
	return &OpportunityHandler{service: service}
}

// Create handles POST /v1/opportunities.
func (h *OpportunityHandler) Create(c echo.Context) error {
	var req createOpportunityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	input, err := toCreateOpportunityInput(req, c.Request().Header.Get(headerIdempotencyKey))
	if err != nil {
		return err
	}

	result, err := h.service.Create(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(createdStatus(c, result.Replayed), result.Opportunity)
}

// Get handles GET /v1/opportunities/:id.
func (h *OpportunityHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	opp, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, opp)
}

// Update handles PUT /v1/opportunities/:id. A status sent here is stored as-is;
// lifecycle rules apply only to PUT /v1/opportunities/:id/status.
func (h *OpportunityHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateOpportunityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	input, err := toUpdateOpportunityInput(req)
	if err != nil {
		return err
	}

	opp, err := h.service.Update(c.Request().Context(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, opp)
}

// ChangeStatus handles PUT /v1/opportunities/:id/status.
func (h *OpportunityHandler) ChangeStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req changeStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	target, err := domain.ParseOpportunityStatus(strings.ToLower(req.Status))
	if err != nil {
		return err
	}

	opp, err := h.service.ChangeStatus(c.Request().Context(), id, target)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, opp)
}

// Delete handles DELETE /v1/opportunities/:id.
func (h *OpportunityHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/opportunities with optional filters:
// status, client_id, owner_id, title.
func (h *OpportunityHandler) List(c echo.Context) error {
	filter := ports.ListOpportunitiesFilter{Title: c.QueryParam("title")}

	if raw := c.QueryParam("status"); raw != "" {
		status, err := domain.ParseOpportunityStatus(strings.ToLower(raw))
		if err != nil {
			return err
		}
		filter.Status = status
	}

	var err error
	if filter.ClientID, err = queryID(c, "client_id"); err != nil {
		return err
	}
	if filter.OwnerID, err = queryID(c, "owner_id"); err != nil {
		return err
	}

	opps, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newListResponse(opps))
}

// queryID returns zero when the parameter is absent.
func queryID(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return id, nil
}
