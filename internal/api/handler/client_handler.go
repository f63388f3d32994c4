package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crmhub/crm-backend/internal/core/domain"
	"github.com/crmhub/crm-backend/internal/core/ports"
)

// ClientHandler handles HTTP requests for client operations.
type ClientHandler struct {
	service ports.ClientService
}

func NewClientHandler(service ports.ClientService) *ClientHandler {
	return &ClientHandler{service: service}
}

// Create handles POST /v1/clients. A repeated Idempotency-Key returns the
// client created by the first request with 200 instead of 201.
func (h *ClientHandler) Create(c echo.Context) error {
	var req createClientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	idempotencyKey := c.Request().Header.Get(headerIdempotencyKey)
	result, err := h.service.Create(c.Request().Context(), toCreateClientInput(req, idempotencyKey))
	if err != nil {
		return err
	}

	return c.JSON(createdStatus(c, result.Replayed), result.Client)
}

// Get handles GET /v1/clients/:id.
func (h *ClientHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	client, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}

// Update handles PUT /v1/clients/:id. Keys left out of the body keep their
// stored value; keys sent as "" clear it.
func (h *ClientHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateClientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	client, err := h.service.Update(c.Request().Context(), id, toUpdateClientInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}

// Delete handles DELETE /v1/clients/:id.
func (h *ClientHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/clients with optional filters:
// name, document_kind, lead_score, min_lead_score, max_lead_score.
func (h *ClientHandler) List(c echo.Context) error {
	var filter ports.ListClientsFilter
	filter.Name = c.QueryParam("name")

	if raw := c.QueryParam("document_kind"); raw != "" {
		kind, err := domain.ParseDocumentKind(raw)
		if err != nil {
			return err
		}
		filter.DocumentKind = kind
	}

	var err error
	if filter.LeadScore, err = queryFloat(c, "lead_score"); err != nil {
		return err
	}
	if filter.MinLeadScore, err = queryFloat(c, "min_lead_score"); err != nil {
		return err
	}
	if filter.MaxLeadScore, err = queryFloat(c, "max_lead_score"); err != nil {
		return err
	}

	clients, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newListResponse(clients))
}

// lookupFields are the query parameters accepted by Lookup, in precedence order.
var lookupFields = []domain.UniqueField{
	domain.FieldEmail,
	domain.FieldPhone,
	domain.FieldPersonalDocument,
	domain.FieldOrganizationDocument,
}

// Lookup handles GET /v1/clients/lookup?<field>=<value>, where field is one of
// email, phone, personal_document or organization_document. Exactly one must be given.
func (h *ClientHandler) Lookup(c echo.Context) error {
	var (
		field domain.UniqueField
		value string
	)
	for _, f := range lookupFields {
		v := c.QueryParam(string(f))
		if v == "" {
			continue
		}
		if field != "" {
			return echo.NewHTTPError(http.StatusBadRequest, "exactly one lookup parameter is allowed")
		}
		field, value = f, v
	}
	if field == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "one of email, phone, personal_document or organization_document is required")
	}

	client, err := h.service.FindByUniqueField(c.Request().Context(), field, value)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}
