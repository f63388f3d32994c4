package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crmhub/crm-backend/internal/core/ports"
)

// UserHandler handles HTTP requests for internal users.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Create handles POST /v1/users.
func (h *UserHandler) Create(c echo.Context) error {
	var req userRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.service.Create(c.Request().Context(), toUserInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// Update handles PUT /v1/users/:id.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req userRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.service.Update(c.Request().Context(), id, toUserInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Get handles GET /v1/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// List handles GET /v1/users.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newListResponse(users))
}
