package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const headerIdempotencyKey = "Idempotency-Key"

// headerReplayed is set on create responses served from an earlier request.
const headerReplayed = "Idempotent-Replayed"

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be a positive integer")
	}
	return id, nil
}

// queryFloat returns nil when the parameter is absent.
func queryFloat(c echo.Context, name string) (*float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be a number")
	}
	return &v, nil
}

// bindAndValidate decodes the request body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func createdStatus(c echo.Context, replayed bool) int {
	if replayed {
		c.Response().Header().Set(headerReplayed, "true")
		return http.StatusOK
	}
	return http.StatusCreated
}
