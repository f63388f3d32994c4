package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/crmhub/crm-backend/internal/core/domain"
	"github.com/crmhub/crm-backend/internal/core/ports"
	"github.com/crmhub/crm-backend/pkg/optional"
)

const dateLayout = "2006-01-02"

// --- Request → Service input ---

func toCreateClientInput(req createClientRequest, idempotencyKey string) ports.CreateClientInput {
	return ports.CreateClientInput{
		Name:                 req.Name,
		Email:                req.Email,
		Phone:                req.Phone,
		PhotoURL:             req.PhotoURL,
		PersonalDocument:     req.PersonalDocument,
		OrganizationDocument: req.OrganizationDocument,
		LeadScore:            req.LeadScore,
		IdempotencyKey:       idempotencyKey,
	}
}

func toUpdateClientInput(req updateClientRequest) ports.UpdateClientInput {
	return ports.UpdateClientInput{
		Name:                 req.Name,
		Email:                req.Email,
		Phone:                req.Phone,
		PhotoURL:             req.PhotoURL,
		PersonalDocument:     req.PersonalDocument,
		OrganizationDocument: req.OrganizationDocument,
		LeadScore:            req.LeadScore,
	}
}

func toCreateOpportunityInput(req createOpportunityRequest, idempotencyKey string) (ports.CreateOpportunityInput, error) {
	status, err := parseOptionalStatus(req.Status)
	if err != nil {
		return ports.CreateOpportunityInput{}, err
	}

	var creationDate optional.Value[time.Time]
	if raw, ok := req.CreationDate.Get(); ok && raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return ports.CreateOpportunityInput{}, echo.NewHTTPError(http.StatusBadRequest, "creation_date must be formatted as YYYY-MM-DD")
		}
		creationDate = optional.Some(d)
	}

	return ports.CreateOpportunityInput{
		Title:          req.Title,
		Description:    req.Description,
		EstimatedValue: req.EstimatedValue,
		Status:         status,
		CreationDate:   creationDate,
		ClientID:       req.ClientID,
		OwnerID:        req.OwnerID,
		IdempotencyKey: idempotencyKey,
	}, nil
}

func toUpdateOpportunityInput(req updateOpportunityRequest) (ports.UpdateOpportunityInput, error) {
	if title, ok := req.Title.Get(); ok && strings.TrimSpace(title) == "" {
		return ports.UpdateOpportunityInput{}, echo.NewHTTPError(http.StatusBadRequest, "title must not be blank")
	}
	status, err := parseOptionalStatus(req.Status)
	if err != nil {
		return ports.UpdateOpportunityInput{}, err
	}
	return ports.UpdateOpportunityInput{
		Title:          req.Title,
		Description:    req.Description,
		EstimatedValue: req.EstimatedValue,
		Status:         status,
		ClientID:       req.ClientID,
		OwnerID:        req.OwnerID,
	}, nil
}

func parseOptionalStatus(v optional.Value[string]) (optional.Value[domain.OpportunityStatus], error) {
	raw, ok := v.Get()
	if !ok || raw == "" {
		return optional.None[domain.OpportunityStatus](), nil
	}
	status, err := domain.ParseOpportunityStatus(strings.ToLower(raw))
	if err != nil {
		return optional.None[domain.OpportunityStatus](), err
	}
	return optional.Some(status), nil
}

func toUserInput(req userRequest) ports.UserInput {
	return ports.UserInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		PhotoURL: req.PhotoURL,
		Role:     req.Role,
	}
}
