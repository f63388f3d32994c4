package handler

import (
	"github.com/shopspring/decimal"

	"github.com/crmhub/crm-backend/pkg/optional"
)

// --- Clients ---

type createClientRequest struct {
	Name                 string  `json:"name"                  validate:"max=200"`
	Email                string  `json:"email"                 validate:"omitempty,email"`
	Phone                string  `json:"phone"                 validate:"max=40"`
	PhotoURL             string  `json:"photo_url"             validate:"omitempty,url"`
	PersonalDocument     string  `json:"personal_document"     validate:"max=40"`
	OrganizationDocument string  `json:"organization_document" validate:"max=40"`
	LeadScore            float64 `json:"lead_score"`
}

// updateClientRequest distinguishes absent keys from keys sent as "".
type updateClientRequest struct {
	Name                 optional.Value[string]  `json:"name"                  validate:"omitempty,max=200"`
	Email                optional.Value[string]  `json:"email"                 validate:"omitempty,email"`
	Phone                optional.Value[string]  `json:"phone"                 validate:"omitempty,max=40"`
	PhotoURL             optional.Value[string]  `json:"photo_url"             validate:"omitempty,url"`
	PersonalDocument     optional.Value[string]  `json:"personal_document"     validate:"omitempty,max=40"`
	OrganizationDocument optional.Value[string]  `json:"organization_document" validate:"omitempty,max=40"`
	LeadScore            optional.Value[float64] `json:"lead_score"`
}

// --- Opportunities ---

type createOpportunityRequest struct {
	Title          string                 `json:"title"           validate:"required,max=200"`
	Description    string                 `json:"description"     validate:"max=2000"`
	EstimatedValue decimal.Decimal        `json:"estimated_value"`
	Status         optional.Value[string] `json:"status"`
	CreationDate   optional.Value[string] `json:"creation_date"`
	ClientID       int64                  `json:"client_id"`
	OwnerID        int64                  `json:"owner_id"`
}

type updateOpportunityRequest struct {
	Title          optional.Value[string]          `json:"title"           validate:"omitempty,max=200"`
	Description    optional.Value[string]          `json:"description"     validate:"omitempty,max=2000"`
	EstimatedValue optional.Value[decimal.Decimal] `json:"estimated_value"`
	Status         optional.Value[string]          `json:"status"`
	ClientID       optional.Value[int64]           `json:"client_id"`
	OwnerID        optional.Value[int64]           `json:"owner_id"`
}

type changeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// --- Users ---

type userRequest struct {
	Name     string `json:"name"      validate:"max=200"`
	Email    string `json:"email"     validate:"omitempty,email"`
	Phone    string `json:"phone"     validate:"max=40"`
	PhotoURL string `json:"photo_url" validate:"omitempty,url"`
	Role     string `json:"role"      validate:"max=60"`
}

// --- Responses ---

type listResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

func newListResponse[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Data: items, Count: len(items)}
}
