package domain

import "time"

// DocumentKind tells whether a client is a person or a company.
type DocumentKind string

const (
	KindIndividual   DocumentKind = "individual"
	KindOrganization DocumentKind = "organization"
)

// IsValid reports whether k is a known kind.
func (k DocumentKind) IsValid() bool {
	return k == KindIndividual || k == KindOrganization
}

// ParseDocumentKind converts a raw string to a DocumentKind.
func ParseDocumentKind(s string) (DocumentKind, error) {
	k := DocumentKind(s)
	if !k.IsValid() {
		return "", &ValidationError{Code: CodeUnknownDocumentKind, Field: "document_kind", Detail: s}
	}
	return k, nil
}

// UniqueField names a client attribute that must be unique across clients.
type UniqueField string

const (
	FieldEmail                UniqueField = "email"
	FieldPhone                UniqueField = "phone"
	FieldPersonalDocument     UniqueField = "personal_document"
	FieldOrganizationDocument UniqueField = "organization_document"
)

// NormalizeUnique applies the normalization used for storage of the given field.
func NormalizeUnique(field UniqueField, raw string) string {
	if field == FieldEmail {
		return NormalizeEmail(raw)
	}
	return Normalize(raw)
}

const (
	MinLeadScore = 0
	MaxLeadScore = 10
)

// Client is a customer record. Exactly one of PersonalDocument and
// OrganizationDocument is populated; DocumentKind follows from which one.
type Client struct {
	ID                   int64        `json:"id"`
	Name                 string       `json:"name"`
	Email                string       `json:"email,omitempty"`
	Phone                string       `json:"phone,omitempty"`
	PhotoURL             string       `json:"photo_url,omitempty"`
	DocumentKind         DocumentKind `json:"document_kind"`
	PersonalDocument     string       `json:"personal_document,omitempty"`
	OrganizationDocument string       `json:"organization_document,omitempty"`
	LeadScore            float64      `json:"lead_score"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// SetPersonalDocument stores an individual's document and clears the other kind.
func (c *Client) SetPersonalDocument(doc string) {
	c.PersonalDocument = doc
	c.OrganizationDocument = ""
	c.DocumentKind = KindIndividual
}

// SetOrganizationDocument stores a company's document and clears the other kind.
func (c *Client) SetOrganizationDocument(doc string) {
	c.OrganizationDocument = doc
	c.PersonalDocument = ""
	c.DocumentKind = KindOrganization
}

// Document returns the populated document, whichever kind it is.
func (c *Client) Document() string {
	if c.DocumentKind == KindOrganization {
		return c.OrganizationDocument
	}
	return c.PersonalDocument
}

// LeadScoreInRange reports whether score lies within [MinLeadScore, MaxLeadScore].
func LeadScoreInRange(score float64) bool {
	return score >= MinLeadScore && score <= MaxLeadScore
}
