package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/crmhub/crm-backend/internal/core/domain"
	"github.com/crmhub/crm-backend/internal/core/ports"
	"github.com/crmhub/crm-backend/internal/metrics"
)

// DocumentPair is the normalized result of document validation.
// At most one side is non-empty.
type DocumentPair struct {
	Personal     string
	Organization string
}

// IsEmpty reports whether neither document was supplied.
func (p DocumentPair) IsEmpty() bool {
	return p.Personal == "" && p.Organization == ""
}

// IdentityValidator enforces document exclusivity and pre-checks uniqueness of
// client identity fields against the store. The store's unique indexes remain
// the source of truth for uniqueness; this check only fails fast.
type IdentityValidator struct {
	clients         ports.ClientRepository
	requireDocument bool
}

// NewIdentityValidator returns a validator backed by clients. When
// requireDocumentOnCreate is false a client may be created without any document.
func NewIdentityValidator(clients ports.ClientRepository, requireDocumentOnCreate bool) *IdentityValidator {
	return &IdentityValidator{clients: clients, requireDocument: requireDocumentOnCreate}
}

// ValidateDocumentPair normalizes both documents and checks that at most one
// is present. On create, at least one must be present unless the policy says otherwise.
func (v *IdentityValidator) ValidateDocumentPair(personal, organization string, isCreate bool) (DocumentPair, error) {
	pair := DocumentPair{
		Personal:     domain.Normalize(personal),
		Organization: domain.Normalize(organization),
	}
	if pair.Personal != "" && pair.Organization != "" {
		return DocumentPair{}, &domain.ConflictError{Code: domain.CodeBothDocumentsProvided}
	}
	if isCreate && v.requireDocument && pair.IsEmpty() {
		return DocumentPair{}, &domain.ValidationError{Code: domain.CodeMissingDocument, Field: "document"}
	}
	return pair, nil
}

// CheckUnique fails with a duplicate-field conflict when another client already
// holds value for field. excludeID is the client being updated, or zero on create.
// Empty values are never checked.
func (v *IdentityValidator) CheckUnique(ctx context.Context, field domain.UniqueField, value string, excludeID int64) error {
	value = domain.NormalizeUnique(field, value)
	if value == "" {
		return nil
	}

	existing, err := v.clients.FindByUniqueField(ctx, field, value)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check unique %s: %w", field, err)
	}
	if existing.ID == excludeID {
		return nil
	}

	metrics.UniquenessConflictsTotal.WithLabelValues(string(field)).Inc()
	return domain.DuplicateField(field)
}
