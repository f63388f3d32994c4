package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/crmhub/crm-backend/internal/core/domain"
	"github.com/crmhub/crm-backend/internal/core/ports"
	"github.com/crmhub/crm-backend/internal/metrics"
)

const clientScope = "clients"

// ClientPolicy holds the configurable client validation rules.
type ClientPolicy struct {
	RequireDocumentOnCreate bool
	EnforceLeadScoreBounds  bool
}

// DefaultClientPolicy is the strict policy: a document is mandatory and the
// lead score must lie in [0, 10].
func DefaultClientPolicy() ClientPolicy {
	return ClientPolicy{RequireDocumentOnCreate: true, EnforceLeadScoreBounds: true}
}

type ClientService struct {
	repo      ports.ClientRepository
	validator *IdentityValidator
	idem      idempotencyKeys
	policy    ClientPolicy
	logger    zerolog.Logger
}

// NewClientService wires a ClientService. idem may be nil, which disables
// idempotent replay of creates.
func NewClientService(repo ports.ClientRepository, idem ports.IdempotencyStore, policy ClientPolicy, logger zerolog.Logger) *ClientService {
	return &ClientService{
		repo:      repo,
		validator: NewIdentityValidator(repo, policy.RequireDocumentOnCreate),
		idem:      idempotencyKeys{store: idem, scope: clientScope, logger: logger},
		policy:    policy,
		logger:    logger,
	}
}

// Create validates and persists a new client. If an idempotency key is provided
// and already seen, the previously created client is returned without side effects.
func (s *ClientService) Create(ctx context.Context, input ports.CreateClientInput) (*ports.CreateClientResult, error) {
	if existing := s.replay(ctx, input.IdempotencyKey); existing != nil {
		return &ports.CreateClientResult{Client: existing, Replayed: true}, nil
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, &domain.ValidationError{Code: domain.CodeBlankName, Field: "name"}
	}

	email := domain.NormalizeEmail(input.Email)
	phone := domain.Normalize(input.Phone)
	docs, err := s.validator.ValidateDocumentPair(input.PersonalDocument, input.OrganizationDocument, true)
	if err != nil {
		return nil, err
	}

	if err := s.validator.CheckUnique(ctx, domain.FieldEmail, email, 0); err != nil {
		return nil, err
	}
	if err := s.validator.CheckUnique(ctx, domain.FieldPhone, phone, 0); err != nil {
		return nil, err
	}
	if err := s.checkDocuments(ctx, docs, 0); err != nil {
		return nil, err
	}
	if err := s.checkLeadScore(input.LeadScore); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	client := &domain.Client{
		Name:      name,
		Email:     email,
		Phone:     phone,
		PhotoURL:  strings.TrimSpace(input.PhotoURL),
		LeadScore: input.LeadScore,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyDocuments(client, docs)

	if err := s.repo.Save(ctx, client); err != nil {
		return nil, s.saveFailed(err, "failed to create client")
	}

	s.idem.remember(ctx, input.IdempotencyKey, client.ID)

	kind := string(client.DocumentKind)
	if kind == "" {
		kind = "none"
	}
	metrics.ClientsCreatedTotal.WithLabelValues(kind).Inc()
	s.logger.Info().Int64("client_id", client.ID).Str("kind", kind).Msg("client created")

	return &ports.CreateClientResult{Client: client}, nil
}

// Update merges input into the stored client. Absent fields are left alone,
// empty strings clear optional fields, and non-empty values are normalized and
// re-checked for uniqueness against every other client.
func (s *ClientService) Update(ctx context.Context, id int64, input ports.UpdateClientInput) (*domain.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, ok := input.Name.Get(); ok {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, &domain.ValidationError{Code: domain.CodeBlankName, Field: "name"}
		}
		client.Name = name
	}

	personal, _ := input.PersonalDocument.Get()
	organization, _ := input.OrganizationDocument.Get()
	docs, err := s.validator.ValidateDocumentPair(personal, organization, false)
	if err != nil {
		return nil, err
	}

	if raw, ok := input.Email.Get(); ok {
		email := domain.NormalizeEmail(raw)
		if err := s.validator.CheckUnique(ctx, domain.FieldEmail, email, id); err != nil {
			return nil, err
		}
		client.Email = email
	}
	if raw, ok := input.Phone.Get(); ok {
		phone := domain.Normalize(raw)
		if err := s.validator.CheckUnique(ctx, domain.FieldPhone, phone, id); err != nil {
			return nil, err
		}
		client.Phone = phone
	}
	if raw, ok := input.PhotoURL.Get(); ok {
		client.PhotoURL = strings.TrimSpace(raw)
	}
	if err := s.checkDocuments(ctx, docs, id); err != nil {
		return nil, err
	}
	applyDocuments(client, docs)

	if score, ok := input.LeadScore.Get(); ok {
		if err := s.checkLeadScore(score); err != nil {
			return nil, err
		}
		client.LeadScore = score
	}

	client.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, client); err != nil {
		return nil, s.saveFailed(err, "failed to update client")
	}

	s.logger.Info().Int64("client_id", client.ID).Msg("client updated")
	return client, nil
}

// Delete removes a client. Missing clients yield a NotFoundError.
func (s *ClientService) Delete(ctx context.Context, id int64) error {
	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if !exists {
		return domain.NotFound(domain.EntityClient, id)
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		s.logger.Error().Err(err).Int64("client_id", id).Msg("failed to delete client")
		return err
	}
	s.logger.Info().Int64("client_id", id).Msg("client deleted")
	return nil
}

func (s *ClientService) Get(ctx context.Context, id int64) (*domain.Client, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ClientService) FindByUniqueField(ctx context.Context, field domain.UniqueField, value string) (*domain.Client, error) {
	value = domain.NormalizeUnique(field, value)
	if value == "" {
		return nil, domain.NotFound(domain.EntityClient, 0)
	}
	return s.repo.FindByUniqueField(ctx, field, value)
}

func (s *ClientService) List(ctx context.Context, filter ports.ListClientsFilter) ([]*domain.Client, error) {
	return s.repo.List(ctx, filter)
}

func (s *ClientService) checkLeadScore(score float64) error {
	if s.policy.EnforceLeadScoreBounds && !domain.LeadScoreInRange(score) {
		return &domain.ValidationError{
			Code:   domain.CodeLeadScoreOutOfRange,
			Field:  "lead_score",
			Detail: fmt.Sprintf("%g is outside [%d, %d]", score, domain.MinLeadScore, domain.MaxLeadScore),
		}
	}
	return nil
}

func (s *ClientService) checkDocuments(ctx context.Context, docs DocumentPair, excludeID int64) error {
	if docs.Personal != "" {
		return s.validator.CheckUnique(ctx, domain.FieldPersonalDocument, docs.Personal, excludeID)
	}
	if docs.Organization != "" {
		return s.validator.CheckUnique(ctx, domain.FieldOrganizationDocument, docs.Organization, excludeID)
	}
	return nil
}

// applyDocuments writes whichever document survived validation. An empty pair
// leaves the stored documents untouched.
func applyDocuments(c *domain.Client, docs DocumentPair) {
	switch {
	case docs.Personal != "":
		c.SetPersonalDocument(docs.Personal)
	case docs.Organization != "":
		c.SetOrganizationDocument(docs.Organization)
	}
}

// saveFailed counts store-level uniqueness conflicts and logs everything else.
func (s *ClientService) saveFailed(err error, msg string) error {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		metrics.UniquenessConflictsTotal.WithLabelValues(string(conflict.Field)).Inc()
		return err
	}
	s.logger.Error().Err(err).Msg(msg)
	return err
}

func (s *ClientService) replay(ctx context.Context, key string) *domain.Client {
	id, found := s.idem.lookup(ctx, key)
	if !found {
		return nil
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Int64("client_id", id).Msg("idempotent client no longer available")
		if errors.Is(err, domain.ErrNotFound) {
			s.idem.forget(ctx, key)
		}
		return nil
	}
	s.logger.Info().Str("idempotency_key", key).Int64("client_id", id).Msg("idempotent replay")
	return existing
}
