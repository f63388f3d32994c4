package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/crmhub/crm-backend/internal/core/domain"
	"github.com/crmhub/crm-backend/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type stubClientRepo struct {
	byID    map[int64]*domain.Client
	nextID  int64
	lookups []domain.UniqueField // fields passed to FindByUniqueField, in call order
	saves   int
	saveErr error
}

func newStubClientRepo() *stubClientRepo {
	return &stubClientRepo{byID: make(map[int64]*domain.Client)}
}

func (r *stubClientRepo) seed(c domain.Client) *domain.Client {
	r.nextID++
	if c.ID == 0 {
		c.ID = r.nextID
	}
	r.byID[c.ID] = &c
	return &c
}

func (r *stubClientRepo) FindByID(_ context.Context, id int64) (*domain.Client, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.NotFound(domain.EntityClient, id)
	}
	clone := *c
	return &clone, nil
}

func (r *stubClientRepo) FindByUniqueField(_ context.Context, field domain.UniqueField, value string) (*domain.Client, error) {
	r.lookups = append(r.lookups, field)
	for _, c := range r.byID {
		var stored string
		switch field {
		case domain.FieldEmail:
			stored = c.Email
		case domain.FieldPhone:
			stored = c.Phone
		case domain.FieldPersonalDocument:
			stored = c.PersonalDocument
		case domain.FieldOrganizationDocument:
			stored = c.OrganizationDocument
		}
		if stored != "" && stored == value {
			clone := *c
			return &clone, nil
		}
	}
	return nil, domain.NotFound(domain.EntityClient, 0)
}

func (r *stubClientRepo) ExistsByID(_ context.Context, id int64) (bool, error) {
	_, ok := r.byID[id]
	return ok, nil
}

func (r *stubClientRepo) Save(_ context.Context, c *domain.Client) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	if c.ID == 0 {
		r.nextID++
		c.ID = r.nextID
	}
	clone := *c
	r.byID[c.ID] = &clone
	return nil
}

func (r *stubClientRepo) DeleteByID(_ context.Context, id int64) error {
	delete(r.byID, id)
	return nil
}

func (r *stubClientRepo) List(_ context.Context, f ports.ListClientsFilter) ([]*domain.Client, error) {
	var out []*domain.Client
	for _, c := range r.byID {
		if f.Name != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Name)) {
			continue
		}
		if f.DocumentKind != "" && c.DocumentKind != f.DocumentKind {
			continue
		}
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type stubOpportunityRepo struct {
	byID    map[int64]*domain.Opportunity
	nextID  int64
	saves   int
	saveErr error
}

func newStubOpportunityRepo() *stubOpportunityRepo {
	return &stubOpportunityRepo{byID: make(map[int64]*domain.Opportunity)}
}

func (r *stubOpportunityRepo) seed(o domain.Opportunity) *domain.Opportunity {
	r.nextID++
	if o.ID == 0 {
		o.ID = r.nextID
	}
	r.byID[o.ID] = &o
	return &o
}

func (r *stubOpportunityRepo) FindByID(_ context.Context, id int64) (*domain.Opportunity, error) {
	o, ok := r.byID[id]
	if !ok {
		return nil, domain.NotFound(domain.EntityOpportunity, id)
	}
	clone := *o
	clone.StatusHistory = append([]domain.StatusHistoryEntry(nil), o.StatusHistory...)
	return &clone, nil
}

func (r *stubOpportunityRepo) ExistsByID(_ context.Context, id int64) (bool, error) {
	_, ok := r.byID[id]
	return ok, nil
}

func (r *stubOpportunityRepo) Save(_ context.Context, o *domain.Opportunity) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	if o.ID == 0 {
		r.nextID++
		o.ID = r.nextID
	}
	clone := *o
	r.byID[o.ID] = &clone
	return nil
}

func (r *stubOpportunityRepo) DeleteByID(_ context.Context, id int64) error {
	delete(r.byID, id)
	return nil
}

func (r *stubOpportunityRepo) List(_ context.Context, f ports.ListOpportunitiesFilter) ([]*domain.Opportunity, error) {
	var out []*domain.Opportunity
	for _, o := range r.byID {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.ClientID != 0 && o.ClientID != f.ClientID {
			continue
		}
		clone := *o
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type stubUserRepo struct {
	byID   map[int64]*domain.User
	nextID int64
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[int64]*domain.User)}
}

func (r *stubUserRepo) seed(u domain.User) *domain.User {
	r.nextID++
	if u.ID == 0 {
		u.ID = r.nextID
	}
	r.byID[u.ID] = &u
	return &u
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.NotFound(domain.EntityUser, id)
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.NotFound(domain.EntityUser, 0)
}

func (r *stubUserRepo) ExistsByID(_ context.Context, id int64) (bool, error) {
	_, ok := r.byID[id]
	return ok, nil
}

func (r *stubUserRepo) Save(_ context.Context, u *domain.User) error {
	if u.ID == 0 {
		r.nextID++
		u.ID = r.nextID
	}
	clone := *u
	r.byID[u.ID] = &clone
	return nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.byID {
		clone := *u
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---------------------------------------------------------------------------
// Side-effect stubs
// ---------------------------------------------------------------------------

type stubIdempotency struct {
	keys        map[string]int64
	lookupErr   error
	rememberErr error
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]int64)}
}

func (s *stubIdempotency) Lookup(_ context.Context, scope, key string) (int64, bool, error) {
	if s.lookupErr != nil {
		return 0, false, s.lookupErr
	}
	id, ok := s.keys[scope+":"+key]
	return id, ok, nil
}

func (s *stubIdempotency) Remember(_ context.Context, scope, key string, id int64) error {
	if s.rememberErr != nil {
		return s.rememberErr
	}
	// First write wins, like SETNX.
	if _, ok := s.keys[scope+":"+key]; !ok {
		s.keys[scope+":"+key] = id
	}
	return nil
}

func (s *stubIdempotency) Forget(_ context.Context, scope, key string) error {
	delete(s.keys, scope+":"+key)
	return nil
}

type stubPublisher struct {
	published []domain.StatusChangeEvent
}

func (p *stubPublisher) Publish(e domain.StatusChangeEvent) {
	p.published = append(p.published, e)
}

type stubRecorder struct {
	err      error
	recorded []domain.StatusChangeEvent
}

func (r *stubRecorder) Record(_ context.Context, e domain.StatusChangeEvent) error {
	if r.err != nil {
		return r.err
	}
	r.recorded = append(r.recorded, e)
	return nil
}

var errStore = errors.New("store unavailable")
