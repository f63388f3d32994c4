package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crmhub/crm-backend/internal/core/domain"
	"github.com/crmhub/crm-backend/internal/core/ports"
)

const collectionClients = "clients"

var clientUniqueIndexes = []uniqueIndex{
	{name: "clients_email_unique", key: "email", field: domain.FieldEmail},
	{name: "clients_phone_unique", key: "phone", field: domain.FieldPhone},
	{name: "clients_personal_document_unique", key: "personal_document", field: domain.FieldPersonalDocument},
	{name: "clients_organization_document_unique", key: "organization_document", field: domain.FieldOrganizationDocument},
}

// clientDoc is the stored shape of a client. Empty optional fields are
// omitted so the partial unique indexes skip them.
type clientDoc struct {
	ID                   int64     `bson:"_id"`
	Name                 string    `bson:"name"`
	Email                string    `bson:"email,omitempty"`
	Phone                string    `bson:"phone,omitempty"`
	PhotoURL             string    `bson:"photo_url,omitempty"`
	DocumentKind         string    `bson:"document_kind,omitempty"`
	PersonalDocument     string    `bson:"personal_document,omitempty"`
	OrganizationDocument string    `bson:"organization_document,omitempty"`
	LeadScore            float64   `bson:"lead_score"`
	CreatedAt            time.Time `bson:"created_at"`
	UpdatedAt            time.Time `bson:"updated_at"`
}

func toClientDoc(c *domain.Client) clientDoc {
	return clientDoc{
		ID:                   c.ID,
		Name:                 c.Name,
		Email:                c.Email,
		Phone:                c.Phone,
		PhotoURL:             c.PhotoURL,
		DocumentKind:         string(c.DocumentKind),
		PersonalDocument:     c.PersonalDocument,
		OrganizationDocument: c.OrganizationDocument,
		LeadScore:            c.LeadScore,
		CreatedAt:            c.CreatedAt.UTC(),
		UpdatedAt:            c.UpdatedAt.UTC(),
	}
}

func (d clientDoc) toDomain() *domain.Client {
	return &domain.Client{
		ID:                   d.ID,
		Name:                 d.Name,
		Email:                d.Email,
		Phone:                d.Phone,
		PhotoURL:             d.PhotoURL,
		DocumentKind:         domain.DocumentKind(d.DocumentKind),
		PersonalDocument:     d.PersonalDocument,
		OrganizationDocument: d.OrganizationDocument,
		LeadScore:            d.LeadScore,
		CreatedAt:            d.CreatedAt.UTC(),
		UpdatedAt:            d.UpdatedAt.UTC(),
	}
}

// ClientRepository implements ports.ClientRepository using MongoDB.
type ClientRepository struct {
	col *mongo.Collection
	seq sequence
}

func NewClientRepository(db *mongo.Database) *ClientRepository {
	return &ClientRepository{
		col: db.Collection(collectionClients),
		seq: newSequence(db, collectionClients),
	}
}

func (r *ClientRepository) FindByID(ctx context.Context, id int64) (*domain.Client, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id)
}

// FindByUniqueField retrieves a client by an already-normalized unique value.
func (r *ClientRepository) FindByUniqueField(ctx context.Context, field domain.UniqueField, value string) (*domain.Client, error) {
	return r.findOne(ctx, bson.M{string(field): value}, 0)
}

func (r *ClientRepository) findOne(ctx context.Context, filter bson.M, id int64) (*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d clientDoc
	if err := r.col.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound(domain.EntityClient, id)
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return d.toDomain(), nil
}

func (r *ClientRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count client: %w", err)
	}
	return n > 0, nil
}

// Save inserts c when c.ID is zero and replaces the stored document otherwise.
func (r *ClientRepository) Save(ctx context.Context, c *domain.Client) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toClientDoc(c)
	if doc.ID == 0 {
		id, err := r.seq.next(ctx)
		if err != nil {
			return err
		}
		doc.ID = id
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			return translateWriteError(err, clientUniqueIndexes)
		}
		c.ID = id
		return nil
	}

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return translateWriteError(err, clientUniqueIndexes)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound(domain.EntityClient, doc.ID)
	}
	return nil
}

func (r *ClientRepository) DeleteByID(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound(domain.EntityClient, id)
	}
	return nil
}

// List returns the clients matching filter, ordered by id.
func (r *ClientRepository) List(ctx context.Context, f ports.ListClientsFilter) ([]*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, clientFilter(f), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer cur.Close(ctx)

	var docs []clientDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode clients: %w", err)
	}
	out := make([]*domain.Client, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func clientFilter(f ports.ListClientsFilter) bson.M {
	filter := bson.M{}
	if f.Name != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Name), Options: "i"}
	}
	if f.DocumentKind != "" {
		filter["document_kind"] = string(f.DocumentKind)
	}

	score := bson.M{}
	if f.LeadScore != nil {
		score["$eq"] = *f.LeadScore
	}
	if f.MinLeadScore != nil {
		score["$gte"] = *f.MinLeadScore
	}
	if f.MaxLeadScore != nil {
		score["$lte"] = *f.MaxLeadScore
	}
	if len(score) > 0 {
		filter["lead_score"] = score
	}
	return filter
}

// EnsureIndexes creates the unique identity indexes on the clients collection.
func (r *ClientRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := make([]mongo.IndexModel, 0, len(clientUniqueIndexes)+2)
	for _, idx := range clientUniqueIndexes {
		indexes = append(indexes, idx.model())
	}
	indexes = append(indexes,
		mongo.IndexModel{Keys: bson.D{{Key: "document_kind", Value: 1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "lead_score", Value: 1}}},
	)

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
