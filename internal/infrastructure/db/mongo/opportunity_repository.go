package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crmhub/crm-backend/internal/core/domain"
	"github.com/crmhub/crm-backend/internal/core/ports"
)

const collectionOpportunities = "opportunities"

type statusHistoryDoc struct {
	Status    string    `bson:"status"`
	Timestamp time.Time `bson:"timestamp"`
	Notes     string    `bson:"notes,omitempty"`
}

type opportunityDoc struct {
	ID             int64                `bson:"_id"`
	Title          string               `bson:"title"`
	Description    string               `bson:"description,omitempty"`
	EstimatedValue primitive.Decimal128 `bson:"estimated_value"`
	Status         string               `bson:"status"`
	CreationDate   time.Time            `bson:"creation_date"`
	ClientID       int64                `bson:"client_id"`
	OwnerID        int64                `bson:"owner_id"`
	StatusHistory  []statusHistoryDoc   `bson:"status_history"`
	UpdatedAt      time.Time            `bson:"updated_at"`
}

func toOpportunityDoc(o *domain.Opportunity) (opportunityDoc, error) {
	value, err := decimalToBSON(o.EstimatedValue)
	if err != nil {
		return opportunityDoc{}, err
	}
	history := make([]statusHistoryDoc, 0, len(o.StatusHistory))
	for _, h := range o.StatusHistory {
		history = append(history, statusHistoryDoc{Status: string(h.Status), Timestamp: h.Timestamp.UTC(), Notes: h.Notes})
	}
	return opportunityDoc{
		ID:             o.ID,
		Title:          o.Title,
		Description:    o.Description,
		EstimatedValue: value,
		Status:         string(o.Status),
		CreationDate:   o.CreationDate.UTC(),
		ClientID:       o.ClientID,
		OwnerID:        o.OwnerID,
		StatusHistory:  history,
		UpdatedAt:      o.UpdatedAt.UTC(),
	}, nil
}

func (d opportunityDoc) toDomain() (*domain.Opportunity, error) {
	value, err := decimalFromBSON(d.EstimatedValue)
	if err != nil {
		return nil, fmt.Errorf("opportunity %d: %w", d.ID, err)
	}
	history := make([]domain.StatusHistoryEntry, 0, len(d.StatusHistory))
	for _, h := range d.StatusHistory {
		history = append(history, domain.StatusHistoryEntry{
			Status:    domain.OpportunityStatus(h.Status),
			Timestamp: h.Timestamp.UTC(),
			Notes:     h.Notes,
		})
	}
	return &domain.Opportunity{
		ID:             d.ID,
		Title:          d.Title,
		Description:    d.Description,
		EstimatedValue: value,
		Status:         domain.OpportunityStatus(d.Status),
		CreationDate:   d.CreationDate.UTC(),
		ClientID:       d.ClientID,
		OwnerID:        d.OwnerID,
		StatusHistory:  history,
		UpdatedAt:      d.UpdatedAt.UTC(),
	}, nil
}

func decimalToBSON(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode decimal %s: %w", d, err)
	}
	return v, nil
}

func decimalFromBSON(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode decimal %s: %w", v, err)
	}
	return d, nil
}

// OpportunityRepository implements ports.OpportunityRepository using MongoDB.
type OpportunityRepository struct {
	col *mongo.Collection
	seq sequence
}

func NewOpportunityRepository(db *mongo.Database) *OpportunityRepository {
	return &OpportunityRepository{
		col: db.Collection(collectionOpportunities),
		seq: newSequence(db, collectionOpportunities),
	}
}

func (r *OpportunityRepository) FindByID(ctx context.Context, id int64) (*domain.Opportunity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d opportunityDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound(domain.EntityOpportunity, id)
		}
		return nil, fmt.Errorf("find opportunity: %w", err)
	}
	return d.toDomain()
}

func (r *OpportunityRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count opportunity: %w", err)
	}
	return n > 0, nil
}

// Save inserts o when o.ID is zero and replaces the stored document otherwise.
func (r *OpportunityRepository) Save(ctx context.Context, o *domain.Opportunity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toOpportunityDoc(o)
	if err != nil {
		return err
	}

	if doc.ID == 0 {
		id, err := r.seq.next(ctx)
		if err != nil {
			return err
		}
		doc.ID = id
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			return fmt.Errorf("insert opportunity: %w", err)
		}
		o.ID = id
		return nil
	}

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return fmt.Errorf("replace opportunity: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound(domain.EntityOpportunity, doc.ID)
	}
	return nil
}

func (r *OpportunityRepository) DeleteByID(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete opportunity: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound(domain.EntityOpportunity, id)
	}
	return nil
}

// List returns the opportunities matching filter, ordered by id.
func (r *OpportunityRepository) List(ctx context.Context, f ports.ListOpportunitiesFilter) ([]*domain.Opportunity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.ClientID != 0 {
		filter["client_id"] = f.ClientID
	}
	if f.OwnerID != 0 {
		filter["owner_id"] = f.OwnerID
	}
	if f.Title != "" {
		filter["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Title), Options: "i"}
	}

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer cur.Close(ctx)

	var docs []opportunityDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode opportunities: %w", err)
	}
	out := make([]*domain.Opportunity, 0, len(docs))
	for _, d := range docs {
		o, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// EnsureIndexes creates lookup indexes on the opportunities collection.
func (r *OpportunityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "client_id", Value: 1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
