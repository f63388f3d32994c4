package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/crmhub/crm-backend/internal/core/domain"
)

const collectionStatusEvents = "opportunity_status_events"

// StatusEventRepository implements ports.StatusEventRecorder using MongoDB.
type StatusEventRepository struct {
	col *mongo.Collection
}

func NewStatusEventRepository(db *mongo.Database) *StatusEventRepository {
	return &StatusEventRepository{col: db.Collection(collectionStatusEvents)}
}

// Record inserts an event into the audit collection. The event ID is the
// document key, so re-recording the same event is a no-op.
func (r *StatusEventRepository) Record(ctx context.Context, event domain.StatusChangeEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"_id":            event.ID,
		"opportunity_id": event.OpportunityID,
		"from":           string(event.From),
		"to":             string(event.To),
		"occurred_at":    event.OccurredAt.UTC(),
		"recorded_at":    time.Now().UTC(),
	}

	_, err := r.col.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (r *StatusEventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "opportunity_id", Value: 1}, {Key: "occurred_at", Value: 1}},
	})
	return err
}
