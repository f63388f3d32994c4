package mongo

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crmhub/crm-backend/internal/core/domain"
)

// uniqueIndex is a named unique index whose violations map to a domain field.
type uniqueIndex struct {
	name  string
	key   string
	field domain.UniqueField
}

// model builds a unique index that ignores documents where the key is missing,
// so optional fields can be absent on many records.
func (u uniqueIndex) model() mongo.IndexModel {
	return mongo.IndexModel{
		Keys: bson.D{{Key: u.key, Value: 1}},
		Options: options.Index().
			SetName(u.name).
			SetUnique(true).
			SetPartialFilterExpression(bson.M{u.key: bson.M{"$exists": true}}),
	}
}

// translateWriteError turns a duplicate-key error on one of indexes into a
// *domain.ConflictError. Other errors are returned unchanged.
func translateWriteError(err error, indexes []uniqueIndex) error {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	for _, idx := range indexes {
		if strings.Contains(msg, idx.name) {
			return domain.DuplicateField(idx.field)
		}
	}
	return &domain.ConflictError{Code: domain.CodeDuplicateField}
}
