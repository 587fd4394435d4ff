package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"sensor-failure-detection/shared/pkg/domain"
)

// Create validates e, assigns an id when it has none and inserts it into its
// collection. Unset optional fields are left out of the stored document.
// Store errors are returned as the store reported them.
func Create(ctx context.Context, s Store, e domain.Entity) (domain.ID, error) {
	if err := e.Validate(); err != nil {
		return domain.NilID, err
	}
	assigned := false
	if e.DocumentID().IsZero() {
		e.SetDocumentID(domain.NewID())
		assigned = true
	}
	id, err := s.InsertOne(ctx, e.Collection(), e)
	if err != nil {
		if assigned {
			e.SetDocumentID(domain.NilID)
		}
		return domain.NilID, err
	}
	return id, nil
}

// Update merges fields into the document with id. It reports false when no
// such document exists and never creates one.
func Update(ctx context.Context, s Store, collection string, id domain.ID, fields bson.M) (bool, error) {
	if len(fields) == 0 {
		raw, err := s.FindOne(ctx, collection, byID(id))
		return raw != nil, err
	}
	return s.UpdateOne(ctx, collection, byID(id), fields)
}

// Delete removes the document with id and reports whether it existed.
func Delete(ctx context.Context, s Store, collection string, id domain.ID) (bool, error) {
	return s.DeleteOne(ctx, collection, byID(id))
}

// QueryOption adjusts the FindOptions of a Query.
type QueryOption func(*FindOptions)

// SortBy appends a sort key. Keys apply in the order given.
func SortBy(field string, direction int) QueryOption {
	return func(o *FindOptions) {
		o.Sort = append(o.Sort, bson.E{Key: field, Value: int32(direction)})
	}
}

// Limit caps the number of results.
func Limit(n int64) QueryOption {
	return func(o *FindOptions) { o.Limit = n }
}

// Skip drops the first n results.
func Skip(n int64) QueryOption {
	return func(o *FindOptions) { o.Skip = n }
}

// Query returns every document in collection matching filter decoded as T.
// Without SortBy the store's natural order is used.
func Query[T any](ctx context.Context, s Store, collection string, filter bson.M, opts ...QueryOption) ([]T, error) {
	var fo FindOptions
	for _, opt := range opts {
		opt(&fo)
	}
	raws, err := s.Find(ctx, collection, filter, fo)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := bson.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// GetByID returns the document with id decoded as T, or nil when absent.
func GetByID[T any](ctx context.Context, s Store, collection string, id domain.ID) (*T, error) {
	return FindOne[T](ctx, s, collection, byID(id))
}

// FindOne returns the first document matching filter decoded as T, or nil.
func FindOne[T any](ctx context.Context, s Store, collection string, filter bson.M) (*T, error) {
	raw, err := s.FindOne(ctx, collection, filter)
	if err != nil || raw == nil {
		return nil, err
	}
	v := new(T)
	if err := bson.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return v, nil
}

func byID(id domain.ID) bson.M {
	return bson.M{"_id": id}
}
