// Package store is the generic document store layer. Store is the raw
// collection interface implemented by MongoStore, either over a server or
// over the embedded engine from NewMemoryStore; Create,
// Update, Delete, Query and GetByID work over any Store with domain entities.
package store

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"sensor-failure-detection/shared/pkg/domain"
)

// Sort directions for SortBy and IndexSpec keys.
const (
	Ascending  = 1
	Descending = -1
)

// FindOptions controls ordering and paging of Find. Skip is applied before
// Limit. A zero Limit means no limit.
type FindOptions struct {
	Sort  bson.D
	Limit int64
	Skip  int64
}

// UpsertResult reports the document an Upsert matched or created.
type UpsertResult struct {
	ID      domain.ID
	Created bool
}

// IndexSpec declares a secondary index on one collection.
type IndexSpec struct {
	Keys   bson.D
	Unique bool
}

// Name returns the index name MongoDB derives from the keys, e.g.
// "machine_id_1_timestamp_-1".
func (s IndexSpec) Name() string {
	parts := make([]string, 0, len(s.Keys)*2)
	for _, k := range s.Keys {
		parts = append(parts, k.Key, fmt.Sprint(k.Value))
	}
	return strings.Join(parts, "_")
}

// Store is raw document access to named collections. Implementations are
// safe for concurrent use and atomic per document only.
type Store interface {
	// InsertOne stores doc and returns its _id, assigning one when doc has none.
	InsertOne(ctx context.Context, collection string, doc any) (domain.ID, error)
	// FindOne returns the first matching document, or nil when none matches.
	FindOne(ctx context.Context, collection string, filter bson.M) (bson.Raw, error)
	Find(ctx context.Context, collection string, filter bson.M, opts FindOptions) ([]bson.Raw, error)
	// UpdateOne merges set into the first matching document. It never inserts.
	UpdateOne(ctx context.Context, collection string, filter, set bson.M) (bool, error)
	UpdateMany(ctx context.Context, collection string, filter, set bson.M) (int64, error)
	// Upsert merges set into the first matching document, or inserts one built
	// from the filter's equality fields, set and setOnInsert.
	Upsert(ctx context.Context, collection string, filter, set, setOnInsert bson.M) (UpsertResult, error)
	DeleteOne(ctx context.Context, collection string, filter bson.M) (bool, error)
	EnsureIndexes(ctx context.Context, collection string, specs []IndexSpec) error
	Close(ctx context.Context) error
}
