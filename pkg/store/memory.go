package store

import (
	"context"

	"github.com/256dpi/lungo"
)

// NewMemoryStore returns a store over an embedded lungo engine that keeps
// every collection in process memory. It runs the same code paths as a
// Connect'ed store and is meant for tests and local tooling.
func NewMemoryStore() *MongoStore {
	client, engine, err := lungo.Open(context.Background(), lungo.Options{Store: lungo.NewMemoryStore()})
	if err != nil {
		// an empty memory catalog always loads
		panic(err)
	}
	return &MongoStore{client: client, db: client.Database(DefaultDatabase), engine: engine}
}
