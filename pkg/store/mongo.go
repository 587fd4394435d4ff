package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/256dpi/lungo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.opentelemetry.io/otel/trace"

	"sensor-failure-detection/shared/pkg/domain"
)

// DefaultDatabase is the database used when Connect is given none.
const DefaultDatabase = "sensors"

const defaultConnectTimeout = 10 * time.Second

// MongoStore is a Store over a MongoDB-compatible database: a real server
// reached through Connect, or an embedded lungo engine from NewMemoryStore.
type MongoStore struct {
	client lungo.IClient
	db     lungo.IDatabase
	engine *lungo.Engine
}

type connectConfig struct {
	timeout time.Duration
	tp      trace.TracerProvider
}

// ConnectOption configures Connect.
type ConnectOption func(*connectConfig)

// WithConnectTimeout bounds server selection and the initial ping.
func WithConnectTimeout(d time.Duration) ConnectOption {
	return func(c *connectConfig) { c.timeout = d }
}

// WithTracerProvider traces every command the client sends.
func WithTracerProvider(tp trace.TracerProvider) ConnectOption {
	return func(c *connectConfig) { c.tp = tp }
}

// Connect opens a client for uri, pings the primary and returns a store over
// database. Failures to connect or ping wrap ErrConnection.
func Connect(ctx context.Context, uri, database string, opts ...ConnectOption) (*MongoStore, error) {
	cfg := connectConfig{timeout: defaultConnectTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if database == "" {
		database = DefaultDatabase
	}
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(cfg.timeout).
		SetServerSelectionTimeout(cfg.timeout)
	if cfg.tp != nil {
		clientOpts.SetMonitor(otelmongo.NewMonitor(otelmongo.WithTracerProvider(cfg.tp)))
	}
	client, err := lungo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping: %w", ErrConnection, err)
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

// Database returns the underlying database handle.
func (s *MongoStore) Database() lungo.IDatabase {
	return s.db
}

// Ping checks the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) InsertOne(ctx context.Context, collection string, doc any) (domain.ID, error) {
	if err := ctx.Err(); err != nil {
		return domain.NilID, err
	}
	res, err := s.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return domain.NilID, err
	}
	return insertedID(res.InsertedID)
}

func (s *MongoStore) FindOne(ctx context.Context, collection string, filter bson.M) (bson.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.db.Collection(collection).FindOne(ctx, nonNil(filter)).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cloneRaw(raw), nil
}

func (s *MongoStore) Find(ctx context.Context, collection string, filter bson.M, opts FindOptions) ([]bson.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fo := options.Find()
	if len(opts.Sort) > 0 {
		fo.SetSort(opts.Sort)
	}
	if opts.Skip > 0 {
		fo.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}
	cur, err := s.db.Collection(collection).Find(ctx, nonNil(filter), fo)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []bson.Raw
	for cur.Next(ctx) {
		var raw bson.Raw
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) UpdateOne(ctx context.Context, collection string, filter, set bson.M) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	res, err := s.db.Collection(collection).UpdateOne(ctx, nonNil(filter), bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (s *MongoStore) UpdateMany(ctx context.Context, collection string, filter, set bson.M) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	res, err := s.db.Collection(collection).UpdateMany(ctx, nonNil(filter), bson.M{"$set": set})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (s *MongoStore) Upsert(ctx context.Context, collection string, filter, set, setOnInsert bson.M) (UpsertResult, error) {
	if err := ctx.Err(); err != nil {
		return UpsertResult{}, err
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(setOnInsert) > 0 {
		update["$setOnInsert"] = setOnInsert
	}
	coll := s.db.Collection(collection)
	res, err := coll.UpdateOne(ctx, nonNil(filter), update, options.Update().SetUpsert(true))
	if err != nil {
		return UpsertResult{}, err
	}
	if res.UpsertedID != nil {
		id, err := insertedID(res.UpsertedID)
		return UpsertResult{ID: id, Created: true}, err
	}

	var doc struct {
		ID domain.ID `bson:"_id"`
	}
	err = coll.FindOne(ctx, nonNil(filter), options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&doc)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("read upserted id: %w", err)
	}
	return UpsertResult{ID: doc.ID}, nil
}

func (s *MongoStore) DeleteOne(ctx context.Context, collection string, filter bson.M) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	res, err := s.db.Collection(collection).DeleteOne(ctx, nonNil(filter))
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) EnsureIndexes(ctx context.Context, collection string, specs []IndexSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(specs) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, 0, len(specs))
	for _, spec := range specs {
		io := options.Index().SetName(spec.Name())
		if spec.Unique {
			io.SetUnique(true)
		}
		models = append(models, mongo.IndexModel{Keys: spec.Keys, Options: io})
	}
	_, err := s.db.Collection(collection).Indexes().CreateMany(ctx, models)
	return err
}

// IndexNames lists the names of the indexes on collection, sorted, without
// the implicit _id index.
func (s *MongoStore) IndexNames(ctx context.Context, collection string) ([]string, error) {
	cur, err := s.db.Collection(collection).Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var spec struct {
			Name string `bson:"name"`
		}
		if err := cur.Decode(&spec); err != nil {
			return nil, err
		}
		if spec.Name != "_id_" {
			names = append(names, spec.Name)
		}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

// Close disconnects the client or shuts the embedded engine down.
func (s *MongoStore) Close(ctx context.Context) error {
	if s.engine != nil {
		s.engine.Close()
		return nil
	}
	return s.client.Disconnect(ctx)
}

func insertedID(v any) (domain.ID, error) {
	switch id := v.(type) {
	case primitive.ObjectID:
		return domain.IDFromObjectID(id), nil
	case domain.ID:
		return id, nil
	default:
		return domain.NilID, fmt.Errorf("unexpected _id type %T", v)
	}
}

func nonNil(filter bson.M) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return filter
}

func cloneRaw(raw bson.Raw) bson.Raw {
	return append(bson.Raw(nil), raw...)
}
