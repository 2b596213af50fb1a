package export

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"birdwatch/internal/config"
	"birdwatch/internal/projection"
)

// mongoDestination inserts one document per projected sighting.
// Projected objects become bson.D so field order survives the trip.
type mongoDestination struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func newMongoDestination(ctx context.Context, cfg config.Export) (*mongoDestination, error) {
	uri := buildMongoURI(cfg)
	dbName := cfg.Database
	if dbName == "" {
		dbName = "birdwatch"
	}
	if !identRe.MatchString(cfg.Collection) {
		return nil, fmt.Errorf("export: invalid collection name %q", cfg.Collection)
	}

	logURI := uri
	if cfg.Password != "" {
		logURI = strings.ReplaceAll(logURI, cfg.Password, "***")
	}
	log.Printf("[EXPORT] connecting to MongoDB %s (db=%s)", logURI, dbName)

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &mongoDestination{
		client:     client,
		collection: client.Database(dbName).Collection(cfg.Collection),
	}, nil
}

// buildMongoURI uses DSN (or a Host that already is a URI) verbatim,
// otherwise builds mongodb://[user:pass@]host:port.
func buildMongoURI(cfg config.Export) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	if strings.HasPrefix(cfg.Host, "mongodb+srv://") || strings.HasPrefix(cfg.Host, "mongodb://") {
		return strings.ReplaceAll(cfg.Host, "<password>", cfg.Password)
	}
	port := cfg.Port
	if port == 0 {
		port = 27017
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	if cfg.Username != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.Username, cfg.Password, host, port)
	}
	return fmt.Sprintf("mongodb://%s:%d", host, port)
}

func (m *mongoDestination) Write(ctx context.Context, runID string, docs []projection.Object) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	batch := make([]any, len(docs))
	for i, doc := range docs {
		batch[i] = bson.D{
			{Key: "run_id", Value: runID},
			{Key: "position", Value: i},
			{Key: "exported_at", Value: now},
			{Key: "sighting", Value: toBSON(doc)},
		}
	}
	res, err := m.collection.InsertMany(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("insert documents: %w", err)
	}
	return len(res.InsertedIDs), nil
}

// toBSON converts projection output into ordered BSON values.
func toBSON(v any) any {
	switch x := v.(type) {
	case projection.Object:
		d := make(bson.D, 0, len(x))
		for _, m := range x {
			d = append(d, bson.E{Key: m.Key, Value: toBSON(m.Value)})
		}
		return d
	case []projection.Object:
		a := make(bson.A, 0, len(x))
		for _, o := range x {
			a = append(a, toBSON(o))
		}
		return a
	default:
		return v
	}
}

func (m *mongoDestination) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
