package guests

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ── MongoDB Source ─────────────────────────────────────────
// Reads guests from a collection with an optional Extended JSON filter.

type mongoSource struct{}

func init() { RegisterSource(&mongoSource{}) }

func (s *mongoSource) Spec() SourceSpec {
	return SourceSpec{
		Type:  "mongodb",
		Label: "MongoDB Collection",
		ConfigFields: []ConfigField{
			{Key: "uri", Label: "URI", Required: true, Help: "mongodb:// or mongodb+srv:// connection string"},
			{Key: "database", Label: "Database", Required: true},
			{Key: "collection", Label: "Collection", Required: true},
			{Key: "filter", Label: "Filter", Help: `Extended JSON filter, e.g. {"rsvp": "yes"}`},
			{Key: "sort", Label: "Sort", Help: `Extended JSON sort, e.g. {"lastName": 1}`},
		},
	}
}

func (s *mongoSource) Discover(ctx context.Context, cfg SourceConfig) (*Schema, error) {
	records, err := s.find(ctx, cfg, 20)
	if err != nil {
		return nil, err
	}
	return inferSchema(records), nil
}

func (s *mongoSource) Read(ctx context.Context, cfg SourceConfig) (<-chan Record, <-chan error) {
	return emitAll(ctx, func() ([]Record, error) { return s.find(ctx, cfg, 0) })
}

func (s *mongoSource) find(ctx context.Context, cfg SourceConfig, limit int64) ([]Record, error) {
	uri, database, collection := cfg.str("uri"), cfg.str("database"), cfg.str("collection")
	if uri == "" || database == "" || collection == "" {
		return nil, fmt.Errorf("uri, database and collection are required")
	}
	filter, err := parseExtJSON(cfg.str("filter"))
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	sortDoc, err := parseExtJSON(cfg.str("sort"))
	if err != nil {
		return nil, fmt.Errorf("sort: %w", err)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	defer client.Disconnect(context.Background())

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := options.Find()
	if len(sortDoc) > 0 {
		opts.SetSort(sortDoc)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := client.Database(database).Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer cur.Close(ctx)

	var records []Record
	for cur.Next(ctx) {
		var doc bson.D
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		records = append(records, Record{Data: docToMap(doc)})
	}
	return records, cur.Err()
}

// parseExtJSON parses a relaxed Extended JSON document. Empty input is an
// empty document.
func parseExtJSON(s string) (bson.D, error) {
	if s == "" {
		return bson.D{}, nil
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(s), false, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// docToMap converts top-level values to record scalars. ObjectIDs become
// hex strings and nested values are printed.
func docToMap(doc bson.D) map[string]any {
	out := make(map[string]any, len(doc))
	for _, e := range doc {
		switch v := e.Value.(type) {
		case nil, string, bool, float64:
			out[e.Key] = v
		case int32:
			out[e.Key] = float64(v)
		case int64:
			out[e.Key] = float64(v)
		case bson.ObjectID:
			out[e.Key] = v.Hex()
		case bson.DateTime:
			out[e.Key] = v.Time().UTC().Format(time.RFC3339)
		default:
			out[e.Key] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
