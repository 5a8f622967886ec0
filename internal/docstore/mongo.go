// Package docstore keeps templates as single documents in MongoDB.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"invitopia/internal/domain"
)

const collectionName = "templates"

// TemplateStore implements domain.TemplateStore on a MongoDB collection.
// Each template, elements included, is one document keyed by its id.
type TemplateStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// templateDoc is the stored shape of a template.
type templateDoc struct {
	ID        string           `bson:"_id"`
	Name      string           `bson:"name"`
	Metadata  domain.Metadata  `bson:"metadata"`
	Elements  []domain.Element `bson:"elements"`
	CreatedAt time.Time        `bson:"createdAt"`
	UpdatedAt time.Time        `bson:"updatedAt"`
}

func toDoc(t *domain.Template) templateDoc {
	return templateDoc{
		ID:        t.ID,
		Name:      t.Name,
		Metadata:  t.Metadata,
		Elements:  t.Elements,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func (d templateDoc) template() *domain.Template {
	return &domain.Template{
		ID:        d.ID,
		Name:      d.Name,
		Metadata:  d.Metadata,
		Elements:  d.Elements,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Open connects to uri and selects database. When database is empty the
// name is taken from the URI path, falling back to "invitopia".
func Open(ctx context.Context, uri, database string) (*TemplateStore, error) {
	if database == "" {
		database = databaseFromURI(uri)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	slog.Info("mongo template store connected", "database", database)

	return &TemplateStore{
		client: client,
		coll:   client.Database(database).Collection(collectionName),
	}, nil
}

// databaseFromURI extracts the path segment of user:pass@host/DB?params.
func databaseFromURI(uri string) string {
	rest := uri
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		if strings.HasPrefix(rest, prefix) {
			rest = rest[len(prefix):]
			break
		}
	}
	if at := strings.LastIndex(rest, "@"); at != -1 {
		rest = rest[at+1:]
	}
	if slash := strings.Index(rest, "/"); slash != -1 {
		path := rest[slash+1:]
		if q := strings.Index(path, "?"); q != -1 {
			path = path[:q]
		}
		if path != "" {
			return path
		}
	}
	return "invitopia"
}

func (s *TemplateStore) CreateTemplate(ctx context.Context, t *domain.Template) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.coll.InsertOne(ctx, toDoc(t)); err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

func (s *TemplateStore) GetTemplate(ctx context.Context, id string) (*domain.Template, error) {
	var doc templateDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("template %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return doc.template(), nil
}

func (s *TemplateStore) ListTemplates(ctx context.Context) ([]domain.TemplateSummary, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.TemplateSummary
	for cur.Next(ctx) {
		var doc templateDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode template: %w", err)
		}
		out = append(out, domain.TemplateSummary{
			ID:           doc.ID,
			Name:         doc.Name,
			ElementCount: len(doc.Elements),
			UpdatedAt:    doc.UpdatedAt,
		})
	}
	return out, cur.Err()
}

// SaveTemplate replaces the stored document. Unknown ids return ErrNotFound.
func (s *TemplateStore) SaveTemplate(ctx context.Context, t *domain.Template) error {
	t.UpdatedAt = time.Now().UTC()
	doc := toDoc(t)
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": t.ID}, bson.M{"$set": bson.M{
		"name":      doc.Name,
		"metadata":  doc.Metadata,
		"elements":  doc.Elements,
		"updatedAt": doc.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("template %s: %w", t.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *TemplateStore) DeleteTemplate(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("template %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *TemplateStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
