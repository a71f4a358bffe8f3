package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nikodemkorbiel18-create/scale-5000/internal/audit"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo stores one document per audit in the given collection.
type MongoRepo struct {
	col *mongo.Collection
	now func() time.Time
}

// NewMongoRepo ensures the owner/recency index exists.
func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, unavailable("create index", err)
	}
	return &MongoRepo{col: col, now: time.Now}, nil
}

func (m *MongoRepo) Create(ctx context.Context, rec *audit.Record) (string, error) {
	id, err := newID()
	if err != nil {
		return "", err
	}
	doc := *rec
	doc.ID = id
	// BSON dates carry millisecond precision
	doc.CreatedAt = m.now().UTC().Truncate(time.Millisecond)
	if _, err := m.col.InsertOne(ctx, &doc); err != nil {
		return "", unavailable("insert audit", err)
	}
	rec.ID = doc.ID
	rec.CreatedAt = doc.CreatedAt
	return id, nil
}

func (m *MongoRepo) ListByIdentity(ctx context.Context, owner models.Identity) ([]*audit.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := m.col.Find(ctx, bson.M{"userId": string(owner)}, opts)
	if err != nil {
		return nil, unavailable("list audits", err)
	}
	defer cur.Close(ctx)
	out := []*audit.Record{}
	for cur.Next(ctx) {
		var rec audit.Record
		if err := cur.Decode(&rec); err != nil {
			return nil, unavailable("decode audit", err)
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		out = append(out, &rec)
	}
	if err := cur.Err(); err != nil {
		return nil, unavailable("list audits", err)
	}
	return out, nil
}

func (m *MongoRepo) Get(ctx context.Context, owner models.Identity, id string) (*audit.Record, error) {
	var rec audit.Record
	err := m.col.FindOne(ctx, bson.M{"_id": id, "userId": string(owner)}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, unavailable("get audit", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}
