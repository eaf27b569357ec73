package databases

// go generate: mockery --name TrialSessionDatabase

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/ai-court-api/court"
)

const trialSessionName = "trialsessions"

// TrialSessionDatabase contains the methods to use with the trial session database
type TrialSessionDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*court.SessionRecord, error)
	Upsert(ctx context.Context, rec court.SessionRecord) error
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type trialSessionDatabase struct {
	db DatabaseHelper
}

// NewTrialSessionDatabase initializes a new instance of trial session database with the provided db connection
func NewTrialSessionDatabase(db DatabaseHelper) TrialSessionDatabase {
	return &trialSessionDatabase{
		db: db,
	}
}

func (t *trialSessionDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*court.SessionRecord, error) {
	rec := &court.SessionRecord{}
	err := t.db.Collection(trialSessionName).FindOne(ctx, filter, opts...).Decode(&rec)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Upsert replaces the session document with the same _id, creating it when absent
func (t *trialSessionDatabase) Upsert(ctx context.Context, rec court.SessionRecord) error {
	_, err := t.db.Collection(trialSessionName).ReplaceOne(ctx, bson.M{"_id": rec.SessionID}, rec, options.Replace().SetUpsert(true))
	return err
}

func (t *trialSessionDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return t.db.Collection(trialSessionName).DeleteOne(ctx, filter, opts...)
}

func (t *trialSessionDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return t.db.Collection(trialSessionName).CountDocuments(ctx, filter, opts...)
}

// MongoStore persists trial sessions in the trialsessions collection
type MongoStore struct {
	DB TrialSessionDatabase
}

// NewMongoStore returns a court.Store backed by db
func NewMongoStore(db DatabaseHelper) *MongoStore {
	return &MongoStore{DB: NewTrialSessionDatabase(db)}
}

// Save upserts rec
func (m *MongoStore) Save(ctx context.Context, rec court.SessionRecord) error {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()
	if err := m.DB.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("upsert trial session %s: %w", rec.SessionID, err)
	}
	return nil
}

// Load returns court.ErrSessionNotFound when no document has the id
func (m *MongoStore) Load(ctx context.Context, id string) (*court.SessionRecord, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()
	rec, err := m.DB.FindOne(ctx, bson.M{"_id": id})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, court.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find trial session %s: %w", id, err)
	}
	return rec, nil
}

// Delete removes the document for id
func (m *MongoStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()
	if _, err := m.DB.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete trial session %s: %w", id, err)
	}
	return nil
}

// Count returns the number of stored sessions
func (m *MongoStore) Count(ctx context.Context) (int, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()
	n, err := m.DB.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count trial sessions: %w", err)
	}
	return int(n), nil
}
