package databases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/ai-court-api/config"
	"github.com/linesmerrill/ai-court-api/court"
	"github.com/linesmerrill/ai-court-api/databases"
	"github.com/linesmerrill/ai-court-api/databases/mocks"
)

func sampleRecord() court.SessionRecord {
	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return court.SessionRecord{
		SessionID: "mocked-session",
		CaseFacts: court.CaseFacts{
			CaseTitle: "Zhang v. Li", CaseType: "private lending dispute",
			PlaintiffName: "Zhang", DefendantName: "Li",
			PlaintiffClaim: "repay 10000", PlaintiffReason: "loan agreement",
			DefendantResponse: "already repaid", UserRole: court.RolePlaintiff,
		},
		EvidenceList: []court.Evidence{
			{Name: "loan agreement", Source: "signed copy", Purpose: "proves the loan", Content: "10000", SubmittedBy: court.RolePlaintiff},
		},
		TrialRecords: []court.TrialRecord{
			{Role: court.RoleJudge, Phase: court.PhaseOpening, Stage: court.StageOpening, Text: "in session", Timestamp: ts},
		},
		CurrentPhase: court.PhasePlaintiffStatement,
		CurrentStage: court.StagePlaintiffStatement,
		UserRole:     court.RolePlaintiff,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}

func TestNewTrialSessionDatabase(t *testing.T) {
	conf := &config.Config{URL: "mongodb://127.0.0.1:27017", DatabaseName: "test"}

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	trialDB := databases.NewTrialSessionDatabase(db)

	assert.NotEmpty(t, trialDB)
}

func TestTrialSessionDatabase_FindOne(t *testing.T) {

	// define variables for interfaces
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperErr databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	// set interfaces implementation to mocked structures
	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperErr = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperErr.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**court.SessionRecord)
		(*arg).SessionID = "mocked-session"
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": true}).
		Return(srHelperErr)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": false}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "trialsessions").Return(collectionHelper)

	trialDB := databases.NewTrialSessionDatabase(dbHelper)

	rec, err := trialDB.FindOne(context.Background(), bson.M{"error": true})

	assert.Empty(t, rec)
	assert.EqualError(t, err, "mocked-error")

	rec, err = trialDB.FindOne(context.Background(), bson.M{"error": false})

	assert.Equal(t, &court.SessionRecord{SessionID: "mocked-session"}, rec)
	assert.NoError(t, err)
}

func TestMongoStore_Count(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("CountDocuments", mock.Anything, bson.M{}).Return(int64(3), nil).Once()
	collectionHelper.On("CountDocuments", mock.Anything, bson.M{}).Return(int64(0), errors.New("mocked-error")).Once()
	dbHelper.On("Collection", "trialsessions").Return(collectionHelper)

	store := databases.NewMongoStore(dbHelper)

	n, err := store.Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = store.Count(context.Background())
	assert.Zero(t, n)
	assert.EqualError(t, err, "count trial sessions: mocked-error")
}

func TestTrialSessionDatabase_Upsert(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	rec := sampleRecord()

	collectionHelper.On("ReplaceOne", context.Background(), bson.M{"_id": "mocked-session"}, rec, mock.Anything).
		Return(&mongo.UpdateResult{UpsertedCount: 1}, nil).
		Run(func(args mock.Arguments) {
			opts := args.Get(3).(*options.ReplaceOptions)
			require.NotNil(t, opts.Upsert)
			assert.True(t, *opts.Upsert)
		})
	dbHelper.On("Collection", "trialsessions").Return(collectionHelper)

	err := databases.NewTrialSessionDatabase(dbHelper).Upsert(context.Background(), rec)
	assert.NoError(t, err)
	collectionHelper.AssertExpectations(t)
}

func TestMongoStore(t *testing.T) {
	ctx := context.Background()
	db := &mocks.TrialSessionDatabase{}
	rec := sampleRecord()

	db.On("Upsert", mock.Anything, rec).Return(nil)
	db.On("FindOne", mock.Anything, bson.M{"_id": "mocked-session"}).Return(&rec, nil)
	db.On("FindOne", mock.Anything, bson.M{"_id": "missing"}).Return(nil, mongo.ErrNoDocuments)
	db.On("FindOne", mock.Anything, bson.M{"_id": "broken"}).Return(nil, errors.New("mocked-error"))
	db.On("DeleteOne", mock.Anything, bson.M{"_id": "mocked-session"}).Return(int64(1), nil)

	store := &databases.MongoStore{DB: db}

	assert.NoError(t, store.Save(ctx, rec))

	got, err := store.Load(ctx, "mocked-session")
	assert.NoError(t, err)
	assert.Equal(t, &rec, got)

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, court.ErrSessionNotFound)

	_, err = store.Load(ctx, "broken")
	assert.EqualError(t, err, "find trial session broken: mocked-error")

	assert.NoError(t, store.Delete(ctx, "mocked-session"))
	db.AssertExpectations(t)
}

func TestMongoStore_SaveError(t *testing.T) {
	db := &mocks.TrialSessionDatabase{}
	rec := sampleRecord()
	db.On("Upsert", mock.Anything, rec).Return(errors.New("mocked-error"))

	err := (&databases.MongoStore{DB: db}).Save(context.Background(), rec)
	assert.EqualError(t, err, "upsert trial session mocked-session: mocked-error")
}
