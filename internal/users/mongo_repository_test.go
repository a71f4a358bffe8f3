package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nikodemkorbiel18-create/scale-5000/internal/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMockUserRepo(mt *mtest.T) *MongoUserRepository {
	mt.AddMockResponses(mtest.CreateSuccessResponse())
	repo, err := NewMongoUserRepository(context.Background(), mt.Coll)
	require.NoError(mt, err)
	return repo
}

func TestMongoUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates unique email index", func(mt *mtest.T) {
		newMockUserRepo(mt)
		started := mt.GetStartedEvent()
		require.Equal(mt, "createIndexes", started.CommandName)
		idx := started.Command.Lookup("indexes", "0").Document()
		require.True(mt, idx.Lookup("unique").Boolean())
		require.Equal(mt, int64(1), idx.Lookup("key", "email").AsInt64())
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		repo := newMockUserRepo(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error collection: users index: email_1",
		}))
		err := repo.Create(context.Background(), &models.User{ID: "u2", Email: "a@example.com", PasswordHash: "h"})
		require.ErrorIs(mt, err, ErrDuplicateEmail)
	})

	mt.Run("other write errors pass through", func(mt *mtest.T) {
		repo := newMockUserRepo(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 91, Message: "shutting down"}))
		err := repo.Create(context.Background(), &models.User{ID: "u3", Email: "b@example.com", PasswordHash: "h"})
		require.Error(mt, err)
		require.False(mt, errors.Is(err, ErrDuplicateEmail))
	})

	mt.Run("unknown email is not found", func(mt *mtest.T) {
		repo := newMockUserRepo(mt)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
		require.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("get by id decodes the record", func(mt *mtest.T) {
		repo := newMockUserRepo(mt)
		mt.ClearEvents()
		created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "email", Value: "owner@studio.example"},
			{Key: "passwordHash", Value: "$2a$10$hash"},
			{Key: "createdAt", Value: primitive.NewDateTimeFromTime(created)},
		}))
		u, err := repo.GetByID(context.Background(), "u1")
		require.NoError(mt, err)
		require.Equal(mt, "owner@studio.example", u.Email)
		require.Equal(mt, "$2a$10$hash", u.PasswordHash)
		require.True(mt, u.CreatedAt.Equal(created))
		require.Equal(mt, "u1", mt.GetStartedEvent().Command.Lookup("filter", "_id").StringValue())
	})
}
