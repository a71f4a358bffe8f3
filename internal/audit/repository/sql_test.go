package repository

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/audit"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/database"
	"github.com/stretchr/testify/require"
)

func TestSQLRepo_SQLiteContract(t *testing.T) {
	ctx := context.Background()
	db, dialect, err := database.OpenSQL(ctx, "sqlite://"+filepath.Join(t.TempDir(), "audits.db"), 5*time.Second)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(ctx, db))

	for _, id := range []string{"user-a", "user-b", "nobody"} {
		_, err := db.ExecContext(ctx, "INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)", id, id+"@example.com", "x", time.Now().UTC())
		require.NoError(t, err)
	}

	runStoreContract(t, NewSQLRepo(db, dialect))
}

func TestSQLRepo_PostgresInsertIsSingleStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLRepo(db, database.DialectPostgres)
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ai_audits (id, user_id, business_description, current_revenue, ai_response, ai_result, mode, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)")).
		WithArgs(sqlmock.AnyArg(), "user-a", "Tutoring studio", sqlmock.AnyArg(), "text", sqlmock.AnyArg(), "structured", fixed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := sampleRecord(ownerA, "Tutoring studio")
	rec.Response = "text"
	id, err := repo.Create(context.Background(), rec)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Equal(t, fixed, rec.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepo_PostgresFailureIsStorageUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSQLRepo(db, database.DialectPostgres)

	mock.ExpectExec("INSERT INTO ai_audits").WillReturnError(errors.New("connection refused"))
	rec := sampleRecord(ownerA, "x")
	_, err = repo.Create(context.Background(), rec)
	require.ErrorIs(t, err, audit.ErrStorageUnavailable)
	require.Empty(t, rec.ID, "failed create must not assign an id to the caller's record")

	mock.ExpectQuery(regexp.QuoteMeta("FROM ai_audits WHERE user_id = $1 ORDER BY created_at DESC, id DESC")).
		WithArgs("user-a").
		WillReturnError(errors.New("connection reset"))
	_, err = repo.ListByIdentity(context.Background(), ownerA)
	require.ErrorIs(t, err, audit.ErrStorageUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepo_PostgresListFiltersByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSQLRepo(db, database.DialectPostgres)

	newer := time.Date(2026, 10, 19, 12, 0, 1, 0, time.UTC)
	older := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "business_description", "current_revenue", "ai_response", "ai_result", "mode", "created_at"}).
		AddRow("id-2", "user-a", "second", nil, "prose", nil, "simple", newer).
		AddRow("id-1", "user-a", "first", "$5k", "text", `{"readinessScore":40,"summary":"s","opportunities":[],"nextSteps":[],"bottlenecks":[]}`, "structured", older)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1")).WithArgs("user-a").WillReturnRows(rows)

	recs, err := repo.ListByIdentity(context.Background(), ownerA)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "id-2", recs[0].ID)
	require.Nil(t, recs[0].Result)
	require.Equal(t, "", recs[0].CurrentRevenue)
	require.Equal(t, 40, recs[1].Result.ReadinessScore)
	require.Equal(t, "$5k", recs[1].CurrentRevenue)
	require.NoError(t, mock.ExpectationsWereMet())
}
