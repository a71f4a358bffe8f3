package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/nikodemkorbiel18-create/scale-5000/internal/audit"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/database"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/models"
)

const auditColumns = "id, user_id, business_description, current_revenue, ai_response, ai_result, mode, created_at"

// SQLRepo stores audits in the ai_audits table (postgres or sqlite).
type SQLRepo struct {
	db      *sql.DB
	dialect database.Dialect
	now     func() time.Time
}

func NewSQLRepo(db *sql.DB, dialect database.Dialect) *SQLRepo {
	return &SQLRepo{db: db, dialect: dialect, now: time.Now}
}

// Create writes the record with a single INSERT, so it is either fully
// visible or absent.
func (r *SQLRepo) Create(ctx context.Context, rec *audit.Record) (string, error) {
	id, err := newID()
	if err != nil {
		return "", err
	}
	created := r.now().UTC().Truncate(time.Microsecond)

	var result sql.NullString
	if rec.Result != nil {
		b, err := json.Marshal(rec.Result)
		if err != nil {
			return "", unavailable("encode result", err)
		}
		result = sql.NullString{String: string(b), Valid: true}
	}
	revenue := sql.NullString{String: rec.CurrentRevenue, Valid: rec.CurrentRevenue != ""}

	q := r.dialect.Rebind("INSERT INTO ai_audits (" + auditColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if _, err := r.db.ExecContext(ctx, q, id, string(rec.UserID), rec.BusinessDescription, revenue, rec.Response, result, string(rec.Mode), created); err != nil {
		return "", unavailable("insert audit", err)
	}
	rec.ID = id
	rec.CreatedAt = created
	return id, nil
}

func (r *SQLRepo) ListByIdentity(ctx context.Context, owner models.Identity) ([]*audit.Record, error) {
	q := r.dialect.Rebind("SELECT " + auditColumns + " FROM ai_audits WHERE user_id = ? ORDER BY created_at DESC, id DESC")
	rows, err := r.db.QueryContext(ctx, q, string(owner))
	if err != nil {
		return nil, unavailable("list audits", err)
	}
	defer rows.Close()

	out := []*audit.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list audits", err)
	}
	return out, nil
}

func (r *SQLRepo) Get(ctx context.Context, owner models.Identity, id string) (*audit.Record, error) {
	q := r.dialect.Rebind("SELECT " + auditColumns + " FROM ai_audits WHERE user_id = ? AND id = ?")
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, string(owner), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*audit.Record, error) {
	var (
		rec     audit.Record
		userID  string
		mode    string
		revenue sql.NullString
		result  sql.NullString
	)
	if err := s.Scan(&rec.ID, &userID, &rec.BusinessDescription, &revenue, &rec.Response, &result, &mode, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, unavailable("scan audit", err)
	}
	rec.UserID = models.Identity(userID)
	rec.Mode = audit.Mode(mode)
	rec.CurrentRevenue = revenue.String
	rec.CreatedAt = rec.CreatedAt.UTC()
	if result.Valid && result.String != "" {
		var sr audit.StructuredResult
		if err := json.Unmarshal([]byte(result.String), &sr); err != nil {
			return nil, unavailable("decode stored result", err)
		}
		rec.Result = &sr
	}
	return &rec, nil
}
