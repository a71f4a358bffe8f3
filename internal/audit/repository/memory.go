package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/nikodemkorbiel18-create/scale-5000/internal/audit"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/models"
)

// MemoryRepo keeps audits in process memory. Used for local development and
// tests; contents are lost on restart.
type MemoryRepo struct {
	mu      sync.RWMutex
	byOwner map[models.Identity][]*audit.Record
	now     func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byOwner: make(map[models.Identity][]*audit.Record), now: time.Now}
}

func (m *MemoryRepo) Create(ctx context.Context, rec *audit.Record) (string, error) {
	id, err := newID()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = id
	rec.CreatedAt = m.now().UTC()
	m.byOwner[rec.UserID] = append(m.byOwner[rec.UserID], cloneRecord(rec))
	return id, nil
}

// ListByIdentity walks the owner's slice backwards: insertion order under
// the lock is creation order.
func (m *MemoryRepo) ListByIdentity(ctx context.Context, owner models.Identity) ([]*audit.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.byOwner[owner]
	out := make([]*audit.Record, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		out = append(out, cloneRecord(recs[i]))
	}
	return out, nil
}

func (m *MemoryRepo) Get(ctx context.Context, owner models.Identity, id string) (*audit.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.byOwner[owner] {
		if r.ID == id {
			return cloneRecord(r), nil
		}
	}
	return nil, ErrNotFound
}

// cloneRecord copies rec including its structured result, so callers never
// share memory with the stored record.
func cloneRecord(rec *audit.Record) *audit.Record {
	cp := *rec
	if rec.Result != nil {
		res := *rec.Result
		res.Opportunities = slices.Clone(rec.Result.Opportunities)
		res.NextSteps = slices.Clone(rec.Result.NextSteps)
		res.Bottlenecks = slices.Clone(rec.Result.Bottlenecks)
		cp.Result = &res
	}
	return &cp
}
