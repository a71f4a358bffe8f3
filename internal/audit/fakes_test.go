package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nikodemkorbiel18-create/scale-5000/internal/llm"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/models"
)

// scriptedClient answers each Complete call with the next scripted reply.
type scriptedClient struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	delay    time.Duration
	requests []llm.ChatRequest
}

func (c *scriptedClient) Complete(ctx context.Context, req llm.ChatRequest) (string, error) {
	c.mu.Lock()
	n := len(c.requests)
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if n < len(c.errs) && c.errs[n] != nil {
		return "", c.errs[n]
	}
	if n < len(c.replies) {
		return c.replies[n], nil
	}
	return "", errors.New("no scripted reply")
}

func (c *scriptedClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

type fakeStore struct {
	mu      sync.Mutex
	records []*Record
	err     error
	creates int
}

func (s *fakeStore) Create(ctx context.Context, rec *Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.err != nil {
		return "", s.err
	}
	rec.ID = "rec-" + time.Now().Format("150405.000000000")
	rec.CreatedAt = time.Now().UTC()
	cp := *rec
	s.records = append(s.records, &cp)
	return rec.ID, nil
}

func (s *fakeStore) ListByIdentity(ctx context.Context, owner models.Identity) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*Record{}
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].UserID == owner {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

func (s *fakeStore) Get(ctx context.Context, owner models.Identity, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id && r.UserID == owner {
			return r, nil
		}
	}
	return nil, ErrNotFound
}
