package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikodemkorbiel18-create/scale-5000/internal/models"
	"github.com/nikodemkorbiel18-create/scale-5000/pkg/logger"
	"github.com/nikodemkorbiel18-create/scale-5000/pkg/metrics"
)

// Store persists audits. Implementations must filter every read by owner.
type Store interface {
	// Create assigns ID and CreatedAt, stores the record atomically and
	// returns the ID.
	Create(ctx context.Context, rec *Record) (string, error)
	// ListByIdentity returns the owner's audits newest first; an empty
	// slice when there are none.
	ListByIdentity(ctx context.Context, owner models.Identity) ([]*Record, error)
	// Get returns one audit of owner, or ErrNotFound.
	Get(ctx context.Context, owner models.Identity, id string) (*Record, error)
}

// Service runs the generation pipeline: validate, generate, store.
type Service struct {
	gen   Generator
	store Store
}

func NewService(gen Generator, store Store) *Service {
	return &Service{gen: gen, store: store}
}

// Mode reports the configured generation profile.
func (s *Service) Mode() Mode { return s.gen.Mode() }

// Submit generates and persists an audit for owner. Nothing is stored when
// generation fails.
func (s *Service) Submit(ctx context.Context, owner models.Identity, in Intake) (*Record, error) {
	if owner.IsZero() {
		return nil, ErrMissingIdentity
	}
	in = in.Normalize()
	if in.BusinessDescription == "" {
		return nil, fmt.Errorf("%w: business description required", ErrValidation)
	}

	mode := string(s.gen.Mode())
	res, err := s.gen.Generate(ctx, in)
	if err != nil {
		metrics.AuditsGenerated.WithLabelValues(mode, Outcome(err)).Inc()
		logger.Errorf("audit generation failed user=%s kind=%s: %v", owner, Outcome(err), err)
		return nil, err
	}

	rec := &Record{
		UserID:              owner,
		BusinessDescription: in.BusinessDescription,
		CurrentRevenue:      in.CurrentRevenue,
		Response:            res.Text,
		Result:              res.Structured,
		Mode:                res.Mode,
	}
	id, err := s.store.Create(ctx, rec)
	if err != nil {
		if !errors.Is(err, ErrStorageUnavailable) {
			err = fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		metrics.AuditsGenerated.WithLabelValues(mode, Outcome(err)).Inc()
		logger.Errorf("audit persist failed user=%s kind=%s: %v", owner, Outcome(err), err)
		return nil, err
	}
	rec.ID = id
	metrics.AuditsGenerated.WithLabelValues(mode, "ok").Inc()
	logger.Infof("audit stored id=%s user=%s mode=%s", id, owner, mode)
	return rec, nil
}

// History returns owner's audits newest first.
func (s *Service) History(ctx context.Context, owner models.Identity) ([]*Record, error) {
	if owner.IsZero() {
		return nil, ErrMissingIdentity
	}
	return s.store.ListByIdentity(ctx, owner)
}

// Get returns a single audit owned by owner.
func (s *Service) Get(ctx context.Context, owner models.Identity, id string) (*Record, error) {
	if owner.IsZero() {
		return nil, ErrMissingIdentity
	}
	return s.store.Get(ctx, owner, id)
}
