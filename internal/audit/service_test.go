package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nikodemkorbiel18-create/scale-5000/internal/models"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, c ChatClient, store Store) *Service {
	t.Helper()
	g, err := NewGenerator(ModeStructured, c, GeneratorConfig{Timeout: time.Second, RetryMalformed: true})
	require.NoError(t, err)
	return NewService(g, store)
}

func TestSubmit_StoresAndReturnsRecord(t *testing.T) {
	c := &scriptedClient{replies: []string{validResult}}
	store := &fakeStore{}
	svc := newTestService(t, c, store)
	require.Equal(t, ModeStructured, svc.Mode())

	rec, err := svc.Submit(context.Background(), "user-1", Intake{BusinessDescription: "  Tutoring studio  ", CurrentRevenue: "$10k/mo"})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	require.Equal(t, models.Identity("user-1"), rec.UserID)
	require.Equal(t, "Tutoring studio", rec.BusinessDescription)
	require.Equal(t, "$10k/mo", rec.CurrentRevenue)
	require.Equal(t, 72, rec.Result.ReadinessScore)
	require.Contains(t, rec.Response, DisclaimerLine)

	hist, err := svc.History(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	require.Equal(t, rec.ID, hist[0].ID)

	got, err := svc.Get(context.Background(), "user-1", rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.ID, got.ID)
	_, err = svc.Get(context.Background(), "user-2", rec.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSubmit_ValidationTouchesNothing(t *testing.T) {
	c := &scriptedClient{replies: []string{validResult}}
	store := &fakeStore{}
	svc := newTestService(t, c, store)

	_, err := svc.Submit(context.Background(), "user-1", Intake{BusinessDescription: "   ", CurrentRevenue: "$1"})
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, 0, c.calls())
	require.Equal(t, 0, store.creates)
}

func TestSubmit_MissingIdentity(t *testing.T) {
	c := &scriptedClient{replies: []string{validResult}}
	store := &fakeStore{}
	svc := newTestService(t, c, store)

	_, err := svc.Submit(context.Background(), "", Intake{BusinessDescription: "x"})
	require.ErrorIs(t, err, ErrMissingIdentity)
	_, err = svc.History(context.Background(), "")
	require.ErrorIs(t, err, ErrMissingIdentity)
	require.Equal(t, 0, c.calls())
	require.Equal(t, 0, store.creates)
}

func TestSubmit_GenerationFailureStoresNothing(t *testing.T) {
	c := &scriptedClient{replies: []string{validResult}, delay: 2 * time.Second}
	store := &fakeStore{}
	g, err := NewGenerator(ModeStructured, c, GeneratorConfig{Timeout: 20 * time.Millisecond})
	require.NoError(t, err)
	svc := NewService(g, store)

	_, err = svc.Submit(context.Background(), "user-1", Intake{BusinessDescription: "x"})
	require.ErrorIs(t, err, ErrProviderUnavailable)
	require.Equal(t, 0, store.creates)

	hist, err := svc.History(context.Background(), "user-1")
	require.NoError(t, err)
	require.Empty(t, hist)
}

func TestSubmit_StoreFailureIsStorageUnavailable(t *testing.T) {
	c := &scriptedClient{replies: []string{validResult}}
	store := &fakeStore{err: errors.New("disk full")}
	svc := newTestService(t, c, store)

	_, err := svc.Submit(context.Background(), "user-1", Intake{BusinessDescription: "x"})
	require.ErrorIs(t, err, ErrStorageUnavailable)
	require.Equal(t, 1, store.creates)
}
