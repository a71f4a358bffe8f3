package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/nikodemkorbiel18-create/scale-5000/internal/audit"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/models"
	"github.com/stretchr/testify/require"
)

const (
	ownerA models.Identity = "user-a"
	ownerB models.Identity = "user-b"
)

func sampleRecord(owner models.Identity, desc string) *audit.Record {
	return &audit.Record{
		UserID:              owner,
		BusinessDescription: desc,
		CurrentRevenue:      "$10k/mo",
		Response:            "# Automation Readiness Assessment",
		Mode:                audit.ModeStructured,
		Result: &audit.StructuredResult{
			ReadinessScore: 70,
			Summary:        "Solid base.",
			Opportunities: []audit.Opportunity{
				{Title: "Auto scheduling", Description: "Booking links", TimeSavings: "4h/week", Priority: audit.PriorityHigh, Difficulty: "Low", EstimatedROI: "3x"},
			},
			NextSteps:   []string{"Pick a tool"},
			Bottlenecks: []string{"Manual scheduling"},
		},
	}
}

// runStoreContract checks the properties every audit.Store backend must hold.
func runStoreContract(t *testing.T, store audit.Store) {
	ctx := context.Background()

	t.Run("empty history is not an error", func(t *testing.T) {
		recs, err := store.ListByIdentity(ctx, "nobody")
		require.NoError(t, err)
		require.NotNil(t, recs)
		require.Len(t, recs, 0)
	})

	t.Run("read after write", func(t *testing.T) {
		rec := sampleRecord(ownerA, "Tutoring studio, 50 students/month")
		id, err := store.Create(ctx, rec)
		require.NoError(t, err)
		require.NotEmpty(t, id)
		require.Equal(t, id, rec.ID)
		require.False(t, rec.CreatedAt.IsZero())

		recs, err := store.ListByIdentity(ctx, ownerA)
		require.NoError(t, err)
		require.NotEmpty(t, recs)
		require.Equal(t, id, recs[0].ID)
		require.Equal(t, "Tutoring studio, 50 students/month", recs[0].BusinessDescription)
		require.Equal(t, "$10k/mo", recs[0].CurrentRevenue)
		require.NotNil(t, recs[0].Result)
		require.Equal(t, 70, recs[0].Result.ReadinessScore)
		require.Equal(t, audit.PriorityHigh, recs[0].Result.Opportunities[0].Priority)

		got, err := store.Get(ctx, ownerA, id)
		require.NoError(t, err)
		require.Equal(t, id, got.ID)
	})

	t.Run("isolation and ordering under interleaved creates", func(t *testing.T) {
		const perOwner = 12
		var wg sync.WaitGroup
		errs := make(chan error, 2*perOwner)
		for i := 0; i < perOwner; i++ {
			for _, owner := range []models.Identity{ownerA, ownerB} {
				wg.Add(1)
				go func(owner models.Identity, i int) {
					defer wg.Done()
					_, err := store.Create(ctx, sampleRecord(owner, fmt.Sprintf("%s-%d", owner, i)))
					errs <- err
				}(owner, i)
			}
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		for _, owner := range []models.Identity{ownerA, ownerB} {
			recs, err := store.ListByIdentity(ctx, owner)
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(recs), perOwner)
			for i, r := range recs {
				require.Equal(t, owner, r.UserID, "record %s leaked across owners", r.ID)
				if i > 0 {
					require.False(t, r.CreatedAt.After(recs[i-1].CreatedAt), "history not newest first at %d", i)
				}
			}
		}
	})

	t.Run("get is owner filtered", func(t *testing.T) {
		id, err := store.Create(ctx, sampleRecord(ownerB, "b's audit"))
		require.NoError(t, err)

		_, err = store.Get(ctx, ownerA, id)
		require.ErrorIs(t, err, audit.ErrNotFound)

		got, err := store.Get(ctx, ownerB, id)
		require.NoError(t, err)
		require.Equal(t, ownerB, got.UserID)
	})

	t.Run("simple mode record without structured result", func(t *testing.T) {
		rec := &audit.Record{UserID: ownerA, BusinessDescription: "Music school", Response: "prose", Mode: audit.ModeSimple}
		id, err := store.Create(ctx, rec)
		require.NoError(t, err)
		got, err := store.Get(ctx, ownerA, id)
		require.NoError(t, err)
		require.Nil(t, got.Result)
		require.Equal(t, "", got.CurrentRevenue)
		require.Equal(t, audit.ModeSimple, got.Mode)
	})
}
