package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/pricing"
)

func TestCart_ConcurrentIncrements(t *testing.T) {
	f := newFixture(t)
	f.verifiedSeller(t, "user-1", "Shop")
	radio := f.approvedProduct(t, "user-1", "Radio", "036000291452", "20")
	offer := radio.Offers[1].String()
	ctx := context.Background()

	_, err := f.carts.Add(ctx, testTenant, testCustomer, []string{offer})
	require.NoError(t, err)

	const workers = 40
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.carts.UpdateCount(ctx, testTenant, testCustomer, pricing.CountUpdate{Increment: offer})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	view, err := f.carts.Get(ctx, testTenant, testCustomer)
	require.NoError(t, err)
	assert.Equal(t, workers+1, view.Items[offer].Count)
}

func TestPublish_ConcurrentSameUPC(t *testing.T) {
	f := newFixture(t)
	f.expectPublishSideEffects()
	f.verifiedSeller(t, "user-1", "Shop one")
	f.verifiedSeller(t, "user-2", "Shop two")
	f.simpleDraft(t, "user-1", "Radio", "036000291452", "20")
	f.simpleDraft(t, "user-2", "Radio too", "036000291452", "21")
	ctx := context.Background()

	users := []string{"user-1", "user-2"}
	errs := make([]error, len(users))
	var wg sync.WaitGroup
	for i, user := range users {
		wg.Add(1)
		go func(i int, user string) {
			defer wg.Done()
			_, errs[i] = f.publish.Publish(ctx, testTenant, user, nil)
		}(i, user)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperrors.Is(err, apperrors.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 1, f.repo.Counts()["product_identities"])
	assert.Equal(t, 1, f.repo.Counts()["product_variations"])
}

func TestDraft_ConcurrentSaves(t *testing.T) {
	f := newFixture(t)
	f.verifiedSeller(t, "user-1", "Shop")
	f.simpleDraft(t, "user-1", "Radio", "036000291452", "20")
	ctx := context.Background()

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.drafts.SaveDraft(ctx, testTenant, "user-1", fmt.Sprintf("draft %d", i))
		}(i)
	}
	wg.Wait()

	saved := 0
	for _, err := range errs {
		if err == nil {
			saved++
			continue
		}
		assertCode(t, err, apperrors.KindValidation, "DRAFT_EMPTY")
	}
	assert.Equal(t, 1, saved)
	assert.Equal(t, 1, f.repo.Counts()["saved_drafts"])

	active, err := f.drafts.GetActive(ctx, testTenant, "user-1")
	require.NoError(t, err)
	assert.True(t, active.IsEmpty())
}
