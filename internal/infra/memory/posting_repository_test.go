package memory

import (
	"context"
	"testing"
	"time"

	"job-listings/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostingRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewPostingRepository()
	now := time.Now().UTC()

	p := &domain.JobPosting{ID: "1", Title: "Go Engineer", Company: "Acme", Active: true, PostedAt: &now}
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Go Engineer", got.Title)

	got.Title = "mutated"
	again, err := repo.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Go Engineer", again.Title)

	require.NoError(t, repo.Delete(ctx, "1"))
	_, err = repo.Get(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrPostingNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "1"), domain.ErrPostingNotFound)
}

func TestPostingRepository_UpdateRequiresExisting(t *testing.T) {
	ctx := context.Background()
	repo := NewPostingRepository()
	now := time.Now().UTC()

	p := &domain.JobPosting{ID: "1", Title: "Go Engineer", Company: "Acme", Active: true, PostedAt: &now}
	assert.ErrorIs(t, repo.Update(ctx, p), domain.ErrPostingNotFound)
	_, err := repo.Get(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrPostingNotFound)

	require.NoError(t, repo.Save(ctx, p))
	p.Title = "Staff Go Engineer"
	require.NoError(t, repo.Update(ctx, p))
	got, err := repo.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Staff Go Engineer", got.Title)

	require.NoError(t, repo.Delete(ctx, "1"))
	assert.ErrorIs(t, repo.Update(ctx, p), domain.ErrPostingNotFound)
	_, err = repo.Get(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrPostingNotFound)
}

func TestPostingRepository_ListSearches(t *testing.T) {
	ctx := context.Background()
	repo := NewPostingRepository()
	for i, title := range []string{"Backend Engineer", "Designer", "Platform engineer"} {
		at := time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Save(ctx, &domain.JobPosting{ID: title, Title: title, PostedAt: &at}))
	}

	page, err := repo.List(ctx, domain.PageRequest{Size: 10, Query: "ENGINEER"})
	require.NoError(t, err)
	require.Len(t, page.Content, 2)
	assert.Equal(t, "Platform engineer", page.Content[0].Title)
	assert.EqualValues(t, 2, page.TotalElements)
}

func TestPostingRepository_ExpireBefore(t *testing.T) {
	ctx := context.Background()
	repo := NewPostingRepository()
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh := time.Now().UTC()

	require.NoError(t, repo.Save(ctx, &domain.JobPosting{ID: "old", Active: true, PostedAt: &old}))
	require.NoError(t, repo.Save(ctx, &domain.JobPosting{ID: "fresh", Active: true, PostedAt: &fresh}))

	n, err := repo.ExpireBefore(ctx, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, got.Active)

	n, err = repo.ExpireBefore(ctx, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLocker(t *testing.T) {
	ctx := context.Background()
	locker := NewLocker()

	lock, err := locker.Lock(ctx, "sweep")
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "sweep")
	assert.ErrorIs(t, err, domain.ErrLockNotAcquired)

	require.NoError(t, lock.Unlock(ctx))
	require.NoError(t, lock.Unlock(ctx))

	again, err := locker.Lock(ctx, "sweep")
	require.NoError(t, err)
	require.NoError(t, again.Unlock(ctx))
}
