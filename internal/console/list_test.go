package console

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"job-listings/internal/domain"
	"job-listings/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedN(t *testing.T, api *recordingAPI, n int) {
	t.Helper()
	titles := make([]string, n)
	for i := range titles {
		titles[i] = fmt.Sprintf("Job %02d", i)
	}
	api.seed(t, titles...)
}

func TestList_LoadAndSummary(t *testing.T) {
	api := newRecordingAPI()
	seedN(t, api, 12)
	list := NewList(api, 10, nil, logging.Discard())

	assert.Equal(t, StatusIdle, list.Snapshot().Status)
	require.NoError(t, list.Load(context.Background()))

	snap := list.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	require.NotNil(t, snap.Data)
	assert.Len(t, snap.Data.Content, 10)

	totals, showing := list.Summary()
	assert.Equal(t, "Total: 12 — Page 1 of 2", totals)
	assert.Equal(t, "Showing 10 of 12", showing)
}

func TestList_SummaryOnEmptyResult(t *testing.T) {
	list := NewList(newRecordingAPI(), 10, nil, logging.Discard())
	require.NoError(t, list.Load(context.Background()))

	totals, showing := list.Summary()
	assert.Equal(t, "Total: 0 — Page 1 of 1", totals)
	assert.Equal(t, "Showing 0 of 0", showing)
	assert.False(t, list.CanNext())
	assert.False(t, list.CanPrev())
}

func TestList_NextPrevAreGuarded(t *testing.T) {
	ctx := context.Background()
	api := newRecordingAPI()
	seedN(t, api, 25)
	list := NewList(api, 10, nil, logging.Discard())

	require.NoError(t, list.Prev(ctx))
	assert.Empty(t, api.listCalls())
	require.NoError(t, list.Next(ctx))
	assert.Empty(t, api.listCalls())

	require.NoError(t, list.Load(ctx))
	assert.False(t, list.CanPrev())
	assert.True(t, list.CanNext())

	require.NoError(t, list.Next(ctx))
	require.NoError(t, list.Next(ctx))
	snap := list.Snapshot()
	assert.Equal(t, 2, snap.Page)
	assert.True(t, snap.Data.Last)
	assert.False(t, snap.CanNext)
	assert.Len(t, snap.Data.Content, 5)

	calls := len(api.listCalls())
	require.NoError(t, list.Next(ctx))
	assert.Len(t, api.listCalls(), calls)

	require.NoError(t, list.Prev(ctx))
	assert.Equal(t, 1, list.Snapshot().Page)
	assert.Equal(t, 1, api.listCalls()[len(api.listCalls())-1].Page)
}

func TestList_SearchResetsToFirstPage(t *testing.T) {
	ctx := context.Background()
	api := newRecordingAPI()
	seedN(t, api, 25)
	api.seed(t, "Go engineer", "Platform Engineer")
	list := NewList(api, 10, nil, logging.Discard())

	require.NoError(t, list.Load(ctx))
	require.NoError(t, list.Next(ctx))
	require.Equal(t, 1, list.Snapshot().Page)

	list.SetSearchInput("engineer")
	assert.Equal(t, "", list.Snapshot().Query)

	require.NoError(t, list.Search(ctx))
	calls := api.listCalls()
	last := calls[len(calls)-1]
	assert.Equal(t, domain.PageRequest{Page: 0, Size: 10, Query: "engineer"}, last)

	snap := list.Snapshot()
	assert.Equal(t, 0, snap.Page)
	assert.Equal(t, "engineer", snap.Query)
	assert.EqualValues(t, 2, snap.Data.TotalElements)
}

func TestList_ReloadKeepsPageAndQuery(t *testing.T) {
	ctx := context.Background()
	api := newRecordingAPI()
	seedN(t, api, 25)
	list := NewList(api, 10, nil, logging.Discard())

	list.SetSearchInput("job")
	require.NoError(t, list.Search(ctx))
	require.NoError(t, list.Next(ctx))
	require.NoError(t, list.Load(ctx))

	calls := api.listCalls()
	assert.Equal(t, domain.PageRequest{Page: 1, Size: 10, Query: "job"}, calls[len(calls)-1])
}

func TestList_FollowsServerPageNumber(t *testing.T) {
	ctx := context.Background()
	api := newRecordingAPI()
	seedN(t, api, 11)
	list := NewList(api, 10, nil, logging.Discard())

	require.NoError(t, list.Load(ctx))
	require.NoError(t, list.Next(ctx))
	require.Equal(t, 1, list.Snapshot().Page)

	require.NoError(t, api.service.Delete(ctx, list.Snapshot().Data.Content[0].ID))
	require.NoError(t, list.Load(ctx))

	snap := list.Snapshot()
	assert.Equal(t, 0, snap.Page)
	assert.Len(t, snap.Data.Content, 10)
	assert.False(t, snap.CanPrev)
}

// fixedLister answers every List call with the same envelope.
type fixedLister struct {
	page  domain.Page
	calls int
}

func (f *fixedLister) List(context.Context, domain.PageRequest) (*domain.Page, error) {
	f.calls++
	page := f.page
	return &page, nil
}

func (f *fixedLister) Delete(context.Context, string) error { return nil }

func TestList_PagingHonoursFirstAndLastFlags(t *testing.T) {
	ctx := context.Background()

	last := &fixedLister{page: domain.Page{
		Content: []domain.JobPosting{{ID: "1", Title: "Dev"}}, TotalElements: 30,
		TotalPages: 3, Number: 0, Size: 10, First: true, Last: true,
	}}
	list := NewList(last, 10, nil, logging.Discard())
	require.NoError(t, list.Load(ctx))
	assert.False(t, list.CanNext())
	require.NoError(t, list.Next(ctx))
	assert.Equal(t, 1, last.calls)
	assert.Equal(t, 0, list.Snapshot().Page)

	first := &fixedLister{page: domain.Page{
		Content: []domain.JobPosting{{ID: "1", Title: "Dev"}}, TotalElements: 30,
		TotalPages: 3, Number: 1, Size: 10, First: true, Last: false,
	}}
	list = NewList(first, 10, nil, logging.Discard())
	require.NoError(t, list.Load(ctx))
	assert.False(t, list.CanPrev())
	require.NoError(t, list.Prev(ctx))
	assert.Equal(t, 1, first.calls)
	assert.True(t, list.CanNext())
}

func TestList_DropsStaleResponses(t *testing.T) {
	lister := &gatedLister{}
	list := NewList(lister, 10, nil, logging.Discard())
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- list.Load(ctx) }()
	require.Eventually(t, func() bool { return lister.calls() == 1 }, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() { second <- list.Load(ctx) }()
	require.Eventually(t, func() bool { return lister.calls() == 2 }, time.Second, time.Millisecond)

	lister.answer(1, pageOf("new"))
	require.NoError(t, <-second)
	lister.answer(0, pageOf("old"))
	require.NoError(t, <-first)

	snap := list.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	require.Len(t, snap.Data.Content, 1)
	assert.Equal(t, "new", snap.Data.Content[0].Title)
}

func TestList_IgnoresResponsesAfterClose(t *testing.T) {
	lister := &gatedLister{}
	list := NewList(lister, 10, nil, logging.Discard())

	done := make(chan error, 1)
	go func() { done <- list.Load(context.Background()) }()
	require.Eventually(t, func() bool { return lister.calls() == 1 }, time.Second, time.Millisecond)

	list.Close()
	lister.answer(0, pageOf("late"))
	require.NoError(t, <-done)

	assert.Nil(t, list.Snapshot().Data)
	require.NoError(t, list.Load(context.Background()))
	assert.Equal(t, 1, lister.calls())
}

func TestList_LoadFailure(t *testing.T) {
	lister := &gatedLister{}
	list := NewList(lister, 10, nil, logging.Discard())
	boom := &domain.MessageError{Status: 500, Message: "Internal Server Error"}

	done := make(chan error, 1)
	go func() { done <- list.Load(context.Background()) }()
	require.Eventually(t, func() bool { return lister.calls() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, StatusLoading, list.Snapshot().Status)

	lister.mu.Lock()
	ch := lister.pending[0]
	lister.mu.Unlock()
	ch <- listResult{err: boom}

	assert.ErrorIs(t, <-done, boom)
	snap := list.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.ErrorIs(t, snap.Err, boom)
}

func TestList_DeleteDeclinedDoesNothing(t *testing.T) {
	ctx := context.Background()
	api := newRecordingAPI()
	posted := api.seed(t, "Dev")
	list := NewList(api, 10, always(false), logging.Discard())
	require.NoError(t, list.Load(ctx))

	deleted, err := list.Delete(ctx, posted[0].ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, api.deleteCalls())
	assert.Len(t, api.listCalls(), 1)
}

func TestList_DeleteConfirmedReloadsOnce(t *testing.T) {
	ctx := context.Background()
	api := newRecordingAPI()
	posted := api.seed(t, "Dev", "Ops")
	var prompts []string
	confirm := func(_ context.Context, prompt string) bool {
		prompts = append(prompts, prompt)
		return true
	}
	list := NewList(api, 10, confirm, logging.Discard())
	require.NoError(t, list.Load(ctx))

	deleted, err := list.Delete(ctx, posted[0].ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []string{"Delete this job?"}, prompts)
	assert.Equal(t, []string{posted[0].ID}, api.deleteCalls())
	assert.Len(t, api.listCalls(), 2)
	assert.EqualValues(t, 1, list.Snapshot().Data.TotalElements)
}

func TestList_DeleteNotifiesParentInsteadOfReloading(t *testing.T) {
	ctx := context.Background()
	api := newRecordingAPI()
	posted := api.seed(t, "Dev")
	list := NewList(api, 10, always(true), logging.Discard())
	require.NoError(t, list.Load(ctx))

	var notified []string
	list.OnDeleted(func(_ context.Context, id string) { notified = append(notified, id) })

	_, err := list.Delete(ctx, posted[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{posted[0].ID}, notified)
	assert.Len(t, api.listCalls(), 1)
	// No local splice: the stale row stays until the parent refreshes.
	assert.Len(t, list.Snapshot().Data.Content, 1)
}

func TestList_DeleteFailureLeavesState(t *testing.T) {
	ctx := context.Background()
	api := newRecordingAPI()
	posted := api.seed(t, "Dev")
	api.deleteErr = &domain.MessageError{Status: 500, Message: "Internal Server Error"}
	list := NewList(api, 10, always(true), logging.Discard())
	require.NoError(t, list.Load(ctx))
	before := list.Snapshot()

	deleted, err := list.Delete(ctx, posted[0].ID)
	assert.False(t, deleted)
	var me *domain.MessageError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, before, list.Snapshot())
	assert.Len(t, api.listCalls(), 1)
}

func TestList_EditReportsRecord(t *testing.T) {
	ctx := context.Background()
	api := newRecordingAPI()
	posted := api.seed(t, "Dev")
	list := NewList(api, 10, nil, logging.Discard())
	require.NoError(t, list.Load(ctx))

	var edited []domain.JobPosting
	list.OnEdit(func(p domain.JobPosting) { edited = append(edited, p) })

	require.NoError(t, list.Edit(posted[0].ID))
	require.Len(t, edited, 1)
	assert.Equal(t, "Dev", edited[0].Title)

	assert.ErrorIs(t, list.Edit("nope"), ErrNotOnPage)
}
