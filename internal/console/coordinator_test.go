package console

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	http_api "job-listings/internal/api/http"
	"job-listings/internal/domain"
	"job-listings/internal/events"
	http_infra "job-listings/internal/infra/http"
	"job-listings/internal/infra/memory"
	"job-listings/internal/logging"
	"job-listings/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T, api JobsAPI, confirm Confirmer) (*Coordinator, *events.Bus) {
	t.Helper()
	bus := events.NewBus(logging.Discard())
	c, err := NewCoordinator(api, bus, Options{PageSize: 10, Confirm: confirm}, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, bus
}

func TestCoordinator_CreateTriggersOneReload(t *testing.T) {
	ctx := context.Background()
	api := newRecordingAPI()
	c, _ := newTestCoordinator(t, api, nil)
	require.NoError(t, c.List().Load(ctx))

	require.NoError(t, c.Form().Set(FieldTitle, "Dev"))
	require.NoError(t, c.Form().Set(FieldCompany, "Acme"))
	require.NoError(t, c.Form().Submit(ctx))

	assert.Len(t, api.listCalls(), 2)
	assert.EqualValues(t, 1, c.Revision())
	assert.EqualValues(t, 1, c.List().Snapshot().Data.TotalElements)
	assert.Equal(t, PhaseCreate, c.Form().Phase())
}

func TestCoordinator_EditSaveClearsSelectionAndKeepsPage(t *testing.T) {
	ctx := context.Background()
	api := newRecordingAPI()
	seedN(t, api, 15)
	c, _ := newTestCoordinator(t, api, nil)

	require.NoError(t, c.List().Load(ctx))
	require.NoError(t, c.List().Next(ctx))
	target := c.List().Snapshot().Data.Content[0]

	require.NoError(t, c.List().Edit(target.ID))
	selected, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, target.ID, selected.ID)
	assert.Equal(t, PhaseEdit, c.Form().Phase())

	require.NoError(t, c.Form().Set(FieldTitle, "Renamed"))
	require.NoError(t, c.Form().Submit(ctx))

	updates := api.updateCalls()
	require.Len(t, updates, 1)
	assert.Equal(t, target.ID, updates[0].ID)

	_, ok = c.Selected()
	assert.False(t, ok)
	assert.Equal(t, PhaseCreate, c.Form().Phase())

	calls := api.listCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, 1, calls[2].Page)
	assert.Equal(t, 1, c.List().Snapshot().Page)
}

func TestCoordinator_DeleteClearsSelectionAndReloadsOnce(t *testing.T) {
	ctx := context.Background()
	api := newRecordingAPI()
	posted := api.seed(t, "Dev", "Ops")
	c, _ := newTestCoordinator(t, api, always(true))
	require.NoError(t, c.List().Load(ctx))

	require.NoError(t, c.List().Edit(posted[1].ID))
	deleted, err := c.List().Delete(ctx, posted[0].ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	assert.Len(t, api.listCalls(), 2)
	assert.EqualValues(t, 1, c.Revision())
	_, ok := c.Selected()
	assert.False(t, ok)
}

func TestCoordinator_PublishesChanges(t *testing.T) {
	ctx := context.Background()
	api := newRecordingAPI()
	c, bus := newTestCoordinator(t, api, always(true))

	var changes []events.PostingChange
	_, err := bus.Subscribe(events.EventPostingsChanged, func(_ context.Context, e events.Event) error {
		changes = append(changes, e.Payload.(events.PostingChange))
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, c.Form().Set(FieldTitle, "Dev"))
	require.NoError(t, c.Form().Set(FieldCompany, "Acme"))
	require.NoError(t, c.Form().Submit(ctx))
	require.Len(t, changes, 1)
	assert.Equal(t, events.ChangeCreated, changes[0].Kind)

	id := changes[0].ID
	require.NoError(t, c.List().Edit(id))
	require.NoError(t, c.Form().Submit(ctx))
	_, err = c.List().Delete(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, []events.PostingChange{
		{Kind: events.ChangeCreated, ID: id},
		{Kind: events.ChangeUpdated, ID: id},
		{Kind: events.ChangeDeleted, ID: id},
	}, changes)
}

func TestCoordinator_CancelAndSelect(t *testing.T) {
	c, _ := newTestCoordinator(t, newRecordingAPI(), nil)
	p := domain.JobPosting{ID: "1", Title: "Dev", Company: "Acme", Active: true}

	c.Select(&p)
	assert.Equal(t, PhaseEdit, c.Form().Phase())

	c.Form().Cancel()
	_, ok := c.Selected()
	assert.False(t, ok)
	assert.Equal(t, PhaseCreate, c.Form().Phase())
	assert.Zero(t, c.Revision())
}

func TestCoordinator_CloseStopsRefresh(t *testing.T) {
	ctx := context.Background()
	api := newRecordingAPI()
	c, bus := newTestCoordinator(t, api, nil)

	c.Close()
	require.NoError(t, bus.Publish(ctx, events.Event{Type: events.EventPostingsChanged}))
	assert.Empty(t, api.listCalls())
}

// The whole stack: view models, HTTP client, REST handler and storage.
func TestCoordinator_AgainstAPIServer(t *testing.T) {
	ctx := context.Background()
	service := usecase.NewPostingService(memory.NewPostingRepository(), logging.Discard())
	mux := http.NewServeMux()
	http_api.NewPostingHandler(service, http_api.DefaultBasePath, logging.Discard()).RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := http_infra.NewJobsClient(http_infra.ClientConfig{BaseURL: server.URL}, logging.Discard())
	require.NoError(t, err)
	c, _ := newTestCoordinator(t, client, always(true))

	require.NoError(t, c.List().Load(ctx))
	assert.EqualValues(t, 0, c.List().Snapshot().Data.TotalElements)

	// Server-side validation surfaces as field errors on the form.
	require.NoError(t, c.Form().Set(FieldTitle, "Dev"))
	require.NoError(t, c.Form().Set(FieldCompany, "Acme"))
	require.NoError(t, c.Form().Set(FieldSalaryFrom, "90000"))
	require.NoError(t, c.Form().Set(FieldSalaryTo, "50000"))
	require.Error(t, c.Form().Submit(ctx))
	assert.Equal(t, map[string]string{"salaryTo": "Salary To must not be less than Salary From"}, c.Form().FieldErrors())
	assert.Equal(t, "Salary To must not be less than Salary From", c.Form().Message())

	require.NoError(t, c.Form().Set(FieldSalaryTo, "120000"))
	require.NoError(t, c.Form().Submit(ctx))

	snap := c.List().Snapshot()
	require.Len(t, snap.Data.Content, 1)
	created := snap.Data.Content[0]
	assert.Equal(t, "Dev", created.Title)
	require.NotNil(t, created.SalaryTo)
	assert.Equal(t, 120000.0, *created.SalaryTo)

	deleted, err := c.List().Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, c.List().Snapshot().Data.Content)

	_, err = c.List().Delete(ctx, created.ID)
	var me *domain.MessageError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, http.StatusNotFound, me.Status)
}
