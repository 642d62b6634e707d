// internal/console/coordinator.go
package console

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"job-listings/internal/domain"
	"job-listings/internal/events"
)

// JobsAPI is the part of the jobs client the console needs.
type JobsAPI interface {
	PostingSaver
	PostingLister
}

// Options configures a Coordinator.
type Options struct {
	PageSize int
	Confirm  Confirmer
}

// Coordinator owns the selected posting and keeps the form and list in step:
// every successful mutation clears the selection and makes the list reload.
type Coordinator struct {
	mu          sync.Mutex
	form        *Form
	list        *List
	bus         *events.Bus
	selected    *domain.JobPosting
	revision    uint64
	unsubscribe func()
	logger      *slog.Logger
}

func NewCoordinator(api JobsAPI, bus *events.Bus, opts Options, logger *slog.Logger) (*Coordinator, error) {
	c := &Coordinator{
		form:   NewForm(api, logger),
		list:   NewList(api, opts.PageSize, opts.Confirm, logger),
		bus:    bus,
		logger: logger.With("component", "coordinator"),
	}

	unsubscribe, err := bus.Subscribe(events.EventPostingsChanged, func(ctx context.Context, _ events.Event) error {
		return c.list.Load(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe list to posting changes: %w", err)
	}
	c.unsubscribe = unsubscribe

	c.form.OnSuccess(func(ctx context.Context, saved domain.JobPosting, created bool) {
		kind := events.ChangeUpdated
		if created {
			kind = events.ChangeCreated
		}
		c.handleMutation(ctx, kind, saved.ID)
	})
	c.form.OnCancel(func() { c.Select(nil) })
	c.list.OnDeleted(func(ctx context.Context, id string) {
		c.handleMutation(ctx, events.ChangeDeleted, id)
	})
	c.list.OnEdit(func(p domain.JobPosting) { c.Select(&p) })

	return c, nil
}

func (c *Coordinator) Form() *Form { return c.form }

func (c *Coordinator) List() *List { return c.list }

// Selected returns the posting being edited, if any.
func (c *Coordinator) Selected() (domain.JobPosting, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return domain.JobPosting{}, false
	}
	return *c.selected, true
}

// Revision counts the mutations seen so far.
func (c *Coordinator) Revision() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revision
}

// Select binds p into the form, or returns the form to create phase for nil.
func (c *Coordinator) Select(p *domain.JobPosting) {
	c.mu.Lock()
	if p == nil {
		c.selected = nil
	} else {
		selected := *p
		c.selected = &selected
	}
	c.mu.Unlock()
	c.form.Bind(p)
}

func (c *Coordinator) handleMutation(ctx context.Context, kind, id string) {
	c.mu.Lock()
	c.selected = nil
	c.revision++
	revision := c.revision
	c.mu.Unlock()

	c.form.Bind(nil)

	c.logger.Debug("postings changed", "kind", kind, "id", id, "revision", revision)
	event := events.Event{
		Type:    events.EventPostingsChanged,
		Payload: events.PostingChange{Kind: kind, ID: id},
	}
	if err := c.bus.Publish(ctx, event); err != nil {
		c.logger.Warn("refresh after change failed", "kind", kind, "error", err)
	}
}

// Close detaches the list from the bus and stops it applying responses.
func (c *Coordinator) Close() {
	c.unsubscribe()
	c.list.Close()
}
