// internal/console/list.go
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"job-listings/internal/domain"
)

// ErrNotOnPage is returned by Edit for an id missing from the loaded page.
var ErrNotOnPage = errors.New("posting is not on the current page")

// DeletePrompt is the question put to the confirmer before a delete.
const DeletePrompt = "Delete this job?"

// ListStatus is the load state of the list.
type ListStatus string

const (
	StatusIdle    ListStatus = "idle"
	StatusLoading ListStatus = "loading"
	StatusReady   ListStatus = "ready"
	StatusFailed  ListStatus = "failed"
)

// PostingLister reads and deletes postings.
type PostingLister interface {
	List(ctx context.Context, req domain.PageRequest) (*domain.Page, error)
	Delete(ctx context.Context, id string) error
}

// Confirmer asks the user a yes/no question.
type Confirmer func(ctx context.Context, prompt string) bool

// ListSnapshot is a point-in-time copy of the list state for rendering.
type ListSnapshot struct {
	Status      ListStatus
	Page        int
	Size        int
	Query       string
	SearchInput string
	Data        *domain.Page
	Err         error
	CanPrev     bool
	CanNext     bool
}

// List is the paginated, searchable view model over the postings.
type List struct {
	mu          sync.Mutex
	api         PostingLister
	confirm     Confirmer
	page        int
	size        int
	query       string
	searchInput string
	status      ListStatus
	data        *domain.Page
	err         error
	seq         uint64
	closed      bool
	onDeleted   func(ctx context.Context, id string)
	onEdit      func(p domain.JobPosting)
	logger      *slog.Logger
}

// NewList returns an idle list. A nil confirmer declines every delete.
func NewList(api PostingLister, size int, confirm Confirmer, logger *slog.Logger) *List {
	if size <= 0 {
		size = domain.DefaultPageSize
	}
	return &List{
		api:     api,
		confirm: confirm,
		size:    size,
		status:  StatusIdle,
		logger:  logger.With("component", "posting-list"),
	}
}

// OnDeleted sets the parent callback fired after a successful delete. When
// unset the list reloads itself.
func (l *List) OnDeleted(fn func(ctx context.Context, id string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onDeleted = fn
}

// OnEdit sets the callback Edit reports the chosen record to.
func (l *List) OnEdit(fn func(p domain.JobPosting)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onEdit = fn
}

// Load fetches the current page and query. Only the response to the most
// recently issued request is applied; older ones are dropped, as is any
// response arriving after Close.
func (l *List) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.seq++
	seq := l.seq
	req := domain.PageRequest{Page: l.page, Size: l.size, Query: l.query}
	l.status = StatusLoading
	l.mu.Unlock()

	data, err := l.api.List(ctx, req)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || seq != l.seq {
		l.logger.Debug("dropping stale list response", "seq", seq, "latest", l.seq)
		return nil
	}
	if err != nil {
		l.status = StatusFailed
		l.err = err
		return err
	}
	l.status = StatusReady
	l.err = nil
	l.data = data
	l.page = data.Number
	return nil
}

// SetSearchInput changes the uncommitted search text.
func (l *List) SetSearchInput(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.searchInput = text
}

// Search commits the search input and loads its first page.
func (l *List) Search(ctx context.Context) error {
	l.mu.Lock()
	l.page = 0
	l.query = strings.TrimSpace(l.searchInput)
	l.mu.Unlock()
	return l.Load(ctx)
}

// Next loads the following page. It is a no-op on the last page.
func (l *List) Next(ctx context.Context) error {
	l.mu.Lock()
	if !l.canNextLocked() {
		l.mu.Unlock()
		return nil
	}
	l.page++
	l.mu.Unlock()
	return l.Load(ctx)
}

// Prev loads the preceding page. It is a no-op on the first page.
func (l *List) Prev(ctx context.Context) error {
	l.mu.Lock()
	if !l.canPrevLocked() {
		l.mu.Unlock()
		return nil
	}
	l.page--
	l.mu.Unlock()
	return l.Load(ctx)
}

func (l *List) CanNext() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.canNextLocked()
}

func (l *List) CanPrev() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.canPrevLocked()
}

// The paging guards honour the server's first/last flags as well as the
// page arithmetic.
func (l *List) canNextLocked() bool {
	return l.data != nil && !l.data.Last && l.page < l.data.TotalPages-1
}

func (l *List) canPrevLocked() bool {
	if l.data != nil && l.data.First {
		return false
	}
	return l.page > 0
}

// Edit reports the posting with id on the current page to the edit callback.
func (l *List) Edit(id string) error {
	l.mu.Lock()
	var (
		found domain.JobPosting
		ok    bool
	)
	if l.data != nil {
		for _, p := range l.data.Content {
			if p.ID == id {
				found, ok = p, true
				break
			}
		}
	}
	onEdit := l.onEdit
	l.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotOnPage, id)
	}
	if onEdit != nil {
		onEdit(found)
	}
	return nil
}

// Delete asks for confirmation and deletes the posting. It reports whether
// the posting was deleted. A declined prompt does nothing. On failure the
// list state is left as it was.
func (l *List) Delete(ctx context.Context, id string) (bool, error) {
	if l.confirm == nil || !l.confirm(ctx, DeletePrompt) {
		return false, nil
	}
	if err := l.api.Delete(ctx, id); err != nil {
		l.logger.Warn("delete failed", "id", id, "error", err)
		return false, err
	}
	l.logger.Info("posting deleted", "id", id)

	l.mu.Lock()
	onDeleted := l.onDeleted
	l.mu.Unlock()

	if onDeleted != nil {
		onDeleted(ctx, id)
		return true, nil
	}
	return true, l.Load(ctx)
}

// Snapshot copies the current state.
func (l *List) Snapshot() ListSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	var data *domain.Page
	if l.data != nil {
		copied := *l.data
		copied.Content = append([]domain.JobPosting(nil), l.data.Content...)
		data = &copied
	}
	return ListSnapshot{
		Status:      l.status,
		Page:        l.page,
		Size:        l.size,
		Query:       l.query,
		SearchInput: l.searchInput,
		Data:        data,
		Err:         l.err,
		CanPrev:     l.canPrevLocked(),
		CanNext:     l.canNextLocked(),
	}
}

// Summary returns the totals line and the showing line for the loaded page,
// or empty strings before the first successful load.
func (l *List) Summary() (totals, showing string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.data == nil {
		return "", ""
	}
	totals = fmt.Sprintf("Total: %d — Page %d of %d",
		l.data.TotalElements, l.data.Number+1, max(1, l.data.TotalPages))
	showing = fmt.Sprintf("Showing %d of %d", len(l.data.Content), l.data.TotalElements)
	return totals, showing
}

// Close stops the list from applying any further responses.
func (l *List) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}
