package console

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"job-listings/internal/domain"
	"job-listings/internal/infra/memory"
	"job-listings/internal/logging"
	"job-listings/internal/usecase"

	"github.com/stretchr/testify/require"
)

// recordingAPI serves from an in-memory posting service and records calls.
type recordingAPI struct {
	service *usecase.PostingService

	mu         sync.Mutex
	lists      []domain.PageRequest
	creates    []domain.Draft
	updates    []updateCall
	deletes    []string
	createErr  error
	updateErr  error
	deleteErr  error
	createGate chan struct{}
}

type updateCall struct {
	ID    string
	Draft domain.Draft
}

func newRecordingAPI() *recordingAPI {
	return &recordingAPI{
		service: usecase.NewPostingService(memory.NewPostingRepository(), logging.Discard()),
	}
}

func (a *recordingAPI) seed(t *testing.T, titles ...string) []domain.JobPosting {
	t.Helper()
	out := make([]domain.JobPosting, 0, len(titles))
	for _, title := range titles {
		p, err := a.service.Create(context.Background(), domain.Draft{Title: title, Company: "Acme", Active: true})
		require.NoError(t, err)
		out = append(out, *p)
	}
	return out
}

func (a *recordingAPI) List(ctx context.Context, req domain.PageRequest) (*domain.Page, error) {
	a.mu.Lock()
	a.lists = append(a.lists, req)
	a.mu.Unlock()
	return a.service.List(ctx, req)
}

func (a *recordingAPI) Create(ctx context.Context, draft domain.Draft) (*domain.JobPosting, error) {
	a.mu.Lock()
	a.creates = append(a.creates, draft)
	err, gate := a.createErr, a.createGate
	a.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return a.service.Create(ctx, draft)
}

func (a *recordingAPI) Update(ctx context.Context, id string, draft domain.Draft) (*domain.JobPosting, error) {
	a.mu.Lock()
	a.updates = append(a.updates, updateCall{ID: id, Draft: draft})
	err := a.updateErr
	a.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return a.service.Update(ctx, id, draft)
}

func (a *recordingAPI) Delete(ctx context.Context, id string) error {
	a.mu.Lock()
	a.deletes = append(a.deletes, id)
	err := a.deleteErr
	a.mu.Unlock()

	if err != nil {
		return err
	}
	return a.service.Delete(ctx, id)
}

func (a *recordingAPI) listCalls() []domain.PageRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.PageRequest(nil), a.lists...)
}

func (a *recordingAPI) createCalls() []domain.Draft {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Draft(nil), a.creates...)
}

func (a *recordingAPI) updateCalls() []updateCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]updateCall(nil), a.updates...)
}

func (a *recordingAPI) deleteCalls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.deletes...)
}

// gatedLister holds every List call until the test answers it.
type gatedLister struct {
	mu      sync.Mutex
	pending []chan listResult
}

type listResult struct {
	page *domain.Page
	err  error
}

func (g *gatedLister) List(ctx context.Context, req domain.PageRequest) (*domain.Page, error) {
	ch := make(chan listResult, 1)
	g.mu.Lock()
	g.pending = append(g.pending, ch)
	g.mu.Unlock()

	select {
	case r := <-ch:
		return r.page, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedLister) Delete(context.Context, string) error { return nil }

func (g *gatedLister) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

func (g *gatedLister) answer(i int, page *domain.Page) {
	g.mu.Lock()
	ch := g.pending[i]
	g.mu.Unlock()
	ch <- listResult{page: page}
}

func pageOf(titles ...string) *domain.Page {
	content := make([]domain.JobPosting, len(titles))
	for i, title := range titles {
		content[i] = domain.JobPosting{ID: fmt.Sprintf("id-%d", i), Title: title, Company: "Acme", Active: true}
	}
	return domain.NewPage(content, int64(len(content)), domain.PageRequest{Size: 10})
}

func always(answer bool) Confirmer {
	return func(context.Context, string) bool { return answer }
}
