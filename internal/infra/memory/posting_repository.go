// Package memory holds process-local implementations of the domain storage
// and locking interfaces, used by default and in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"job-listings/internal/domain"
)

type postingRepository struct {
	mu       sync.RWMutex
	postings map[string]domain.JobPosting
}

// NewPostingRepository creates an empty in-memory repository.
func NewPostingRepository() domain.PostingRepository {
	return &postingRepository{postings: make(map[string]domain.JobPosting)}
}

func (r *postingRepository) Save(_ context.Context, posting *domain.JobPosting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.postings[posting.ID] = clonePosting(*posting)
	return nil
}

func (r *postingRepository) Update(_ context.Context, posting *domain.JobPosting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.postings[posting.ID]; !ok {
		return domain.ErrPostingNotFound
	}
	r.postings[posting.ID] = clonePosting(*posting)
	return nil
}

func (r *postingRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.postings[id]; !ok {
		return domain.ErrPostingNotFound
	}
	delete(r.postings, id)
	return nil
}

func (r *postingRepository) Get(_ context.Context, id string) (*domain.JobPosting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.postings[id]
	if !ok {
		return nil, domain.ErrPostingNotFound
	}
	out := clonePosting(p)
	return &out, nil
}

func (r *postingRepository) List(_ context.Context, req domain.PageRequest) (*domain.Page, error) {
	r.mu.RLock()
	all := make([]domain.JobPosting, 0, len(r.postings))
	for _, p := range r.postings {
		all = append(all, clonePosting(p))
	}
	r.mu.RUnlock()
	return domain.FilterAndPage(all, req), nil
}

func (r *postingRepository) ExpireBefore(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, p := range r.postings {
		if domain.ShouldExpire(&p, cutoff) {
			p.Active = false
			r.postings[id] = p
			n++
		}
	}
	return n, nil
}

func clonePosting(p domain.JobPosting) domain.JobPosting {
	if p.SalaryFrom != nil {
		v := *p.SalaryFrom
		p.SalaryFrom = &v
	}
	if p.SalaryTo != nil {
		v := *p.SalaryTo
		p.SalaryTo = &v
	}
	if p.PostedAt != nil {
		v := *p.PostedAt
		p.PostedAt = &v
	}
	return p
}
