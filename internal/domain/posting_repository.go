package domain

import (
	"context"
	"time"
)

// PostingRepository defines the interface for persisting and retrieving job postings.
type PostingRepository interface {
	// Save inserts or replaces the posting under its ID.
	Save(ctx context.Context, posting *JobPosting) error
	// Update replaces an existing posting. It returns ErrPostingNotFound if
	// the posting does not exist, and never recreates a deleted one.
	Update(ctx context.Context, posting *JobPosting) error
	// Delete removes the posting. It returns ErrPostingNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*JobPosting, error)
	// List returns one page of postings whose title contains req.Query,
	// case-insensitively, newest first.
	List(ctx context.Context, req PageRequest) (*Page, error)
	// ExpireBefore deactivates every active posting posted before cutoff and
	// returns how many were changed.
	ExpireBefore(ctx context.Context, cutoff time.Time) (int, error)
}
