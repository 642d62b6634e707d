package usecase

import (
	"context"
	"log/slog"
	"time"

	"job-listings/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PostingService implements the business operations on job postings.
type PostingService struct {
	repo   domain.PostingRepository
	logger *slog.Logger
	tracer trace.Tracer
	clock  func() time.Time
}

// NewPostingService creates a new PostingService instance.
func NewPostingService(repo domain.PostingRepository, logger *slog.Logger) *PostingService {
	return &PostingService{
		repo:   repo,
		logger: logger.With("component", "posting-service"),
		tracer: otel.Tracer("job-listings-usecase"),
		clock:  time.Now,
	}
}

// List returns one page of postings matching the request.
func (s *PostingService) List(ctx context.Context, req domain.PageRequest) (*domain.Page, error) {
	ctx, span := s.tracer.Start(ctx, "service.List")
	defer span.End()
	req = req.Normalize()
	span.SetAttributes(
		attribute.Int("page", req.Page),
		attribute.Int("page_size", req.Size),
		attribute.String("query", req.Query),
	)

	page, err := s.repo.List(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list postings from repository")
	}
	return page, err
}

// Get returns a posting by id.
func (s *PostingService) Get(ctx context.Context, id string) (*domain.JobPosting, error) {
	ctx, span := s.tracer.Start(ctx, "service.Get")
	defer span.End()
	span.SetAttributes(attribute.String("posting.id", id))

	posting, err := s.repo.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get posting from repository")
	}
	return posting, err
}

// Create persists a new posting. The service assigns the id and postedAt.
func (s *PostingService) Create(ctx context.Context, draft domain.Draft) (*domain.JobPosting, error) {
	ctx, span := s.tracer.Start(ctx, "service.Create")
	defer span.End()

	postedAt := s.clock().UTC()
	posting := &domain.JobPosting{
		ID:       uuid.New().String(),
		PostedAt: &postedAt,
	}
	draft.Apply(posting)
	span.SetAttributes(attribute.String("posting.id", posting.ID))

	if err := s.repo.Save(ctx, posting); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save posting to repository")
		return nil, err
	}
	s.logger.Info("posting created", "posting_id", posting.ID, "title", posting.Title)
	return posting, nil
}

// Update replaces every mutable field of an existing posting. The id and
// postedAt are kept.
func (s *PostingService) Update(ctx context.Context, id string, draft domain.Draft) (*domain.JobPosting, error) {
	ctx, span := s.tracer.Start(ctx, "service.Update")
	defer span.End()
	span.SetAttributes(attribute.String("posting.id", id))

	posting, err := s.repo.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get posting from repository")
		return nil, err
	}
	draft.Apply(posting)

	if err := s.repo.Update(ctx, posting); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update posting in repository")
		return nil, err
	}
	s.logger.Info("posting updated", "posting_id", posting.ID)
	return posting, nil
}

// Delete removes a posting.
func (s *PostingService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "service.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("posting.id", id))

	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete posting from repository")
		return err
	}
	s.logger.Info("posting deleted", "posting_id", id)
	return nil
}
