// internal/infra/etcd/etcd_posting_repository.go
package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"

	"job-listings/internal/domain"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	PostingSaveDir = "/jobs/postings/"
)

type etcdPostingRepository struct {
	client *clientv3.Client
	logger *slog.Logger
	tracer trace.Tracer
}

// NewEtcdPostingRepository creates a new repository for job postings backed by etcd.
// Each posting is stored as JSON under /jobs/postings/{id}.
func NewEtcdPostingRepository(client *clientv3.Client, logger *slog.Logger) domain.PostingRepository {
	return &etcdPostingRepository{
		client: client,
		logger: logger.With("component", "etcd-posting-repo"),
		tracer: otel.Tracer("job-listings-etcd-repo"),
	}
}

func postingKey(id string) string {
	return path.Join(PostingSaveDir, id)
}

// Save persists the posting to etcd.
func (r *etcdPostingRepository) Save(ctx context.Context, posting *domain.JobPosting) error {
	ctx, span := r.tracer.Start(ctx, "repo.etcd.Save")
	defer span.End()

	postingJSON, err := json.Marshal(posting)
	if err != nil {
		return fmt.Errorf("failed to marshal posting to JSON: %w", err)
	}

	key := postingKey(posting.ID)
	span.SetAttributes(
		attribute.String("posting.id", posting.ID),
		attribute.String("etcd.key", key),
	)

	if _, err := r.client.Put(ctx, key, string(postingJSON)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to put posting to etcd")
		return fmt.Errorf("failed to save posting %s to etcd: %w", posting.ID, err)
	}
	return nil
}

// Update overwrites a posting only while its key exists. A posting deleted
// after it was read is reported as not found instead of being written back.
func (r *etcdPostingRepository) Update(ctx context.Context, posting *domain.JobPosting) error {
	ctx, span := r.tracer.Start(ctx, "repo.etcd.Update")
	defer span.End()

	postingJSON, err := json.Marshal(posting)
	if err != nil {
		return fmt.Errorf("failed to marshal posting to JSON: %w", err)
	}

	key := postingKey(posting.ID)
	span.SetAttributes(
		attribute.String("posting.id", posting.ID),
		attribute.String("etcd.key", key),
	)

	txn, err := r.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), ">", 0)).
		Then(clientv3.OpPut(key, string(postingJSON))).
		Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update posting in etcd")
		return fmt.Errorf("failed to update posting %s in etcd: %w", posting.ID, err)
	}
	if !txn.Succeeded {
		return domain.ErrPostingNotFound
	}
	return nil
}

// Delete removes a posting from etcd.
func (r *etcdPostingRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "repo.etcd.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("posting.id", id))

	resp, err := r.client.Delete(ctx, postingKey(id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete posting from etcd")
		return fmt.Errorf("failed to delete posting %s from etcd: %w", id, err)
	}
	if resp.Deleted == 0 {
		return domain.ErrPostingNotFound
	}
	return nil
}

// Get retrieves a posting from etcd.
func (r *etcdPostingRepository) Get(ctx context.Context, id string) (*domain.JobPosting, error) {
	ctx, span := r.tracer.Start(ctx, "repo.etcd.Get")
	defer span.End()
	span.SetAttributes(attribute.String("posting.id", id))

	resp, err := r.client.Get(ctx, postingKey(id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get posting from etcd")
		return nil, fmt.Errorf("failed to get posting %s from etcd: %w", id, err)
	}

	if len(resp.Kvs) == 0 {
		return nil, domain.ErrPostingNotFound
	}

	var posting domain.JobPosting
	if err := json.Unmarshal(resp.Kvs[0].Value, &posting); err != nil {
		return nil, fmt.Errorf("failed to unmarshal posting %s from JSON: %w", id, err)
	}
	return &posting, nil
}

// List scans the posting prefix and pages the matches in memory.
// Etcd has no secondary indexes, so search and ordering cannot be pushed down.
func (r *etcdPostingRepository) List(ctx context.Context, req domain.PageRequest) (*domain.Page, error) {
	ctx, span := r.tracer.Start(ctx, "repo.etcd.List")
	defer span.End()
	span.SetAttributes(
		attribute.Int("page", req.Page),
		attribute.Int("page_size", req.Size),
		attribute.String("query", req.Query),
	)

	resp, err := r.client.Get(ctx, PostingSaveDir, clientv3.WithPrefix())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list postings from etcd")
		return nil, fmt.Errorf("failed to list postings from etcd: %w", err)
	}
	span.SetAttributes(attribute.Int("etcd.kv_count", len(resp.Kvs)))

	postings := make([]domain.JobPosting, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var posting domain.JobPosting
		if err := json.Unmarshal(kv.Value, &posting); err != nil {
			r.logger.Warn("failed to unmarshal posting from etcd", "key", string(kv.Key), "error", err)
			continue
		}
		postings = append(postings, posting)
	}
	return domain.FilterAndPage(postings, req), nil
}

// ExpireBefore deactivates old postings. Each write is a compare-and-swap on
// the key's mod revision so a concurrent edit is never overwritten.
func (r *etcdPostingRepository) ExpireBefore(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, span := r.tracer.Start(ctx, "repo.etcd.ExpireBefore")
	defer span.End()

	resp, err := r.client.Get(ctx, PostingSaveDir, clientv3.WithPrefix())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scan postings in etcd")
		return 0, fmt.Errorf("failed to scan postings in etcd: %w", err)
	}

	expired := 0
	for _, kv := range resp.Kvs {
		var posting domain.JobPosting
		if err := json.Unmarshal(kv.Value, &posting); err != nil {
			r.logger.Warn("failed to unmarshal posting from etcd", "key", string(kv.Key), "error", err)
			continue
		}
		if !domain.ShouldExpire(&posting, cutoff) {
			continue
		}
		posting.Active = false
		postingJSON, err := json.Marshal(&posting)
		if err != nil {
			return expired, fmt.Errorf("failed to marshal posting to JSON: %w", err)
		}

		key := string(kv.Key)
		txn, err := r.client.Txn(ctx).
			If(clientv3.Compare(clientv3.ModRevision(key), "=", kv.ModRevision)).
			Then(clientv3.OpPut(key, string(postingJSON))).
			Commit()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to expire posting in etcd")
			return expired, fmt.Errorf("failed to expire posting %s in etcd: %w", posting.ID, err)
		}
		if !txn.Succeeded {
			r.logger.Debug("posting changed during expiry sweep, skipped", "key", key)
			continue
		}
		expired++
	}
	span.SetAttributes(attribute.Int("postings.expired", expired))
	return expired, nil
}
