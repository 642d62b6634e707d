package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"job-listings/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const postingColumns = `id, title, company, location, description, salary_from, salary_to, is_active, posted_at`

type postingRepository struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewPostingRepository returns a repository over the job_postings table.
func NewPostingRepository(pool *pgxpool.Pool) domain.PostingRepository {
	return &postingRepository{
		pool:   pool,
		tracer: otel.Tracer("job-listings-postgres-repo"),
	}
}

func (r *postingRepository) Save(ctx context.Context, p *domain.JobPosting) error {
	ctx, span := r.tracer.Start(ctx, "repo.postgres.Save")
	defer span.End()
	span.SetAttributes(attribute.String("posting.id", p.ID))

	postedAt := time.Now().UTC()
	if p.PostedAt != nil {
		postedAt = *p.PostedAt
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO job_postings (`+postingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		     title       = EXCLUDED.title,
		     company     = EXCLUDED.company,
		     location    = EXCLUDED.location,
		     description = EXCLUDED.description,
		     salary_from = EXCLUDED.salary_from,
		     salary_to   = EXCLUDED.salary_to,
		     is_active   = EXCLUDED.is_active`,
		p.ID, p.Title, p.Company, p.Location, p.Description,
		p.SalaryFrom, p.SalaryTo, p.Active, postedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upsert posting")
		return fmt.Errorf("save posting %s: %w", p.ID, err)
	}
	return nil
}

func (r *postingRepository) Update(ctx context.Context, p *domain.JobPosting) error {
	ctx, span := r.tracer.Start(ctx, "repo.postgres.Update")
	defer span.End()
	span.SetAttributes(attribute.String("posting.id", p.ID))

	tag, err := r.pool.Exec(ctx,
		`UPDATE job_postings SET
		     title       = $2,
		     company     = $3,
		     location    = $4,
		     description = $5,
		     salary_from = $6,
		     salary_to   = $7,
		     is_active   = $8
		 WHERE id = $1`,
		p.ID, p.Title, p.Company, p.Location, p.Description,
		p.SalaryFrom, p.SalaryTo, p.Active,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update posting")
		return fmt.Errorf("update posting %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPostingNotFound
	}
	return nil
}

func (r *postingRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "repo.postgres.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("posting.id", id))

	tag, err := r.pool.Exec(ctx, `DELETE FROM job_postings WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete posting")
		return fmt.Errorf("delete posting %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPostingNotFound
	}
	return nil
}

func (r *postingRepository) Get(ctx context.Context, id string) (*domain.JobPosting, error) {
	ctx, span := r.tracer.Start(ctx, "repo.postgres.Get")
	defer span.End()
	span.SetAttributes(attribute.String("posting.id", id))

	row := r.pool.QueryRow(ctx, `SELECT `+postingColumns+` FROM job_postings WHERE id = $1`, id)
	p, err := scanPosting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPostingNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get posting")
		return nil, fmt.Errorf("get posting %s: %w", id, err)
	}
	return p, nil
}

func (r *postingRepository) List(ctx context.Context, req domain.PageRequest) (*domain.Page, error) {
	ctx, span := r.tracer.Start(ctx, "repo.postgres.List")
	defer span.End()

	req = req.Normalize()
	pattern := "%" + escapeLike(req.Query) + "%"
	span.SetAttributes(
		attribute.Int("page", req.Page),
		attribute.Int("page_size", req.Size),
		attribute.String("query", req.Query),
	)

	// Count and page read one snapshot so totalElements matches content.
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to begin list transaction")
		return nil, fmt.Errorf("begin list transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int64
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM job_postings WHERE title ILIKE $1`, pattern,
	).Scan(&total); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to count postings")
		return nil, fmt.Errorf("count postings: %w", err)
	}

	req = domain.ClampPage(req, total)
	rows, err := tx.Query(ctx,
		`SELECT `+postingColumns+`
		 FROM job_postings
		 WHERE title ILIKE $1
		 ORDER BY posted_at DESC, id
		 LIMIT $2 OFFSET $3`,
		pattern, req.Size, req.Offset(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list postings")
		return nil, fmt.Errorf("list postings query: %w", err)
	}
	defer rows.Close()

	content := make([]domain.JobPosting, 0, req.Size)
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("list postings scan: %w", err)
		}
		content = append(content, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list postings rows: %w", err)
	}
	rows.Close()
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit list transaction: %w", err)
	}
	return domain.NewPage(content, total, req), nil
}

func (r *postingRepository) ExpireBefore(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, span := r.tracer.Start(ctx, "repo.postgres.ExpireBefore")
	defer span.End()

	tag, err := r.pool.Exec(ctx,
		`UPDATE job_postings SET is_active = FALSE WHERE is_active AND posted_at < $1`,
		cutoff,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to expire postings")
		return 0, fmt.Errorf("expire postings: %w", err)
	}
	span.SetAttributes(attribute.Int64("postings.expired", tag.RowsAffected()))
	return int(tag.RowsAffected()), nil
}

func scanPosting(row pgx.Row) (*domain.JobPosting, error) {
	var (
		p        domain.JobPosting
		postedAt time.Time
	)
	if err := row.Scan(
		&p.ID, &p.Title, &p.Company, &p.Location, &p.Description,
		&p.SalaryFrom, &p.SalaryTo, &p.Active, &postedAt,
	); err != nil {
		return nil, err
	}
	postedAt = postedAt.UTC()
	p.PostedAt = &postedAt
	return &p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
