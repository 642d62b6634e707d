package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"job-listings/internal/domain"
	"job-listings/internal/metrics"
)

// ExpiryTaskName is the scheduler and lock name of the expiry sweep.
const ExpiryTaskName = "posting-expiry"

// ExpiryService deactivates postings that have been listed for longer than
// maxAge. Replicas coordinate through the locker so one sweep runs at a time.
type ExpiryService struct {
	repo      domain.PostingRepository
	locker    domain.Locker
	schedular domain.Schedular
	maxAge    time.Duration
	logger    *slog.Logger
	clock     func() time.Time
}

func NewExpiryService(repo domain.PostingRepository, locker domain.Locker, schedular domain.Schedular, maxAge time.Duration, logger *slog.Logger) *ExpiryService {
	return &ExpiryService{
		repo:      repo,
		locker:    locker,
		schedular: schedular,
		maxAge:    maxAge,
		logger:    logger.With("component", "expiry-service"),
		clock:     time.Now,
	}
}

// Start registers the sweep on spec and runs the scheduler until ctx is done.
// It returns immediately when expiry is disabled.
func (s *ExpiryService) Start(ctx context.Context, spec string) error {
	if s.maxAge <= 0 {
		s.logger.Info("posting expiry disabled")
		return nil
	}
	if err := s.schedular.AddTask(ExpiryTaskName, spec, s.Sweep); err != nil {
		return err
	}
	return s.schedular.Start(ctx)
}

// Sweep runs one expiry pass. A sweep already running elsewhere is not an error.
func (s *ExpiryService) Sweep(ctx context.Context) error {
	lock, err := s.locker.Lock(ctx, ExpiryTaskName)
	if errors.Is(err, domain.ErrLockNotAcquired) {
		s.logger.Debug("expiry sweep skipped, lock held elsewhere")
		return nil
	}
	if err != nil {
		return err
	}
	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lock.Unlock(unlockCtx); err != nil {
			s.logger.Error("failed to release expiry lock", "error", err)
		}
	}()

	cutoff := s.clock().Add(-s.maxAge)
	n, err := s.repo.ExpireBefore(ctx, cutoff)
	if n > 0 {
		metrics.PostingsExpiredTotal.Add(float64(n))
		s.logger.Info("expired postings", "count", n, "cutoff", cutoff)
	}
	return err
}
