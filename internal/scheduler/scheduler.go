package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/infra/internal/repo"
	"github.com/shaiso/infra/internal/telemetry"
)

// Expirer переводит истёкшие подписки в expired.
type Expirer interface {
	ExpireDue(ctx context.Context, now time.Time, limit int) (repo.ExpireResult, error)
}

// Locker — блокировка лидера. Sweep выполняет только её владелец.
type Locker interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Scheduler — планировщик прогонов истечения подписок.
type Scheduler struct {
	expirer   Expirer
	locker    Locker
	logger    *slog.Logger
	schedule  cron.Schedule
	batchSize int
	now       func() time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	Expirer   Expirer
	Locker    Locker
	Logger    *slog.Logger
	CronExpr  string
	BatchSize int // подписок за одну транзакцию (default: 500)
	Now       func() time.Time
}

// New создаёт новый Scheduler.
func New(cfg Config) (*Scheduler, error) {
	schedule, err := ParseCron(cfg.CronExpr)
	if err != nil {
		return nil, err
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Scheduler{
		expirer:   cfg.Expirer,
		locker:    cfg.Locker,
		logger:    cfg.Logger,
		schedule:  schedule,
		batchSize: batchSize,
		now:       now,
	}, nil
}

// Tick выполняет один sweep: пачками переводит истёкшие подписки
// в expired, пока очередная пачка не окажется неполной.
func (s *Scheduler) Tick(ctx context.Context) (repo.ExpireResult, error) {
	var total repo.ExpireResult
	now := s.now().UTC()

	for {
		res, err := s.expirer.ExpireDue(ctx, now, s.batchSize)
		if err != nil {
			return total, fmt.Errorf("expire due subscriptions: %w", err)
		}
		total.Subscriptions += res.Subscriptions
		total.Users += res.Users

		if res.Subscriptions < int64(s.batchSize) {
			break
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}

	telemetry.SubscriptionsExpired.Add(float64(total.Subscriptions))
	if total.Subscriptions > 0 || total.Users > 0 {
		s.logger.Info("expiry sweep completed",
			"subscriptions_expired", total.Subscriptions,
			"users_downgraded", total.Users,
		)
	} else {
		s.logger.Debug("expiry sweep completed, nothing due")
	}
	return total, nil
}

// fire обрабатывает одно срабатывание расписания.
// Возвращает true, если sweep выполнялся.
func (s *Scheduler) fire(ctx context.Context) bool {
	leader, err := s.locker.TryAcquire(ctx)
	if err != nil {
		s.logger.Warn("leader lock failed", "error", err)
		return false
	}
	if !leader {
		s.logger.Debug("not a leader, skipping sweep")
		return false
	}

	if _, err := s.Tick(ctx); err != nil {
		telemetry.SweepErrors.Inc()
		s.logger.Error("expiry sweep failed", "error", err)
	}
	return true
}

// Run выполняет sweep по расписанию до отмены ctx.
// При выходе освобождает блокировку лидера.
func (s *Scheduler) Run(ctx context.Context) error {
	defer func() {
		if err := s.locker.Release(context.Background()); err != nil {
			s.logger.Warn("release leader lock", "error", err)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		next := s.schedule.Next(s.now())
		s.logger.Debug("next expiry sweep", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			s.fire(ctx)
		}
	}
}
