// Package scheduler переводит истёкшие подписки в expired.
//
// Структура:
//   - scheduler.go — Scheduler (Tick, Run) и leader election
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Expirer:  repo.NewSubscriptionRepo(pool),
//	    Locker:   repo.NewAdvisoryLock(pool, lockKey),
//	    Logger:   logger,
//	    CronExpr: cfg.ExpiryCron,
//	})
//	go sched.Run(ctx)
//
// Leader Election:
//
// В кластере из нескольких infra-scheduler sweep выполняет только
// владелец pg_try_advisory_lock. Остальные экземпляры пропускают
// срабатывания, пока лидер не отпустит блокировку.
package scheduler
