package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/infra/internal/domain"
)

// SubscriptionRepo — репозиторий подписок и финансовых отчётов.
type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo создаёт новый SubscriptionRepo.
func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

// SubscriptionFilter — параметры выборки подписок. nil и пустые поля
// не ограничивают выборку. From/To применяются к created_at включительно.
type SubscriptionFilter struct {
	From     *time.Time
	To       *time.Time
	PlanTier domain.PlanTier
	Status   domain.SubscriptionStatus
	UserID   *int64
	TgID     *int64
}

// AssignParams — выдача подписки пользователю.
type AssignParams struct {
	UserID    *int64
	TgID      *int64
	PlanTier  domain.PlanTier
	Status    domain.SubscriptionStatus
	AmountRub int64
	StartedAt time.Time
	ExpiresAt *time.Time
}

const subscriptionColumns = `s.id, s.user_id, s.plan_tier, s.status, s.amount_rub, s.started_at, s.expires_at, s.created_at`

// List возвращает подписки по фильтру, новые первыми.
func (r *SubscriptionRepo) List(ctx context.Context, filter SubscriptionFilter) ([]domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions s
		JOIN users u ON u.id = s.user_id
		WHERE ($1::timestamptz IS NULL OR s.created_at >= $1)
		  AND ($2::timestamptz IS NULL OR s.created_at <= $2)
		  AND ($3::text IS NULL OR s.plan_tier = $3)
		  AND ($4::text IS NULL OR s.status = $4)
		  AND ($5::bigint IS NULL OR s.user_id = $5)
		  AND ($6::bigint IS NULL OR u.tg_id = $6)
		ORDER BY s.created_at DESC, s.id DESC
	`
	rows, err := r.pool.Query(ctx, query,
		nullTime(filter.From),
		nullTime(filter.To),
		nullString(string(filter.PlanTier)),
		nullString(string(filter.Status)),
		filter.UserID,
		filter.TgID,
	)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []domain.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// Assign создаёт подписку и обновляет план пользователя в одной транзакции.
//
// Возвращает ErrNotFound, если пользователь не найден, и ErrUserMismatch,
// если user_id и tg_id указывают на разных пользователей.
func (r *SubscriptionRepo) Assign(ctx context.Context, p AssignParams) (*domain.Subscription, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	user, err := resolveUser(ctx, tx, p.UserID, p.TgID)
	if err != nil {
		return nil, err
	}

	if p.StartedAt.IsZero() {
		p.StartedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO subscriptions (user_id, plan_tier, status, amount_rub, started_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, plan_tier, status, amount_rub, started_at, expires_at, created_at
	`
	sub, err := scanSubscription(tx.QueryRow(ctx, query,
		user.ID,
		p.PlanTier,
		p.Status,
		p.AmountRub,
		p.StartedAt,
		p.ExpiresAt,
	))
	if err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET plan_tier = $2, plan_expires_at = $3, updated_at = now()
		WHERE id = $1
	`, user.ID, p.PlanTier, p.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("update user plan: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return sub, nil
}

// RevokeResult — итог отзыва подписки.
type RevokeResult struct {
	User      domain.User
	Cancelled int64
}

// Revoke переводит пользователя на free, сбрасывает срок плана и отменяет
// его активные подписки. Ошибки поиска пользователя — как у Assign.
func (r *SubscriptionRepo) Revoke(ctx context.Context, userID, tgID *int64) (*RevokeResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	user, err := resolveUser(ctx, tx, userID, tgID)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE subscriptions SET status = 'cancelled'
		WHERE user_id = $1 AND status = 'active'
	`, user.ID)
	if err != nil {
		return nil, fmt.Errorf("cancel subscriptions: %w", err)
	}

	updated, err := scanUser(tx.QueryRow(ctx, `
		UPDATE users SET plan_tier = 'free', plan_expires_at = NULL, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, user.ID))
	if err != nil {
		return nil, fmt.Errorf("downgrade user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &RevokeResult{User: *updated, Cancelled: tag.RowsAffected()}, nil
}

// Summary считает финансовый отчёт.
//
// Выручка, количество платежей и новых подписок считаются по created_at
// в интервале [from, to]. Активные подписки — на момент to (или now,
// если to не задан).
func (r *SubscriptionRepo) Summary(ctx context.Context, from, to *time.Time, now time.Time) (*domain.FinancialSummary, error) {
	summary := &domain.FinancialSummary{ByTier: map[domain.PlanTier]domain.TierSummary{}}

	rows, err := r.pool.Query(ctx, `
		SELECT plan_tier, COALESCE(SUM(amount_rub), 0), COUNT(*)
		FROM subscriptions
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at <= $2)
		GROUP BY plan_tier
	`, nullTime(from), nullTime(to))
	if err != nil {
		return nil, fmt.Errorf("summary by tier: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tier domain.PlanTier
		var ts domain.TierSummary
		if err := rows.Scan(&tier, &ts.RevenueRub, &ts.Count); err != nil {
			return nil, fmt.Errorf("scan tier summary: %w", err)
		}
		summary.ByTier[tier] = ts
		summary.RevenueRub += ts.RevenueRub
		summary.PaymentsCount += ts.Count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	summary.NewSubscriptionsCount = summary.PaymentsCount

	boundary := now
	if to != nil {
		boundary = *to
	}
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM subscriptions
		WHERE status = 'active'
		  AND started_at <= $1
		  AND (expires_at IS NULL OR expires_at >= $1)
	`, boundary).Scan(&summary.ActiveSubscriptionsCount)
	if err != nil {
		return nil, fmt.Errorf("count active subscriptions: %w", err)
	}

	summary.FillTiers()
	return summary, nil
}

// ExpireResult — итог одного прогона ExpireDue.
type ExpireResult struct {
	Subscriptions int64
	Users         int64
}

// ExpireDue переводит в expired не больше limit активных подписок
// с expires_at < now и понижает до free пользователей, чей план истёк.
func (r *SubscriptionRepo) ExpireDue(ctx context.Context, now time.Time, limit int) (ExpireResult, error) {
	var res ExpireResult

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE subscriptions SET status = 'expired'
		WHERE id IN (
			SELECT id FROM subscriptions
			WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at < $1
			ORDER BY expires_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
	`, now, limit)
	if err != nil {
		return res, fmt.Errorf("expire subscriptions: %w", err)
	}
	res.Subscriptions = tag.RowsAffected()

	tag, err = tx.Exec(ctx, `
		UPDATE users SET plan_tier = 'free', plan_expires_at = NULL, updated_at = now()
		WHERE plan_tier <> 'free' AND plan_expires_at IS NOT NULL AND plan_expires_at < $1
	`, now)
	if err != nil {
		return res, fmt.Errorf("downgrade users: %w", err)
	}
	res.Users = tag.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("commit tx: %w", err)
	}
	return res, nil
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var s domain.Subscription
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.PlanTier,
		&s.Status,
		&s.AmountRub,
		&s.StartedAt,
		&s.ExpiresAt,
		&s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan subscription: %w", err)
	}
	return &s, nil
}
