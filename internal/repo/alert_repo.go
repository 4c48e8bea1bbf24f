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

// AlertRepo — репозиторий системных алертов.
type AlertRepo struct {
	pool *pgxpool.Pool
}

// NewAlertRepo создаёт новый AlertRepo.
func NewAlertRepo(pool *pgxpool.Pool) *AlertRepo {
	return &AlertRepo{pool: pool}
}

const alertColumns = `id, dedup_key, title, message, severity, status, acknowledged, muted_until, last_sent_at, created_at`

// ResolvedTitle — заголовок записи о закрытии алерта.
const ResolvedTitle = "RESOLVED"

// List возвращает алерты, новые первыми.
func (r *AlertRepo) List(ctx context.Context) ([]domain.Alert, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+alertColumns+` FROM alerts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	alerts := []domain.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

// Ack помечает алерт просмотренным.
func (r *AlertRepo) Ack(ctx context.Context, id int64) (*domain.Alert, error) {
	return scanAlert(r.pool.QueryRow(ctx, `
		UPDATE alerts SET acknowledged = true, updated_at = now()
		WHERE id = $1
		RETURNING `+alertColumns, id))
}

// Mute заглушает алерт до until.
func (r *AlertRepo) Mute(ctx context.Context, id int64, until time.Time) (*domain.Alert, error) {
	return scanAlert(r.pool.QueryRow(ctx, `
		UPDATE alerts SET muted_until = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+alertColumns, id, until))
}

// Resolve закрывает алерт и добавляет запись RESOLVED с тем же dedup_key.
// Возвращает закрытый алерт и созданную запись.
func (r *AlertRepo) Resolve(ctx context.Context, id int64, message string) (*domain.Alert, *domain.Alert, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	alert, err := scanAlert(tx.QueryRow(ctx, `
		UPDATE alerts SET status = 'resolved', updated_at = now()
		WHERE id = $1
		RETURNING `+alertColumns, id))
	if err != nil {
		return nil, nil, err
	}

	resolved, err := scanAlert(tx.QueryRow(ctx, `
		INSERT INTO alerts (dedup_key, title, message, severity, status, last_sent_at)
		VALUES ($1, $2, $3, 'info', 'resolved', now())
		RETURNING `+alertColumns, alert.DedupKey, ResolvedTitle, message))
	if err != nil {
		return nil, nil, fmt.Errorf("insert resolved alert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit tx: %w", err)
	}
	return alert, resolved, nil
}

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var a domain.Alert
	err := row.Scan(
		&a.ID,
		&a.DedupKey,
		&a.Title,
		&a.Message,
		&a.Severity,
		&a.Status,
		&a.Acknowledged,
		&a.MutedUntil,
		&a.LastSentAt,
		&a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan alert: %w", err)
	}
	return &a, nil
}
