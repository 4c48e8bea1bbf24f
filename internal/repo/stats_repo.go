package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/infra/internal/domain"
)

// StatsRepo считает агрегаты для главной страницы админки.
type StatsRepo struct {
	pool *pgxpool.Pool
}

// NewStatsRepo создаёт новый StatsRepo.
func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

// Overview возвращает количество пользователей, тем, источников
// и открытых алертов.
func (r *StatsRepo) Overview(ctx context.Context) (*domain.Overview, error) {
	var o domain.Overview
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM topics),
			(SELECT COUNT(*) FROM sources),
			(SELECT COUNT(*) FROM alerts WHERE status = 'open')
	`).Scan(&o.Users, &o.Topics, &o.Sources, &o.AlertsOpen)
	if err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}
	return &o, nil
}
