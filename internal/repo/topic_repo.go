package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/infra/internal/domain"
)

// TopicRepo — репозиторий тем.
type TopicRepo struct {
	pool *pgxpool.Pool
}

// NewTopicRepo создаёт новый TopicRepo.
func NewTopicRepo(pool *pgxpool.Pool) *TopicRepo {
	return &TopicRepo{pool: pool}
}

// TopicPatch — частичное обновление темы.
type TopicPatch struct {
	Name        *string
	Description *string
}

const topicColumns = `id, name, description, created_at, updated_at`

// List возвращает все темы.
func (r *TopicRepo) List(ctx context.Context) ([]domain.Topic, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+topicColumns+` FROM topics ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	topics := []domain.Topic{}
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, *t)
	}
	return topics, rows.Err()
}

// Create создаёт тему.
func (r *TopicRepo) Create(ctx context.Context, t *domain.Topic) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO topics (name, description) VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, t.Name, t.Description).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(mapWriteError(err), ErrAlreadyExists) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert topic: %w", err)
	}
	return nil
}

// Update применяет patch и возвращает обновлённую тему.
func (r *TopicRepo) Update(ctx context.Context, id int64, p TopicPatch) (*domain.Topic, error) {
	t, err := scanTopic(r.pool.QueryRow(ctx, `
		UPDATE topics SET
			name        = COALESCE($2, name),
			description = COALESCE($3, description),
			updated_at  = now()
		WHERE id = $1
		RETURNING `+topicColumns, id, p.Name, p.Description))
	if err != nil {
		if errors.Is(mapWriteError(err), ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return t, nil
}

// Delete удаляет тему.
func (r *TopicRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM topics WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTopic(row pgx.Row) (*domain.Topic, error) {
	var t domain.Topic
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan topic: %w", err)
	}
	return &t, nil
}
