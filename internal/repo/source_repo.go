package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/infra/internal/domain"
)

// SourceRepo — репозиторий источников контента.
type SourceRepo struct {
	pool *pgxpool.Pool
}

// NewSourceRepo создаёт новый SourceRepo.
func NewSourceRepo(pool *pgxpool.Pool) *SourceRepo {
	return &SourceRepo{pool: pool}
}

// SourcePatch — частичное обновление источника. nil-поля не меняются.
type SourcePatch struct {
	Name        *string
	SourceType  *string
	URL         *string
	TrustManual *int
	JobKeywords []string
	JobRegex    *string
}

const sourceColumns = `id, name, source_type, url, trust_manual, job_keywords, job_regex, state, created_at, updated_at`

// List возвращает все источники.
func (r *SourceRepo) List(ctx context.Context) ([]domain.Source, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+sourceColumns+` FROM sources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	sources := []domain.Source{}
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *s)
	}
	return sources, rows.Err()
}

// GetByID возвращает источник по ID.
func (r *SourceRepo) GetByID(ctx context.Context, id int64) (*domain.Source, error) {
	return scanSource(r.pool.QueryRow(ctx, `SELECT `+sourceColumns+` FROM sources WHERE id = $1`, id))
}

// Create создаёт источник и заполняет ID и время создания.
func (r *SourceRepo) Create(ctx context.Context, s *domain.Source) error {
	keywords, err := marshalKeywords(s.JobKeywords)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sources (name, source_type, url, trust_manual, job_keywords, job_regex)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err = r.pool.QueryRow(ctx, query,
		s.Name,
		s.SourceType,
		s.URL,
		s.TrustManual,
		keywords,
		s.JobRegex,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(mapWriteError(err), ErrAlreadyExists) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert source: %w", err)
	}
	return nil
}

// Update применяет patch и возвращает обновлённый источник.
func (r *SourceRepo) Update(ctx context.Context, id int64, p SourcePatch) (*domain.Source, error) {
	var keywords []byte
	if p.JobKeywords != nil {
		var err error
		if keywords, err = marshalKeywords(p.JobKeywords); err != nil {
			return nil, err
		}
	}

	query := `
		UPDATE sources SET
			name         = COALESCE($2, name),
			source_type  = COALESCE($3, source_type),
			url          = COALESCE($4, url),
			trust_manual = COALESCE($5, trust_manual),
			job_keywords = COALESCE($6::jsonb, job_keywords),
			job_regex    = COALESCE($7, job_regex),
			updated_at   = now()
		WHERE id = $1
		RETURNING ` + sourceColumns
	s, err := scanSource(r.pool.QueryRow(ctx, query,
		id,
		p.Name,
		p.SourceType,
		p.URL,
		p.TrustManual,
		keywords,
		p.JobRegex,
	))
	if err != nil {
		if errors.Is(mapWriteError(err), ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return s, nil
}

// Delete удаляет источник.
func (r *SourceRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalKeywords(keywords []string) ([]byte, error) {
	if keywords == nil {
		return nil, nil
	}
	b, err := json.Marshal(keywords)
	if err != nil {
		return nil, fmt.Errorf("marshal job_keywords: %w", err)
	}
	return b, nil
}

func scanSource(row pgx.Row) (*domain.Source, error) {
	var s domain.Source
	var keywordsJSON, stateJSON []byte

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.SourceType,
		&s.URL,
		&s.TrustManual,
		&keywordsJSON,
		&s.JobRegex,
		&stateJSON,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan source: %w", err)
	}

	if keywordsJSON != nil {
		if err := json.Unmarshal(keywordsJSON, &s.JobKeywords); err != nil {
			return nil, fmt.Errorf("unmarshal job_keywords: %w", err)
		}
	}
	if stateJSON != nil {
		if err := json.Unmarshal(stateJSON, &s.State); err != nil {
			return nil, fmt.Errorf("unmarshal state: %w", err)
		}
	}
	return &s, nil
}
