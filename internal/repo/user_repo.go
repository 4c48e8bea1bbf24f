package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shaiso/infra/internal/domain"
)

const userColumns = `id, tg_id, username, plan_tier, plan_expires_at, created_at, updated_at`

// resolveUser находит пользователя по user_id и/или tg_id внутри транзакции.
//
// Если указаны оба и user_id найден, tg_id должен совпадать. Если по
// user_id никого нет, поиск продолжается по tg_id.
func resolveUser(ctx context.Context, tx pgx.Tx, userID, tgID *int64) (*domain.User, error) {
	if userID != nil {
		u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, *userID))
		switch {
		case err == nil:
			if tgID != nil && u.TgID != *tgID {
				return nil, ErrUserMismatch
			}
			return u, nil
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}
	if tgID == nil {
		return nil, ErrNotFound
	}
	return scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE tg_id = $1 FOR UPDATE`, *tgID))
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var username *string

	err := row.Scan(
		&u.ID,
		&u.TgID,
		&username,
		&u.PlanTier,
		&u.PlanExpiresAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if username != nil {
		u.Username = *username
	}
	return &u, nil
}
