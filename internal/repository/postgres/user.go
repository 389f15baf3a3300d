package postgres

import (
	"context"
	"database/sql"

	"github.com/funduq/funduq/internal/domain/user"
	"github.com/funduq/funduq/internal/logger"
	pg "github.com/funduq/funduq/internal/postgres"
)

type userRepository struct {
	client pg.IClient
	logger *logger.Logger
}

func NewUserRepository(client pg.IClient, logger *logger.Logger) user.Repository {
	return &userRepository{
		client: client,
		logger: logger,
	}
}

func (r *userRepository) SetPremium(ctx context.Context, userID string, premium bool) error {
	res, err := r.client.Querier(ctx).ExecContext(ctx,
		`UPDATE users SET is_premium = $2, updated_at = NOW() WHERE id = $1`,
		userID, premium)
	if err != nil {
		return pg.WrapError(err, "user", "update")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return pg.WrapError(err, "user", "update")
	}
	if n == 0 {
		return pg.WrapError(sql.ErrNoRows, "user", "update")
	}
	return nil
}

func (r *userRepository) IsPremium(ctx context.Context, userID string) (bool, error) {
	var premium bool
	err := r.client.Querier(ctx).QueryRowContext(ctx,
		`SELECT is_premium FROM users WHERE id = $1`, userID,
	).Scan(&premium)
	if err != nil {
		return false, pg.WrapError(err, "user", "get")
	}
	return premium, nil
}
