package postgres

import (
	"context"
	"errors"

	"github.com/zyphex-tech/realtime-service/internal/domain"
	"github.com/zyphex-tech/realtime-service/pkg/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChannelRepository struct {
	db *pgxpool.Pool
}

func NewChannelRepository(db *pgxpool.Pool) *ChannelRepository {
	return &ChannelRepository{db: db}
}

func (r *ChannelRepository) Get(ctx context.Context, id string) (*domain.Channel, error) {
	var ch domain.Channel
	err := r.db.QueryRow(ctx,
		`SELECT id, name, type, is_private, project_id, created_at FROM channels WHERE id=$1`,
		id).Scan(&ch.ID, &ch.Name, &ch.Type, &ch.IsPrivate, &ch.ProjectID, &ch.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("channel not found")
		}
		return nil, errs.Unavailable("channel lookup failed", err)
	}
	return &ch, nil
}

func (r *ChannelRepository) IsMember(ctx context.Context, channelID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM channel_members WHERE channel_id=$1 AND user_id=$2)`,
		channelID, userID).Scan(&exists)
	if err != nil {
		return false, errs.Unavailable("channel membership lookup failed", err)
	}
	return exists, nil
}
