package postgres

import (
	"context"
	"errors"

	"github.com/zyphex-tech/realtime-service/internal/domain"
	"github.com/zyphex-tech/realtime-service/pkg/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProjectRepository struct {
	db *pgxpool.Pool
}

func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Get(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	err := r.db.QueryRow(ctx,
		`SELECT id, name, manager_id, created_at FROM projects WHERE id=$1`,
		id).Scan(&p.ID, &p.Name, &p.ManagerID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("project not found")
		}
		return nil, errs.Unavailable("project lookup failed", err)
	}
	return &p, nil
}

func (r *ProjectRepository) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM project_members WHERE project_id=$1 AND user_id=$2)`,
		projectID, userID).Scan(&exists)
	if err != nil {
		return false, errs.Unavailable("project membership lookup failed", err)
	}
	return exists, nil
}
