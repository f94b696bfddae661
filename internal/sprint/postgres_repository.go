package sprint

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

const sprintColumns = `id, team_id, name, start_date, end_date, created_by, created_at`

func scanSprint(row pgx.Row, s *Sprint) error {
	return row.Scan(&s.ID, &s.TeamID, &s.Name, &s.StartDate, &s.EndDate, &s.CreatedBy, &s.CreatedAt)
}

// GetByID retrieves a single sprint.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Sprint, error) {
	var s Sprint
	err := scanSprint(r.pool.QueryRow(ctx, `SELECT `+sprintColumns+` FROM sprints WHERE id = $1`, id), &s)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSprintNotFound
		}
		return nil, fmt.Errorf("querying sprint: %w", err)
	}
	return &s, nil
}

// ListForTeam retrieves a team's sprints, most recent first.
func (r *PostgresRepository) ListForTeam(ctx context.Context, teamID int64) ([]Sprint, error) {
	query := `SELECT ` + sprintColumns + `
		FROM sprints
		WHERE team_id = $1
		ORDER BY start_date DESC NULLS LAST, created_at DESC`

	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("listing sprints: %w", err)
	}
	defer rows.Close()

	sprints := []Sprint{}
	for rows.Next() {
		var s Sprint
		if err := scanSprint(rows, &s); err != nil {
			return nil, fmt.Errorf("scanning sprint row: %w", err)
		}
		sprints = append(sprints, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sprint rows: %w", err)
	}

	return sprints, nil
}

// CountForTeam returns the number of sprints of a team.
func (r *PostgresRepository) CountForTeam(ctx context.Context, teamID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM sprints WHERE team_id = $1", teamID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting sprints: %w", err)
	}
	return count, nil
}

// ListFeedback retrieves the feedback of a sprint in one category.
func (r *PostgresRepository) ListFeedback(ctx context.Context, sprintID int64, category string) ([]Feedback, error) {
	query := `
		SELECT id, sprint_id, category, content, user_id, created_at
		FROM feedback
		WHERE sprint_id = $1 AND category = $2
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, sprintID, category)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	defer rows.Close()

	items := []Feedback{}
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.ID, &f.SprintID, &f.Category, &f.Content, &f.CreatedBy, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning feedback row: %w", err)
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedback rows: %w", err)
	}

	return items, nil
}

// ListActions retrieves the actions of a sprint.
func (r *PostgresRepository) ListActions(ctx context.Context, sprintID int64) ([]Action, error) {
	query := `
		SELECT id, sprint_id, content, done, user_id, created_at
		FROM actions
		WHERE sprint_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, sprintID)
	if err != nil {
		return nil, fmt.Errorf("listing actions: %w", err)
	}
	defer rows.Close()

	items := []Action{}
	for rows.Next() {
		var a Action
		if err := rows.Scan(&a.ID, &a.SprintID, &a.Content, &a.Done, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning action row: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating action rows: %w", err)
	}

	return items, nil
}
