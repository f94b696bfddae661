package sprint

import (
	"context"
	"errors"
)

// ErrSprintNotFound is returned when a sprint record is not found.
var ErrSprintNotFound = errors.New("sprint not found")

// Repository provides read access to sprints and their feedback and actions.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Sprint, error)
	ListForTeam(ctx context.Context, teamID int64) ([]Sprint, error)
	CountForTeam(ctx context.Context, teamID int64) (int, error)
	ListFeedback(ctx context.Context, sprintID int64, category string) ([]Feedback, error)
	ListActions(ctx context.Context, sprintID int64) ([]Action, error)
}
