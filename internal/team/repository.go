package team

import (
	"context"
	"errors"
)

// ErrTeamNotFound is returned when a team record is not found.
var ErrTeamNotFound = errors.New("team not found")

// ErrDuplicateTeamName is returned when a team with the same name already exists in the org.
var ErrDuplicateTeamName = errors.New("team name already exists")

// Repository provides operations on the teams and team_members tables.
type Repository interface {
	Create(ctx context.Context, team *Team) error
	GetByID(ctx context.Context, id int64) (*Team, error)
	ListByOrg(ctx context.Context, orgID int64) ([]Team, error)
	CountByOrg(ctx context.Context, orgID int64) (int, error)
	ListMembers(ctx context.Context, teamID int64) ([]Member, error)
	CountMembers(ctx context.Context, teamID int64) (int, error)
}
