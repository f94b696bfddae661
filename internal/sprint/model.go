package sprint

import (
	"time"

	"github.com/google/uuid"
)

// Feedback categories.
const (
	CategoryGood        = "good"
	CategoryImprovement = "improvement"
	CategoryNeutral     = "neutral"
)

// Categories lists the feedback categories in display order.
var Categories = []string{CategoryGood, CategoryImprovement, CategoryNeutral}

// Sprint represents a row in the sprints table.
type Sprint struct {
	ID        int64      `json:"id"`
	TeamID    int64      `json:"team_id"`
	Name      string     `json:"name"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	CreatedBy uuid.UUID  `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

// Feedback represents a row in the feedback table.
type Feedback struct {
	ID        int64     `json:"id"`
	SprintID  int64     `json:"sprint_id"`
	Category  string    `json:"category"`
	Content   string    `json:"content"`
	CreatedBy uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Action represents a follow-up action recorded against a sprint.
type Action struct {
	ID        int64     `json:"id"`
	SprintID  int64     `json:"sprint_id"`
	Content   string    `json:"content"`
	Done      bool      `json:"done"`
	CreatedBy uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
