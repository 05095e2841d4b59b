package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusCancelled = "cancelled"
)

// SavingsGoal is a named target the user is saving toward. SavedAmount is
// derived from the goal's entries and written only by the allocation and
// lifecycle paths in db/sql.
type SavingsGoal struct {
	ID           int             `json:"id"`
	UserID       int             `json:"user_id"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	SavedAmount  decimal.Decimal `json:"saved_amount"`
	Status       string          `json:"status"`
	FromDate     time.Time       `json:"from_date"`
	ToDate       time.Time       `json:"to_date"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func ValidGoalStatus(status string) bool {
	switch status {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusCancelled:
		return true
	}
	return false
}
