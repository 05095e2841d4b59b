package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EntryStatusPending   = "pending"
	EntryStatusActive    = "active"
	EntryStatusCompleted = "completed"
	EntryStatusCancelled = "cancelled"
)

// SavingsEntry records one allocation event against a goal. TransactionID is
// a non-owning link to the income transaction that funded the allocation.
type SavingsEntry struct {
	ID            int             `json:"id"`
	UserID        int             `json:"user_id"`
	GoalID        int             `json:"goal_id"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Status        string          `json:"status"`
	TransactionID *int            `json:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at"`
}
