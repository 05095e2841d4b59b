package db

import "errors"

// Failure taxonomy for the savings core. Handlers map these to HTTP statuses
// with errors.Is; anything else is treated as a store-level failure the
// caller may retry.
var (
	ErrGoalNotFound        = errors.New("savings goal not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNotIncomeSource     = errors.New("only income transactions can fund an allocation")
	ErrInsufficientFunds   = errors.New("transaction amount is not enough")
	ErrInvalidAmount       = errors.New("amount must be a positive value")
	ErrInvalidStatus       = errors.New("invalid status value")
	ErrInvalidType         = errors.New("transaction type must be income or expense")
	ErrInvalidDates        = errors.New("from and to dates must be in the future")
	ErrInvalidGoal         = errors.New("a savings goal must be selected")
)
