package models

type UserSettings struct {
	UserID   int    `json:"user_id"`
	Currency string `json:"currency"`
}
