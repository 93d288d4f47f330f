package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction represents a persisted financial transaction. Amount is stored
// in cents and is always positive; Type carries the direction. Transactions
// saved from a voice recording keep the original transcript for display.
type Transaction struct {
	Base
	UserID          string          `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID      *string         `gorm:"type:uuid" json:"category_id,omitempty"`
	Type            TransactionType `gorm:"not null" json:"type"`
	Amount          int64           `gorm:"type:bigint;not null" json:"amount"`
	Description     string          `json:"description"`
	Date            time.Time       `gorm:"not null;index" json:"date"`
	VoiceTranscript *string         `json:"voice_transcript,omitempty"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
