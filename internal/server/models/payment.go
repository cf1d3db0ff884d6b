package models

import "time"

// Payment statuses.
const (
	PaymentPending         = "pending"
	PaymentCompleted       = "completed"
	PaymentFailed          = "failed"
	PaymentRefundRequested = "refund_requested"
)

type Payment struct {
	ID             string     `bson:"_id" json:"payment_id"`
	UserID         string     `bson:"user_id" json:"user_id"`
	ConferenceID   string     `bson:"conference_id" json:"conference_id"`
	ConferenceName string     `bson:"conference_name" json:"conference_name"`
	Amount         float64    `bson:"amount" json:"amount"`
	Status         string     `bson:"status" json:"status"`
	TransactionID  string     `bson:"transaction_id" json:"transaction_id,omitempty"`
	RefundID       string     `bson:"refund_id" json:"refund_id,omitempty"`
	RefundReason   string     `bson:"refund_reason" json:"refund_reason,omitempty"`
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
	ProcessedAt    *time.Time `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
}
