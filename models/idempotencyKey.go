package models

import "time"

type IdempotencyStatus string

const (
	IdempotencyStatusStarted   IdempotencyStatus = "STARTED"
	IdempotencyStatusSucceeded IdempotencyStatus = "SUCCEEDED"
	IdempotencyStatusFailed    IdempotencyStatus = "FAILED"
)

// IdempotencyKey provides durable, DB-backed idempotency for payment commands.
// Unique constraint: (handler_name, idempotency_key).
type IdempotencyKey struct {
	ID             int               `gorm:"primary_key" json:"id"`
	HandlerName    string            `gorm:"size:100;not null;index:uniq_idem,unique" json:"handler_name"`
	IdempotencyKey string            `gorm:"size:255;not null;index:uniq_idem,unique" json:"idempotency_key"`
	Status         IdempotencyStatus `gorm:"size:20;not null;index" json:"status"`
	ResultId       int               `gorm:"default:0" json:"result_id"`
	LastError      *string           `gorm:"type:text" json:"last_error"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}
