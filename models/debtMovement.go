package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/fiado_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DebtMovement is the append-only money history behind payment history and last payment.
type DebtMovement struct {
	ID             int             `gorm:"primary_key" json:"id"`
	CustomerId     int             `gorm:"index;not null" json:"customer_id"`
	DebtInstanceId int             `gorm:"index;not null" json:"debt_instance_id"`
	DebtKind       DebtKind        `gorm:"size:20;not null" json:"debt_kind"`
	LedgerEntryId  *int            `gorm:"index" json:"ledger_entry_id"`
	Type           MovementType    `gorm:"size:20;index;not null" json:"type"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"amount"`
	OccurredAt     time.Time       `gorm:"index;not null" json:"occurred_at"`
	CorrelationId  string          `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// RecordDebtMovement appends a movement for instance. The correlation id is taken from ctx.
func RecordDebtMovement(ctx context.Context, tx *gorm.DB, instance *DebtInstance, entryId *int, movementType MovementType, amount decimal.Decimal, occurredAt time.Time) (*DebtMovement, error) {
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	movement := DebtMovement{
		CustomerId:     instance.CustomerId,
		DebtInstanceId: instance.ID,
		DebtKind:       instance.Kind,
		LedgerEntryId:  entryId,
		Type:           movementType,
		Amount:         amount,
		OccurredAt:     occurredAt,
		CorrelationId:  cid,
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

// FindMovementsByCustomer returns movements newest first.
func FindMovementsByCustomer(ctx context.Context, db *gorm.DB, customerId int) ([]*DebtMovement, error) {
	var movements []*DebtMovement
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerId).
		Order("occurred_at DESC, id DESC").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}
