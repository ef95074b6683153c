package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/fiado_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DebtInstance is one unit of customer debt: a Direct Credit or a Credit Sale.
// NominalAmount is fixed at creation. AmountPaid never exceeds it.
type DebtInstance struct {
	ID            int             `gorm:"primary_key" json:"id"`
	CustomerId    int             `gorm:"index;not null" json:"customer_id"`
	Customer      *Customer       `gorm:"foreignKey:CustomerId;constraint:OnDelete:RESTRICT" json:"customer,omitempty"`
	Kind          DebtKind        `gorm:"size:20;index;not null" json:"kind"`
	NominalAmount decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"nominal_amount"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"amount_paid"`
	Status        DebtStatus      `gorm:"size:20;index;not null;default:'Open'" json:"status"`
	Notes         string          `gorm:"type:text" json:"notes"`
	PaidAt        *time.Time      `json:"paid_at"`
	CancelledAt   *time.Time      `json:"cancelled_at"`
	LastPaymentAt *time.Time      `json:"last_payment_at"`
	Version       int             `gorm:"not null;default:1" json:"version"`
	Entries       []LedgerEntry   `gorm:"foreignKey:DebtInstanceId" json:"entries,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Outstanding is the single formula for what is still owed on an instance.
func (d DebtInstance) Outstanding() decimal.Decimal {
	if d.Status == DebtStatusCancelled {
		return decimal.Zero
	}
	remaining := d.NominalAmount.Sub(d.AmountPaid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

func (d DebtInstance) IsSettled() bool {
	return d.Status.IsSettled()
}

// DaysOutstanding counts whole days since creation.
func (d DebtInstance) DaysOutstanding(now time.Time) int {
	return utils.DaysBetween(d.CreatedAt, now)
}

// DeriveDebtStatus maps the paid counter onto the non-cancelled statuses.
func DeriveDebtStatus(nominal, paid decimal.Decimal) DebtStatus {
	switch {
	case paid.GreaterThanOrEqual(nominal):
		return DebtStatusPaid
	case paid.IsPositive():
		return DebtStatusPartialPaid
	}
	return DebtStatusOpen
}

func FindDebtInstance(ctx context.Context, db *gorm.DB, id int) (*DebtInstance, error) {
	var instance DebtInstance
	if err := db.WithContext(ctx).First(&instance, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "debt instance", Id: id}
		}
		return nil, err
	}
	return &instance, nil
}

// FindDebtInstanceWithEntries loads the instance and its entries ordered by id.
func FindDebtInstanceWithEntries(ctx context.Context, db *gorm.DB, id int) (*DebtInstance, error) {
	instance, err := FindDebtInstance(ctx, db, id)
	if err != nil {
		return nil, err
	}
	entries, err := FindEntriesByInstance(ctx, db, id)
	if err != nil {
		return nil, err
	}
	instance.Entries = entries
	return instance, nil
}

// LockDebtInstance reads the instance with SELECT ... FOR UPDATE inside tx.
func LockDebtInstance(ctx context.Context, tx *gorm.DB, id int) (*DebtInstance, error) {
	var instance DebtInstance
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&instance, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "debt instance", Id: id}
		}
		return nil, err
	}
	return &instance, nil
}

// SaveDebtInstanceState writes the mutable counters of d with a compare-and-swap on Version.
// On success d.Version is advanced.
func SaveDebtInstanceState(ctx context.Context, tx *gorm.DB, d *DebtInstance, now time.Time) error {
	if d.AmountPaid.GreaterThan(d.NominalAmount) {
		return &InvalidPaymentAmountError{Amount: d.AmountPaid, Outstanding: d.NominalAmount}
	}
	result := tx.WithContext(ctx).Model(&DebtInstance{}).
		Where("id = ? AND version = ?", d.ID, d.Version).
		UpdateColumns(map[string]interface{}{
			"amount_paid":     d.AmountPaid,
			"status":          d.Status,
			"paid_at":         d.PaidAt,
			"cancelled_at":    d.CancelledAt,
			"last_payment_at": d.LastPaymentAt,
			"version":         d.Version + 1,
			"updated_at":      now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &ConcurrentModificationError{InstanceId: d.ID, Version: d.Version}
	}
	d.Version++
	d.UpdatedAt = now
	return nil
}

// FindDebtInstancesByCustomer returns the customer's instances, newest first.
// With no statuses every instance is returned.
func FindDebtInstancesByCustomer(ctx context.Context, db *gorm.DB, customerId int, statuses ...DebtStatus) ([]*DebtInstance, error) {
	var instances []*DebtInstance
	query := db.WithContext(ctx).Where("customer_id = ?", customerId)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.Order("created_at DESC, id DESC").Find(&instances).Error; err != nil {
		return nil, err
	}
	return instances, nil
}
