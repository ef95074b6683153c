package reports

import (
	"context"
	"errors"

	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/mmdatafocus/fiado_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentHistory struct {
	CustomerID   int                                     `json:"customerId"`
	CustomerName string                                  `json:"customerName"`
	Movements    []*models.DebtMovement                  `json:"movements"`
	TotalsByType map[models.MovementType]decimal.Decimal `json:"totalsByType"`
	TotalPaid    decimal.Decimal                         `json:"totalPaid"`
}

// GetPaymentHistory merges the movements of both credit kinds, newest first.
func GetPaymentHistory(ctx context.Context, customerId int) (*PaymentHistory, error) {
	db := config.GetDB()
	customer, err := models.FindCustomer(ctx, db, customerId)
	if err != nil {
		return nil, err
	}
	movements, err := models.FindMovementsByCustomer(ctx, db, customerId)
	if err != nil {
		return nil, err
	}
	history := &PaymentHistory{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Movements:    movements,
		TotalsByType: make(map[models.MovementType]decimal.Decimal),
		TotalPaid:    decimal.Zero,
	}
	for _, m := range movements {
		history.TotalsByType[m.Type] = history.TotalsByType[m.Type].Add(m.Amount)
		if m.Type.IsPayment() {
			history.TotalPaid = history.TotalPaid.Add(m.Amount)
		}
	}
	return history, nil
}

// GetLastPayment returns the customer's most recent payment movement, or nil when there is none.
func GetLastPayment(ctx context.Context, customerId int) (*models.DebtMovement, error) {
	db := config.GetDB()
	if _, err := models.FindCustomer(ctx, db, customerId); err != nil {
		return nil, err
	}
	return lastPayment(ctx, db, customerId)
}

func lastPayment(ctx context.Context, db *gorm.DB, customerId int) (*models.DebtMovement, error) {
	var movement models.DebtMovement
	err := db.WithContext(ctx).
		Where("customer_id = ? AND type IN ?", customerId, []models.MovementType{
			models.MovementTypeAbono, models.MovementTypeLineAbono, models.MovementTypeFullPayment,
		}).
		Order("occurred_at DESC, id DESC").
		First(&movement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &movement, nil
}
