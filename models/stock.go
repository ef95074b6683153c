package models

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/mmdatafocus/fiado_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockMovement is the append-only stock ledger. Qty is negative for outgoing stock.
type StockMovement struct {
	ID                int       `gorm:"primary_key" json:"id"`
	ProductId         int       `gorm:"index;not null" json:"product_id"`
	Qty               int       `gorm:"not null" json:"qty"`
	ClosingQty        int       `gorm:"not null" json:"closing_qty"`
	IsOutgoing        *bool     `gorm:"not null;default:false" json:"is_outgoing"`
	ReferenceType     DebtKind  `gorm:"size:20;index" json:"reference_type"`
	ReferenceID       int       `gorm:"index" json:"reference_id"`
	ReferenceDetailID int       `json:"reference_detail_id"`
	Description       string    `gorm:"size:100" json:"description"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeSave keeps IsOutgoing in step with the sign of Qty.
func (sm *StockMovement) BeforeSave(tx *gorm.DB) error {
	_ = tx
	if sm == nil {
		return nil
	}
	if sm.Qty == 0 {
		return errors.New("stock movement qty must not be zero")
	}
	b := sm.Qty < 0
	sm.IsOutgoing = &b
	return nil
}

// LockProducts takes row locks on every product in ascending id order.
// Concurrent multi-line sales then always lock in the same order.
func LockProducts(ctx context.Context, tx *gorm.DB, productIds []int) (map[int]*Product, error) {
	ids := utils.UniqueSlice(productIds)
	sort.Ints(ids)

	products := make(map[int]*Product, len(ids))
	for _, id := range ids {
		var product Product
		err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &NotFoundError{Resource: "product", Id: id}
			}
			return nil, err
		}
		products[id] = &product
	}
	return products, nil
}

// DecrementStock removes qty units from a locked product and writes the stock movement.
// The guarded update keeps stock_actual from going negative even without the row lock.
func DecrementStock(ctx context.Context, tx *gorm.DB, product *Product, qty int, refType DebtKind, refId, refDetailId int, date time.Time) error {
	if qty <= 0 {
		return errors.New("quantity must be greater than zero")
	}
	result := tx.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND stock_actual >= ?", product.ID, qty).
		UpdateColumn("stock_actual", gorm.Expr("stock_actual - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var current Product
		if err := tx.WithContext(ctx).First(&current, product.ID).Error; err != nil {
			return err
		}
		return &InsufficientStockError{ProductId: product.ID, ProductName: product.Name, Requested: qty, Available: current.StockActual}
	}
	product.StockActual -= qty

	movement := StockMovement{
		ProductId:         product.ID,
		Qty:               -qty,
		ClosingQty:        product.StockActual,
		ReferenceType:     refType,
		ReferenceID:       refId,
		ReferenceDetailID: refDetailId,
		Description:       string(refType),
		CreatedAt:         date,
	}
	return tx.WithContext(ctx).Create(&movement).Error
}

func GetStockMovements(ctx context.Context, db *gorm.DB, productId int) ([]*StockMovement, error) {
	var movements []*StockMovement
	if err := db.WithContext(ctx).Where("product_id = ?", productId).Order("id").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
