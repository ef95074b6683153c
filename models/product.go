package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/mmdatafocus/fiado_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultStockMinimum = 5

type Product struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Name         string          `gorm:"size:100;not null" json:"name"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	StockActual  int             `gorm:"not null;default:0" json:"stock_actual"`
	StockMinimum int             `gorm:"not null;default:5" json:"stock_minimum"`
	IsActive     *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name         string          `json:"name" binding:"required" validate:"required,max=100"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	StockActual  int             `json:"stock_actual" validate:"gte=0"`
	StockMinimum *int            `json:"stock_minimum" validate:"omitempty,gte=0"`
}

// IsLowStock flags products at or below their minimum.
func (p Product) IsLowStock() bool {
	return p.StockActual <= p.StockMinimum
}

func (input *NewProduct) validate() error {
	input.Name = strings.TrimSpace(input.Name)
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if !input.UnitPrice.IsPositive() {
		return errors.New("unit price must be greater than zero")
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	isActive := true
	product := Product{
		Name:         input.Name,
		UnitPrice:    utils.RoundMoney(input.UnitPrice),
		StockActual:  input.StockActual,
		StockMinimum: utils.DereferencePtr(input.StockMinimum, DefaultStockMinimum),
		IsActive:     &isActive,
	}
	if err := config.GetDB().WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return FindProduct(ctx, config.GetDB(), id)
}

func FindProduct(ctx context.Context, db *gorm.DB, id int) (*Product, error) {
	var product Product
	if err := db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "product", Id: id}
		}
		return nil, err
	}
	return &product, nil
}

// UpdateProductPrice only affects future lines; existing ledger entries keep their snapshot.
func UpdateProductPrice(ctx context.Context, id int, price decimal.Decimal) (*Product, error) {
	if !price.IsPositive() {
		return nil, errors.New("unit price must be greater than zero")
	}
	db := config.GetDB()
	product, err := FindProduct(ctx, db, id)
	if err != nil {
		return nil, err
	}
	price = utils.RoundMoney(price)
	if err := db.WithContext(ctx).Model(product).Update("unit_price", price).Error; err != nil {
		return nil, err
	}
	product.UnitPrice = price
	return product, nil
}

func DeleteProduct(ctx context.Context, id int) (*Product, error) {
	db := config.GetDB()
	product, err := FindProduct(ctx, db, id)
	if err != nil {
		return nil, err
	}
	count, err := utils.ResourceCountWhere[LedgerEntry](ctx, db, "product_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ReferencedError{Resource: "product", Id: id, ReferencedBy: "ledger entries", Count: count}
	}
	if err := db.WithContext(ctx).Delete(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func GetLowStockProducts(ctx context.Context) ([]*Product, error) {
	var products []*Product
	err := config.GetDB().WithContext(ctx).
		Where("is_active = ? AND stock_actual <= stock_minimum", true).
		Order("stock_actual, id").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
