package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerEntry is one product line of a debt instance. UnitPrice is the price at the time of the sale.
type LedgerEntry struct {
	ID             int             `gorm:"primary_key" json:"id"`
	DebtInstanceId int             `gorm:"index;not null" json:"debt_instance_id"`
	ProductId      int             `gorm:"index;not null" json:"product_id"`
	Product        *Product        `gorm:"foreignKey:ProductId;constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"paid_amount"`
	Status         EntryStatus     `gorm:"size:20;index;not null;default:'pending'" json:"status"`
	PaidAt         *time.Time      `json:"paid_at"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProductQuantity is one requested line of a credit sale.
type ProductQuantity struct {
	ProductId int `json:"product_id" binding:"required" validate:"required,gt=0"`
	Quantity  int `json:"quantity" binding:"required" validate:"required,gt=0"`
}

// BeforeSave derives Subtotal. Callers never set it.
// Status updates go through UpdateColumns and skip this hook.
func (e *LedgerEntry) BeforeSave(tx *gorm.DB) error {
	_ = tx
	if e == nil {
		return nil
	}
	if e.Quantity <= 0 {
		return errors.New("ledger entry quantity must be greater than zero")
	}
	e.Subtotal = e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Quantity)))
	if e.Status == "" {
		e.Status = EntryStatusPending
	}
	return nil
}

// Remaining is what is still owed on this line.
func (e LedgerEntry) Remaining() decimal.Decimal {
	if e.Status == EntryStatusCancelled {
		return decimal.Zero
	}
	r := e.Subtotal.Sub(e.PaidAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// PriceLedgerLines locks the referenced products, checks stock for the summed quantity per product
// and returns unsaved entries priced at the current unit price. Nothing is written.
func PriceLedgerLines(ctx context.Context, tx *gorm.DB, lines []ProductQuantity) ([]LedgerEntry, map[int]*Product, error) {
	if len(lines) == 0 {
		return nil, nil, errors.New("at least one line is required")
	}
	ids := make([]int, 0, len(lines))
	requested := make(map[int]int, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, nil, errors.New("quantity must be greater than zero")
		}
		ids = append(ids, line.ProductId)
		requested[line.ProductId] += line.Quantity
	}

	products, err := LockProducts(ctx, tx, ids)
	if err != nil {
		return nil, nil, err
	}
	for _, id := range ids {
		p := products[id]
		if p.StockActual < requested[id] {
			return nil, nil, &InsufficientStockError{ProductId: p.ID, ProductName: p.Name, Requested: requested[id], Available: p.StockActual}
		}
	}

	entries := make([]LedgerEntry, 0, len(lines))
	for _, line := range lines {
		p := products[line.ProductId]
		entries = append(entries, LedgerEntry{
			ProductId: p.ID,
			Quantity:  line.Quantity,
			UnitPrice: p.UnitPrice,
			Subtotal:  p.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
			Status:    EntryStatusPending,
		})
	}
	return entries, products, nil
}

// SumSubtotals is the nominal amount of a set of lines.
func SumSubtotals(entries []LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Subtotal)
	}
	return total
}

// CreateLedgerEntries persists priced entries under instance and decrements stock for each one.
// Must run inside the transaction that priced them so the product locks are still held.
func CreateLedgerEntries(ctx context.Context, tx *gorm.DB, instance *DebtInstance, entries []LedgerEntry, products map[int]*Product) ([]LedgerEntry, error) {
	for i := range entries {
		entry := &entries[i]
		entry.DebtInstanceId = instance.ID
		entry.CreatedAt = instance.CreatedAt
		if err := tx.WithContext(ctx).Omit(clause.Associations).Create(entry).Error; err != nil {
			return nil, err
		}
		product, ok := products[entry.ProductId]
		if !ok {
			return nil, &NotFoundError{Resource: "product", Id: entry.ProductId}
		}
		if err := DecrementStock(ctx, tx, product, entry.Quantity, instance.Kind, instance.ID, entry.ID, instance.CreatedAt); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func FindLedgerEntry(ctx context.Context, db *gorm.DB, id int) (*LedgerEntry, error) {
	var entry LedgerEntry
	if err := db.WithContext(ctx).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "ledger entry", Id: id}
		}
		return nil, err
	}
	return &entry, nil
}

// LockLedgerEntry reads the entry with SELECT ... FOR UPDATE inside tx.
func LockLedgerEntry(ctx context.Context, tx *gorm.DB, id int) (*LedgerEntry, error) {
	var entry LedgerEntry
	if err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "ledger entry", Id: id}
		}
		return nil, err
	}
	return &entry, nil
}

// FindEntriesByInstance returns a snapshot of the instance's entries ordered by id.
func FindEntriesByInstance(ctx context.Context, db *gorm.DB, instanceId int) ([]LedgerEntry, error) {
	var entries []LedgerEntry
	if err := db.WithContext(ctx).Where("debt_instance_id = ?", instanceId).Order("id").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindEntriesByCustomer returns the customer's entries across all credit sales and direct credits.
func FindEntriesByCustomer(ctx context.Context, db *gorm.DB, customerId int, statuses ...EntryStatus) ([]LedgerEntry, error) {
	var entries []LedgerEntry
	query := db.WithContext(ctx).
		Joins("JOIN debt_instances ON debt_instances.id = ledger_entries.debt_instance_id").
		Where("debt_instances.customer_id = ?", customerId)
	if len(statuses) > 0 {
		query = query.Where("ledger_entries.status IN ?", statuses)
	}
	if err := query.Order("ledger_entries.id").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateLedgerEntryState writes status, paid amount and paid_at for one entry after checking the transition.
func UpdateLedgerEntryState(ctx context.Context, tx *gorm.DB, current *LedgerEntry, next EntryStatus, paidAmount decimal.Decimal, paidAt *time.Time, now time.Time) error {
	if !current.Status.CanTransitionTo(next) {
		return errors.New("invalid ledger entry transition from " + string(current.Status) + " to " + string(next))
	}
	if paidAmount.IsNegative() || paidAmount.GreaterThan(current.Subtotal) {
		return &InvalidPaymentAmountError{Amount: paidAmount, Outstanding: current.Subtotal}
	}
	err := tx.WithContext(ctx).Model(&LedgerEntry{}).Where("id = ?", current.ID).
		UpdateColumns(map[string]interface{}{
			"status":      next,
			"paid_amount": paidAmount,
			"paid_at":     paidAt,
			"updated_at":  now,
		}).Error
	if err != nil {
		return err
	}
	current.Status = next
	current.PaidAmount = paidAmount
	current.PaidAt = paidAt
	current.UpdatedAt = now
	return nil
}
