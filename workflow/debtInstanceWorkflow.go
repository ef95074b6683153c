package workflow

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/mmdatafocus/fiado_backend/models"
	"github.com/mmdatafocus/fiado_backend/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

type NewDirectCredit struct {
	CustomerId int             `json:"customer_id" binding:"required" validate:"required,gt=0"`
	Amount     decimal.Decimal `json:"amount"`
	Notes      string          `json:"notes"`
}

type NewCreditSale struct {
	CustomerId int                      `json:"customer_id" binding:"required" validate:"required,gt=0"`
	Lines      []models.ProductQuantity `json:"lines" binding:"required" validate:"required,min=1,dive"`
	Notes      string                   `json:"notes"`
}

func (input *NewDirectCredit) validate() error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if !input.Amount.IsPositive() || !utils.HasMoneyScale(input.Amount) {
		return &models.InvalidPaymentAmountError{Amount: input.Amount, Outstanding: decimal.Zero}
	}
	return nil
}

func (input *NewCreditSale) validate() error {
	if len(input.Lines) == 0 {
		return errors.New("a credit sale needs at least one line")
	}
	return utils.ValidateStruct(input)
}

// CreateDirectCredit records a standalone debt of a fixed amount with no product lines.
func (l *DebtLedger) CreateDirectCredit(ctx context.Context, input *NewDirectCredit) (result *models.DebtInstance, err error) {
	ctx, span := l.startSpan(ctx, "CreateDirectCredit", attribute.Int("customer.id", input.CustomerId))
	defer func() { endSpan(span, err) }()

	if err = input.validate(); err != nil {
		return nil, err
	}
	err = l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := models.FindCustomer(ctx, tx, input.CustomerId); err != nil {
			return err
		}
		instance := newInstance(input.CustomerId, models.DebtKindDirectCredit, input.Amount, input.Notes, l.now())
		if err := tx.WithContext(ctx).Omit("Customer", "Entries").Create(instance).Error; err != nil {
			return err
		}
		result = instance
		return nil
	})
	if err != nil {
		l.logFailure(ctx, "CreateDirectCredit", input, err)
		return nil, err
	}
	l.afterCommit("CreateDirectCredit")
	return result, nil
}

// CreateDirectCreditFromItems records a direct credit that carries product lines. Stock is checked and taken like a sale.
func (l *DebtLedger) CreateDirectCreditFromItems(ctx context.Context, input *NewCreditSale) (*models.DebtInstance, error) {
	return l.createWithLines(ctx, "CreateDirectCreditFromItems", models.DebtKindDirectCredit, input)
}

// CreateCreditSale records a sale on credit. Nominal amount is the sum of the line subtotals.
// Any line without enough stock fails the whole sale.
func (l *DebtLedger) CreateCreditSale(ctx context.Context, input *NewCreditSale) (*models.DebtInstance, error) {
	return l.createWithLines(ctx, "CreateCreditSale", models.DebtKindCreditSale, input)
}

func (l *DebtLedger) createWithLines(ctx context.Context, op string, kind models.DebtKind, input *NewCreditSale) (result *models.DebtInstance, err error) {
	ctx, span := l.startSpan(ctx, op,
		attribute.Int("customer.id", input.CustomerId),
		attribute.Int("debt.lines", len(input.Lines)),
	)
	defer func() { endSpan(span, err) }()

	if err = input.validate(); err != nil {
		return nil, err
	}
	err = l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := models.FindCustomer(ctx, tx, input.CustomerId); err != nil {
			return err
		}
		priced, products, err := models.PriceLedgerLines(ctx, tx, input.Lines)
		if err != nil {
			return err
		}
		instance := newInstance(input.CustomerId, kind, models.SumSubtotals(priced), input.Notes, l.now())
		if err := tx.WithContext(ctx).Omit("Customer", "Entries").Create(instance).Error; err != nil {
			return err
		}
		entries, err := models.CreateLedgerEntries(ctx, tx, instance, priced, products)
		if err != nil {
			return err
		}
		instance.Entries = entries
		result = instance
		return nil
	})
	if err != nil {
		l.logFailure(ctx, op, input, err)
		return nil, err
	}
	l.afterCommit(op)
	return result, nil
}

func newInstance(customerId int, kind models.DebtKind, nominal decimal.Decimal, notes string, now time.Time) *models.DebtInstance {
	return &models.DebtInstance{
		CustomerId:    customerId,
		Kind:          kind,
		NominalAmount: nominal,
		AmountPaid:    decimal.Zero,
		Status:        models.DebtStatusOpen,
		Notes:         notes,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// UnifiedView lists every debt of a customer, both kinds, newest first with entries attached.
func (l *DebtLedger) UnifiedView(ctx context.Context, customerId int) ([]*models.DebtInstance, error) {
	if _, err := models.FindCustomer(ctx, l.DB, customerId); err != nil {
		return nil, err
	}
	instances, err := models.FindDebtInstancesByCustomer(ctx, l.DB, customerId)
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return instances, nil
	}

	ids := make([]int, 0, len(instances))
	byId := make(map[int]*models.DebtInstance, len(instances))
	for _, d := range instances {
		ids = append(ids, d.ID)
		byId[d.ID] = d
	}
	var entries []models.LedgerEntry
	if err := l.DB.WithContext(ctx).Where("debt_instance_id IN ?", ids).Order("id").Find(&entries).Error; err != nil {
		return nil, err
	}
	for _, e := range entries {
		d := byId[e.DebtInstanceId]
		d.Entries = append(d.Entries, e)
	}

	sort.SliceStable(instances, func(i, j int) bool {
		if !instances[i].CreatedAt.Equal(instances[j].CreatedAt) {
			return instances[i].CreatedAt.After(instances[j].CreatedAt)
		}
		return instances[i].ID > instances[j].ID
	})
	return instances, nil
}
