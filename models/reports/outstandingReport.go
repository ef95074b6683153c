package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/mmdatafocus/fiado_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Balances in this file are read straight from the database and never cached.

type CustomerBalance struct {
	CustomerID              int             `json:"customerId"`
	CustomerName            string          `json:"customerName"`
	TotalOutstanding        decimal.Decimal `json:"totalOutstanding"`
	DirectCreditOutstanding decimal.Decimal `json:"directCreditOutstanding"`
	CreditSaleOutstanding   decimal.Decimal `json:"creditSaleOutstanding"`
	OpenDebts               int             `json:"openDebts"`
	LastPaymentAt           *time.Time      `json:"lastPaymentAt"`
}

// OutstandingForInstance is nominal minus amount paid, zero once cancelled.
func OutstandingForInstance(ctx context.Context, instanceId int) (decimal.Decimal, error) {
	instance, err := models.FindDebtInstance(ctx, config.GetDB(), instanceId)
	if err != nil {
		return decimal.Zero, err
	}
	return instance.Outstanding(), nil
}

// OutstandingForCustomer sums the outstanding of the customer's open and partially paid
// instances, direct credits and credit sales together.
func OutstandingForCustomer(ctx context.Context, customerId int) (decimal.Decimal, error) {
	balance, err := GetCustomerBalance(ctx, customerId)
	if err != nil {
		return decimal.Zero, err
	}
	return balance.TotalOutstanding, nil
}

func GetCustomerBalance(ctx context.Context, customerId int) (*CustomerBalance, error) {
	db := config.GetDB()
	customer, err := models.FindCustomer(ctx, db, customerId)
	if err != nil {
		return nil, err
	}
	instances, err := models.FindDebtInstancesByCustomer(ctx, db, customerId, models.OutstandingDebtStatuses...)
	if err != nil {
		return nil, err
	}
	balance := summarizeCustomer(customer, instances)
	last, err := lastPayment(ctx, db, customerId)
	if err != nil {
		return nil, err
	}
	if last != nil {
		t := last.OccurredAt
		balance.LastPaymentAt = &t
	}
	return balance, nil
}

func summarizeCustomer(customer *models.Customer, instances []*models.DebtInstance) *CustomerBalance {
	balance := &CustomerBalance{
		CustomerID:              customer.ID,
		CustomerName:            customer.Name,
		TotalOutstanding:        decimal.Zero,
		DirectCreditOutstanding: decimal.Zero,
		CreditSaleOutstanding:   decimal.Zero,
	}
	for _, d := range instances {
		if d.Status.IsSettled() {
			continue
		}
		outstanding := d.Outstanding()
		balance.TotalOutstanding = balance.TotalOutstanding.Add(outstanding)
		switch d.Kind {
		case models.DebtKindDirectCredit:
			balance.DirectCreditOutstanding = balance.DirectCreditOutstanding.Add(outstanding)
		case models.DebtKindCreditSale:
			balance.CreditSaleOutstanding = balance.CreditSaleOutstanding.Add(outstanding)
		}
		balance.OpenDebts++
	}
	return balance
}

// customerNames maps ids to names for report rows.
func customerNames(ctx context.Context, db *gorm.DB, ids []int) (map[int]string, error) {
	names := make(map[int]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var customers []models.Customer
	if err := db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&customers).Error; err != nil {
		return nil, err
	}
	for _, c := range customers {
		names[c.ID] = c.Name
	}
	return names, nil
}

// openInstances loads every instance that still counts toward a balance.
func openInstances(ctx context.Context, db *gorm.DB, createdUpTo *time.Time) ([]*models.DebtInstance, error) {
	var instances []*models.DebtInstance
	query := db.WithContext(ctx).Where("status IN ?", models.OutstandingDebtStatuses)
	if createdUpTo != nil {
		query = query.Where("created_at <= ?", *createdUpTo)
	}
	if err := query.Order("created_at, id").Find(&instances).Error; err != nil {
		return nil, err
	}
	return instances, nil
}
