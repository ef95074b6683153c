package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/mmdatafocus/fiado_backend/models"
	"github.com/shopspring/decimal"
)

type DebtSummary struct {
	TotalOutstanding        decimal.Decimal `json:"totalOutstanding"`
	DirectCreditOutstanding decimal.Decimal `json:"directCreditOutstanding"`
	CreditSaleOutstanding   decimal.Decimal `json:"creditSaleOutstanding"`
	OpenCount               int             `json:"openCount"`
	PartialPaidCount        int             `json:"partialPaidCount"`
	PaidCount               int             `json:"paidCount"`
	CancelledCount          int             `json:"cancelledCount"`
	CustomersWithDebt       int             `json:"customersWithDebt"`
	LowStockProducts        int             `json:"lowStockProducts"`
}

// GetDebtSummaryReport backs the dashboard totals.
func GetDebtSummaryReport(ctx context.Context) (*DebtSummary, error) {
	start := time.Now()
	defer logSlowReport(ctx, "debt_summary_report", start, nil)

	return cachedReport(ctx, "report:debt:summary", func() (*DebtSummary, error) {
		return buildDebtSummary(ctx)
	})
}

func buildDebtSummary(ctx context.Context) (*DebtSummary, error) {
	db := config.GetDB()
	var instances []models.DebtInstance
	if err := db.WithContext(ctx).Select("id", "customer_id", "kind", "nominal_amount", "amount_paid", "status").Find(&instances).Error; err != nil {
		return nil, err
	}

	summary := &DebtSummary{
		TotalOutstanding:        decimal.Zero,
		DirectCreditOutstanding: decimal.Zero,
		CreditSaleOutstanding:   decimal.Zero,
	}
	debtors := make(map[int]struct{})
	for _, d := range instances {
		switch d.Status {
		case models.DebtStatusOpen:
			summary.OpenCount++
		case models.DebtStatusPartialPaid:
			summary.PartialPaidCount++
		case models.DebtStatusPaid:
			summary.PaidCount++
		case models.DebtStatusCancelled:
			summary.CancelledCount++
		}
		if d.Status.IsSettled() {
			continue
		}
		outstanding := d.Outstanding()
		summary.TotalOutstanding = summary.TotalOutstanding.Add(outstanding)
		if d.Kind == models.DebtKindDirectCredit {
			summary.DirectCreditOutstanding = summary.DirectCreditOutstanding.Add(outstanding)
		} else {
			summary.CreditSaleOutstanding = summary.CreditSaleOutstanding.Add(outstanding)
		}
		if outstanding.IsPositive() {
			debtors[d.CustomerId] = struct{}{}
		}
	}
	summary.CustomersWithDebt = len(debtors)

	var lowStock int64
	if err := db.WithContext(ctx).Model(&models.Product{}).
		Where("is_active = ? AND stock_actual <= stock_minimum", true).
		Count(&lowStock).Error; err != nil {
		return nil, err
	}
	summary.LowStockProducts = int(lowStock)
	return summary, nil
}
