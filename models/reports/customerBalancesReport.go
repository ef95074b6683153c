package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/shopspring/decimal"
)

const DefaultReportLimit = 10

type DebtorBalance struct {
	CustomerID       int             `json:"customerId"`
	CustomerName     string          `json:"customerName"`
	TotalOutstanding decimal.Decimal `json:"totalOutstanding"`
	OpenDebts        int             `json:"openDebts"`
	AverageDebt      decimal.Decimal `json:"averageDebt"`
	OldestDebtDays   int             `json:"oldestDebtDays"`
}

// GetCustomerBalancesReport ranks customers by total outstanding, largest first.
func GetCustomerBalancesReport(ctx context.Context, limit int, now time.Time) ([]*DebtorBalance, error) {
	if limit <= 0 {
		limit = DefaultReportLimit
	}
	start := time.Now()
	defer logSlowReport(ctx, "customer_balances_report", start, map[string]any{"limit": limit})

	key := fmt.Sprintf("report:debt:debtors:%d:%s", limit, now.UTC().Format("2006-01-02"))
	return cachedReport(ctx, key, func() ([]*DebtorBalance, error) {
		return buildCustomerBalances(ctx, limit, now)
	})
}

func buildCustomerBalances(ctx context.Context, limit int, now time.Time) ([]*DebtorBalance, error) {
	db := config.GetDB()
	instances, err := openInstances(ctx, db, nil)
	if err != nil {
		return nil, err
	}

	byCustomer := make(map[int]*DebtorBalance)
	ids := make([]int, 0)
	for _, d := range instances {
		outstanding := d.Outstanding()
		if !outstanding.IsPositive() {
			continue
		}
		row, ok := byCustomer[d.CustomerId]
		if !ok {
			row = &DebtorBalance{CustomerID: d.CustomerId, TotalOutstanding: decimal.Zero, AverageDebt: decimal.Zero}
			byCustomer[d.CustomerId] = row
			ids = append(ids, d.CustomerId)
		}
		row.TotalOutstanding = row.TotalOutstanding.Add(outstanding)
		row.OpenDebts++
		if days := d.DaysOutstanding(now); days > row.OldestDebtDays {
			row.OldestDebtDays = days
		}
	}
	names, err := customerNames(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]*DebtorBalance, 0, len(ids))
	for _, id := range ids {
		row := byCustomer[id]
		row.CustomerName = names[id]
		row.AverageDebt = row.TotalOutstanding.Div(decimal.NewFromInt(int64(row.OpenDebts))).Round(2)
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].TotalOutstanding.Equal(rows[j].TotalOutstanding) {
			return rows[i].TotalOutstanding.GreaterThan(rows[j].TotalOutstanding)
		}
		return rows[i].CustomerID < rows[j].CustomerID
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
