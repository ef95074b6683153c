package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/mmdatafocus/fiado_backend/models"
	"github.com/shopspring/decimal"
)

type ProductExposure struct {
	ProductID      int             `json:"productId"`
	ProductName    string          `json:"productName"`
	QuantityOwed   int             `json:"quantityOwed"`
	AmountOwed     decimal.Decimal `json:"amountOwed"`
	OpenEntryCount int             `json:"openEntryCount"`
}

// GetOutstandingByProductReport ranks products by the value still owed on open ledger entries.
func GetOutstandingByProductReport(ctx context.Context, limit int) ([]*ProductExposure, error) {
	if limit <= 0 {
		limit = DefaultReportLimit
	}
	start := time.Now()
	defer logSlowReport(ctx, "outstanding_by_product_report", start, map[string]any{"limit": limit})

	key := fmt.Sprintf("report:debt:products:%d", limit)
	return cachedReport(ctx, key, func() ([]*ProductExposure, error) {
		return buildOutstandingByProduct(ctx, limit)
	})
}

func buildOutstandingByProduct(ctx context.Context, limit int) ([]*ProductExposure, error) {
	db := config.GetDB()
	var entries []models.LedgerEntry
	err := db.WithContext(ctx).
		Joins("JOIN debt_instances ON debt_instances.id = ledger_entries.debt_instance_id").
		Where("ledger_entries.status IN ? AND debt_instances.status IN ?", models.OpenEntryStatuses, models.OutstandingDebtStatuses).
		Order("ledger_entries.id").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	byProduct := make(map[int]*ProductExposure)
	ids := make([]int, 0)
	for _, e := range entries {
		remaining := e.Remaining()
		if !remaining.IsPositive() {
			continue
		}
		row, ok := byProduct[e.ProductId]
		if !ok {
			row = &ProductExposure{ProductID: e.ProductId, AmountOwed: decimal.Zero}
			byProduct[e.ProductId] = row
			ids = append(ids, e.ProductId)
		}
		row.QuantityOwed += e.Quantity
		row.AmountOwed = row.AmountOwed.Add(remaining)
		row.OpenEntryCount++
	}

	if len(ids) > 0 {
		var products []models.Product
		if err := db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&products).Error; err != nil {
			return nil, err
		}
		for _, p := range products {
			byProduct[p.ID].ProductName = p.Name
		}
	}

	rows := make([]*ProductExposure, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, byProduct[id])
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].AmountOwed.Equal(rows[j].AmountOwed) {
			return rows[i].AmountOwed.GreaterThan(rows[j].AmountOwed)
		}
		return rows[i].ProductID < rows[j].ProductID
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
