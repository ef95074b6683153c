package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/shopspring/decimal"
)

type AgingBucket string

const (
	AgingBucket0to15  AgingBucket = "0-15"
	AgingBucket16to30 AgingBucket = "16-30"
	AgingBucket31to45 AgingBucket = "31-45"
	AgingBucket46to60 AgingBucket = "46-60"
	AgingBucket61plus AgingBucket = "61+"
)

// AgingBuckets in display order.
var AgingBuckets = []AgingBucket{AgingBucket0to15, AgingBucket16to30, AgingBucket31to45, AgingBucket46to60, AgingBucket61plus}

func BucketForDays(days int) AgingBucket {
	switch {
	case days <= 15:
		return AgingBucket0to15
	case days <= 30:
		return AgingBucket16to30
	case days <= 45:
		return AgingBucket31to45
	case days <= 60:
		return AgingBucket46to60
	}
	return AgingBucket61plus
}

type AgingRow struct {
	CustomerID   int             `json:"customerId,omitempty"`
	CustomerName string          `json:"customerName,omitempty"`
	Total        decimal.Decimal `json:"total"`
	Int0to15     decimal.Decimal `json:"int0to15"`
	Int16to30    decimal.Decimal `json:"int16to30"`
	Int31to45    decimal.Decimal `json:"int31to45"`
	Int46to60    decimal.Decimal `json:"int46to60"`
	Int61plus    decimal.Decimal `json:"int61plus"`
	DebtCount    int             `json:"debtCount"`
	OldestDays   int             `json:"oldestDays"`
}

type AgingReport struct {
	Cutoff time.Time   `json:"cutoff"`
	Rows   []*AgingRow `json:"rows"`
	Totals AgingRow    `json:"totals"`
}

func newAgingRow(customerId int, name string) *AgingRow {
	return &AgingRow{
		CustomerID:   customerId,
		CustomerName: name,
		Total:        decimal.Zero,
		Int0to15:     decimal.Zero,
		Int16to30:    decimal.Zero,
		Int31to45:    decimal.Zero,
		Int46to60:    decimal.Zero,
		Int61plus:    decimal.Zero,
	}
}

func (r *AgingRow) add(bucket AgingBucket, amount decimal.Decimal, days int) {
	r.Total = r.Total.Add(amount)
	switch bucket {
	case AgingBucket0to15:
		r.Int0to15 = r.Int0to15.Add(amount)
	case AgingBucket16to30:
		r.Int16to30 = r.Int16to30.Add(amount)
	case AgingBucket31to45:
		r.Int31to45 = r.Int31to45.Add(amount)
	case AgingBucket46to60:
		r.Int46to60 = r.Int46to60.Add(amount)
	default:
		r.Int61plus = r.Int61plus.Add(amount)
	}
	r.DebtCount++
	if days > r.OldestDays {
		r.OldestDays = days
	}
}

// GetAgingReport buckets every outstanding instance created on or before cutoff by its age at cutoff.
// Balances are current balances; payments made after the cutoff are not unwound.
func GetAgingReport(ctx context.Context, cutoff time.Time) (*AgingReport, error) {
	cutoff = cutoff.UTC()
	start := time.Now()
	defer logSlowReport(ctx, "aging_report", start, map[string]any{
		"cutoff": cutoff.Format(time.RFC3339),
	})

	key := fmt.Sprintf("report:debt:aging:%d", cutoff.Unix())
	return cachedReport(ctx, key, func() (*AgingReport, error) {
		return buildAgingReport(ctx, cutoff)
	})
}

func buildAgingReport(ctx context.Context, cutoff time.Time) (*AgingReport, error) {
	db := config.GetDB()
	instances, err := openInstances(ctx, db, &cutoff)
	if err != nil {
		return nil, err
	}

	rowsByCustomer := make(map[int]*AgingRow)
	ids := make([]int, 0)
	for _, d := range instances {
		if _, ok := rowsByCustomer[d.CustomerId]; !ok {
			rowsByCustomer[d.CustomerId] = newAgingRow(d.CustomerId, "")
			ids = append(ids, d.CustomerId)
		}
	}
	names, err := customerNames(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	report := &AgingReport{Cutoff: cutoff, Rows: make([]*AgingRow, 0, len(ids)), Totals: *newAgingRow(0, "")}
	for _, d := range instances {
		outstanding := d.Outstanding()
		if !outstanding.IsPositive() {
			continue
		}
		days := d.DaysOutstanding(cutoff)
		bucket := BucketForDays(days)
		rowsByCustomer[d.CustomerId].add(bucket, outstanding, days)
		report.Totals.add(bucket, outstanding, days)
	}
	for _, id := range ids {
		row := rowsByCustomer[id]
		if row.DebtCount == 0 {
			continue
		}
		row.CustomerName = names[id]
		report.Rows = append(report.Rows, row)
	}
	sort.SliceStable(report.Rows, func(i, j int) bool {
		if !report.Rows[i].Total.Equal(report.Rows[j].Total) {
			return report.Rows[i].Total.GreaterThan(report.Rows[j].Total)
		}
		return report.Rows[i].CustomerID < report.Rows[j].CustomerID
	})
	return report, nil
}
