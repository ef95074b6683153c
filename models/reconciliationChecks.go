package models

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/mmdatafocus/fiado_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RunLedgerReconciliationChecks writes mismatch rows to reconciliation_reports and returns them.
// This is intended to be run on a schedule (nightly) or via an admin trigger.
// Sums are computed in Go with decimal so every driver yields the same answer.
func RunLedgerReconciliationChecks(ctx context.Context, db *gorm.DB, clock Clock) (correlationId string, findings []ReconciliationReport, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if db == nil {
		return "", nil, fmt.Errorf("db is nil")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	logger := config.GetLogger()

	cid, ok := utils.GetCorrelationIdFromContext(ctx)
	if !ok || cid == "" {
		cid = uuid.NewString()
	}
	now := clock.Now()

	add := func(checkType, entityType string, entityId int, details string) {
		findings = append(findings, ReconciliationReport{
			CheckType:     checkType,
			EntityType:    entityType,
			EntityId:      entityId,
			Details:       details,
			CorrelationId: cid,
			CreatedAt:     now,
		})
	}

	var instances []DebtInstance
	if err := db.WithContext(ctx).Order("id").Find(&instances).Error; err != nil {
		return cid, nil, err
	}
	var entries []LedgerEntry
	if err := db.WithContext(ctx).Order("id").Find(&entries).Error; err != nil {
		return cid, nil, err
	}
	var movements []DebtMovement
	if err := db.WithContext(ctx).Order("id").Find(&movements).Error; err != nil {
		return cid, nil, err
	}

	entriesByInstance := make(map[int][]LedgerEntry, len(instances))
	for _, e := range entries {
		entriesByInstance[e.DebtInstanceId] = append(entriesByInstance[e.DebtInstanceId], e)
	}
	paidByInstance := make(map[int]decimal.Decimal, len(instances))
	for _, m := range movements {
		if m.Type.IsPayment() {
			paidByInstance[m.DebtInstanceId] = paidByInstance[m.DebtInstanceId].Add(m.Amount)
		}
	}

	for _, d := range instances {
		// 1) counter bounds
		if d.AmountPaid.GreaterThan(d.NominalAmount) {
			add(ReconciliationCheckOverpaid, "DebtInstance", d.ID,
				fmt.Sprintf("amount_paid %s exceeds nominal %s", d.AmountPaid.StringFixed(2), d.NominalAmount.StringFixed(2)))
		}

		// 2) status agrees with counters
		if d.Status != DebtStatusCancelled {
			if expected := DeriveDebtStatus(d.NominalAmount, d.AmountPaid); expected != d.Status {
				add(ReconciliationCheckStatus, "DebtInstance", d.ID,
					fmt.Sprintf("status %s but counters imply %s", d.Status, expected))
			}
			if d.Status == DebtStatusPaid && d.PaidAt == nil {
				add(ReconciliationCheckStatus, "DebtInstance", d.ID, "paid without paid_at")
			}
		} else if d.CancelledAt == nil {
			add(ReconciliationCheckStatus, "DebtInstance", d.ID, "cancelled without cancelled_at")
		}

		lines := entriesByInstance[d.ID]
		if len(lines) > 0 {
			// 3) nominal equals the priced lines
			if sum := SumSubtotals(lines); !sum.Equal(d.NominalAmount) {
				add(ReconciliationCheckNominal, "DebtInstance", d.ID,
					fmt.Sprintf("nominal %s but line subtotals sum to %s", d.NominalAmount.StringFixed(2), sum.StringFixed(2)))
			}
			// 4) entry remainders equal the instance outstanding
			if d.Status != DebtStatusCancelled {
				remaining := decimal.Zero
				for _, e := range lines {
					remaining = remaining.Add(e.Remaining())
				}
				if !remaining.Equal(d.Outstanding()) {
					add(ReconciliationCheckEntryBalance, "DebtInstance", d.ID,
						fmt.Sprintf("outstanding %s but entries owe %s", d.Outstanding().StringFixed(2), remaining.StringFixed(2)))
				}
			}
		}

		// 5) payment movements add up to the counter
		if paid := paidByInstance[d.ID]; !paid.Equal(d.AmountPaid) {
			add(ReconciliationCheckMovementAmount, "DebtInstance", d.ID,
				fmt.Sprintf("amount_paid %s but movements total %s", d.AmountPaid.StringFixed(2), paid.StringFixed(2)))
		}
	}

	// 6) stock never negative
	var negative []Product
	if err := db.WithContext(ctx).Where("stock_actual < 0").Order("id").Find(&negative).Error; err != nil {
		return cid, nil, err
	}
	for _, p := range negative {
		add(ReconciliationCheckNegativeStock, "Product", p.ID, fmt.Sprintf("stock_actual %d", p.StockActual))
	}

	if len(findings) > 0 {
		if err := db.WithContext(ctx).Create(&findings).Error; err != nil {
			config.LogError(logger, "ReconciliationChecks", "RunLedgerReconciliationChecks", "write reports", cid, err)
			return cid, findings, err
		}
	}
	logger.WithFields(logrus.Fields{
		"correlation_id": cid,
		"instances":      len(instances),
		"findings":       len(findings),
	}).Info("ledger reconciliation checks finished")
	return cid, findings, nil
}
