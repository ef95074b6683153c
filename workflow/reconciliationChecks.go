package workflow

import (
	"context"

	"github.com/mmdatafocus/fiado_backend/models"
	"github.com/sirupsen/logrus"
)

// RunReconciliation writes mismatch rows to reconciliation_reports and returns them.
// This is intended to be run on a schedule (nightly) or via an admin trigger.
func (l *DebtLedger) RunReconciliation(ctx context.Context) ([]models.ReconciliationReport, error) {
	// Delegate to the models-level implementation to avoid package cycles.
	cid, findings, err := models.RunLedgerReconciliationChecks(ctx, l.DB, l.Clock)
	if err != nil {
		l.logFailure(ctx, "RunReconciliation", cid, err)
		return findings, err
	}
	if len(findings) > 0 {
		l.Logger.WithFields(logrus.Fields{
			"field":          "ReconciliationChecks",
			"correlation_id": cid,
			"findings":       len(findings),
		}).Warn("ledger reconciliation found mismatches")
	}
	return findings, nil
}
