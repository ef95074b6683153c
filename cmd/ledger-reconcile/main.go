package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/mmdatafocus/fiado_backend/utils"
	"github.com/mmdatafocus/fiado_backend/workflow"
)

// ledger-reconcile checks the debt ledger for drift between counters, entries, movements and stock,
// writes every mismatch to reconciliation_reports and prints it.
// Exit code 3 means mismatches were found.
//
// Example:
//
//	go run ./cmd/ledger-reconcile/ -correlation-id=nightly-2024-03-01
func main() {
	correlationID := flag.String("correlation-id", "", "Optional: correlation id stamped on the report rows")
	quiet := flag.Bool("quiet", false, "Only print the summary line")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	cid := *correlationID
	if cid == "" {
		cid = uuid.NewString()
	}
	ctx := utils.SetCorrelationIdInContext(context.Background(), cid)

	findings, err := workflow.NewDebtLedger(db, config.GetLogger()).RunReconciliation(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconciliation failed: %v\n", err)
		os.Exit(1)
	}
	if !*quiet {
		for _, f := range findings {
			fmt.Printf("%-20s %-14s id=%-8d %s\n", f.CheckType, f.EntityType, f.EntityId, f.Details)
		}
	}
	fmt.Printf("correlation_id=%s findings=%d\n", cid, len(findings))
	if len(findings) > 0 {
		os.Exit(3)
	}
}
