package models

import (
	"fmt"

	"github.com/mmdatafocus/fiado_backend/config"
)

func MigrateTable() error {
	db := config.GetDB()
	if db == nil {
		return fmt.Errorf("db is nil")
	}

	err := db.AutoMigrate(
		&Customer{}, &Product{}, &StockMovement{},
		&DebtInstance{}, &LedgerEntry{}, &DebtMovement{},
		&IdempotencyKey{},
		&ReconciliationReport{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
