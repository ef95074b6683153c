package models

import "time"

const (
	ReconciliationCheckOverpaid       = "INSTANCE_OVERPAID"
	ReconciliationCheckStatus         = "INSTANCE_STATUS"
	ReconciliationCheckEntryBalance   = "ENTRY_BALANCE"
	ReconciliationCheckNominal        = "CREDIT_SALE_NOMINAL"
	ReconciliationCheckNegativeStock  = "NEGATIVE_STOCK"
	ReconciliationCheckMovementAmount = "MOVEMENT_TOTAL"
)

// Drift detection output (nightly/admin-triggered via cmd/ledger-reconcile).
type ReconciliationReport struct {
	ID            int       `gorm:"primary_key" json:"id"`
	CheckType     string    `gorm:"size:50;index;not null" json:"check_type"`  // e.g. INSTANCE_OVERPAID, ENTRY_BALANCE
	EntityType    string    `gorm:"size:50;index;not null" json:"entity_type"` // e.g. DebtInstance, Product
	EntityId      int       `gorm:"index;not null" json:"entity_id"`
	Details       string    `gorm:"type:text" json:"details"` // human-readable mismatch detail
	CorrelationId string    `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
