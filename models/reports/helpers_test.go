package reports_test

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/mmdatafocus/fiado_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), config.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	prev := config.GetDB()
	config.SetDB(db)
	t.Cleanup(func() {
		config.SetDB(prev)
		_ = sqlDB.Close()
	})
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func mustCustomer(t *testing.T, name string) *models.Customer {
	t.Helper()
	c, err := models.CreateCustomer(context.Background(), &models.NewCustomer{Name: name})
	if err != nil {
		t.Fatalf("CreateCustomer(%s): %v", name, err)
	}
	return c
}

func mustInstance(t *testing.T, db *gorm.DB, customerId int, kind models.DebtKind, nominal, paid string, status models.DebtStatus, createdAt time.Time) *models.DebtInstance {
	t.Helper()
	d := models.DebtInstance{
		CustomerId:    customerId,
		Kind:          kind,
		NominalAmount: dec(nominal),
		AmountPaid:    dec(paid),
		Status:        status,
		Version:       1,
		CreatedAt:     createdAt,
	}
	if err := db.Create(&d).Error; err != nil {
		t.Fatalf("create debt instance: %v", err)
	}
	return &d
}
