package models_test

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

// setupTestDB installs a fresh in-memory database as the global DB.
// One connection keeps the memory database alive and serialises transactions.
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

func mustCustomer(t *testing.T, ctx context.Context, name string) *models.Customer {
	t.Helper()
	c, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: name})
	if err != nil {
		t.Fatalf("CreateCustomer(%s): %v", name, err)
	}
	return c
}

func mustProduct(t *testing.T, ctx context.Context, name, price string, stock int) *models.Product {
	t.Helper()
	p, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:        name,
		UnitPrice:   decimal.RequireFromString(price),
		StockActual: stock,
	})
	if err != nil {
		t.Fatalf("CreateProduct(%s): %v", name, err)
	}
	return p
}

func mustInstance(t *testing.T, db *gorm.DB, customerId int, kind models.DebtKind, nominal, paid string, status models.DebtStatus) *models.DebtInstance {
	t.Helper()
	d := models.DebtInstance{
		CustomerId:    customerId,
		Kind:          kind,
		NominalAmount: decimal.RequireFromString(nominal),
		AmountPaid:    decimal.RequireFromString(paid),
		Status:        status,
		Version:       1,
		CreatedAt:     time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := db.Create(&d).Error; err != nil {
		t.Fatalf("create debt instance: %v", err)
	}
	return &d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
