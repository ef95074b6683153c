package workflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/mmdatafocus/fiado_backend/models"
	"github.com/mmdatafocus/fiado_backend/workflow"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

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

// newLedger returns a ledger over a fresh database with a fixed clock and no Redis.
func newLedger(t *testing.T) (*workflow.DebtLedger, *models.FixedClock) {
	t.Helper()
	db := setupTestDB(t)
	clock := models.NewFixedClock(testNow)
	l := workflow.NewDebtLedger(db, nil)
	l.Clock = clock
	l.UseRedisLocks = false
	l.MaxAttempts = 3
	return l, clock
}

func mustCustomer(t *testing.T, name string) *models.Customer {
	t.Helper()
	c, err := models.CreateCustomer(context.Background(), &models.NewCustomer{Name: name})
	if err != nil {
		t.Fatalf("CreateCustomer(%s): %v", name, err)
	}
	return c
}

func mustProduct(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	p, err := models.CreateProduct(context.Background(), &models.NewProduct{
		Name:        name,
		UnitPrice:   decimal.RequireFromString(price),
		StockActual: stock,
	})
	if err != nil {
		t.Fatalf("CreateProduct(%s): %v", name, err)
	}
	return p
}

func mustDirectCredit(t *testing.T, l *workflow.DebtLedger, customerId int, amount string) *models.DebtInstance {
	t.Helper()
	d, err := l.CreateDirectCredit(context.Background(), &workflow.NewDirectCredit{
		CustomerId: customerId,
		Amount:     decimal.RequireFromString(amount),
	})
	if err != nil {
		t.Fatalf("CreateDirectCredit(%s): %v", amount, err)
	}
	return d
}

func mustCreditSale(t *testing.T, l *workflow.DebtLedger, customerId int, lines ...models.ProductQuantity) *models.DebtInstance {
	t.Helper()
	d, err := l.CreateCreditSale(context.Background(), &workflow.NewCreditSale{
		CustomerId: customerId,
		Lines:      lines,
	})
	if err != nil {
		t.Fatalf("CreateCreditSale: %v", err)
	}
	return d
}

func reload(t *testing.T, l *workflow.DebtLedger, id int) *models.DebtInstance {
	t.Helper()
	d, err := l.GetDebtInstance(context.Background(), id)
	if err != nil {
		t.Fatalf("GetDebtInstance(%d): %v", id, err)
	}
	return d
}

func stockOf(t *testing.T, db *gorm.DB, productId int) int {
	t.Helper()
	var p models.Product
	if err := db.First(&p, productId).Error; err != nil {
		t.Fatalf("load product %d: %v", productId, err)
	}
	return p.StockActual
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, what string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s = %s, want %s", what, got.StringFixed(2), want)
	}
}
