package reports_test

import (
	"context"
	"testing"

	"github.com/mmdatafocus/fiado_backend/models"
	"github.com/mmdatafocus/fiado_backend/models/reports"
)

func TestGetCustomerBalancesReport_RanksDebtors(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ana := mustCustomer(t, "Ana")
	luis := mustCustomer(t, "Luis")
	marta := mustCustomer(t, "Marta")

	mustInstance(t, db, ana.ID, models.DebtKindDirectCredit, "40", "0", models.DebtStatusOpen, day(2024, 1, 1))
	mustInstance(t, db, ana.ID, models.DebtKindCreditSale, "20", "10", models.DebtStatusPartialPaid, day(2024, 1, 20))
	mustInstance(t, db, luis.ID, models.DebtKindDirectCredit, "90", "0", models.DebtStatusOpen, day(2024, 1, 15))
	mustInstance(t, db, marta.ID, models.DebtKindDirectCredit, "500", "500", models.DebtStatusPaid, day(2024, 1, 1))

	rows, err := reports.GetCustomerBalancesReport(ctx, 10, day(2024, 1, 31))
	if err != nil {
		t.Fatalf("GetCustomerBalancesReport: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 debtors, got %d", len(rows))
	}
	if rows[0].CustomerID != luis.ID || !rows[0].TotalOutstanding.Equal(dec("90")) {
		t.Fatalf("expected Luis first, got %+v", rows[0])
	}
	if rows[1].OpenDebts != 2 || !rows[1].TotalOutstanding.Equal(dec("50")) || !rows[1].AverageDebt.Equal(dec("25")) || rows[1].OldestDebtDays != 30 {
		t.Fatalf("unexpected Ana row: %+v", rows[1])
	}

	top, err := reports.GetCustomerBalancesReport(ctx, 1, day(2024, 1, 31))
	if err != nil {
		t.Fatalf("GetCustomerBalancesReport(limit 1): %v", err)
	}
	if len(top) != 1 || top[0].CustomerID != luis.ID {
		t.Fatalf("unexpected limited rows: %+v", top)
	}
}

func TestGetOutstandingByProductReport(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ana := mustCustomer(t, "Ana")
	rice, _ := models.CreateProduct(ctx, &models.NewProduct{Name: "Arroz", UnitPrice: dec("10"), StockActual: 10})
	oil, _ := models.CreateProduct(ctx, &models.NewProduct{Name: "Aceite", UnitPrice: dec("8"), StockActual: 10})

	open := mustInstance(t, db, ana.ID, models.DebtKindCreditSale, "36", "6", models.DebtStatusPartialPaid, day(2024, 1, 1))
	paid := mustInstance(t, db, ana.ID, models.DebtKindCreditSale, "10", "10", models.DebtStatusPaid, day(2024, 1, 1))
	entries := []models.LedgerEntry{
		{DebtInstanceId: open.ID, ProductId: rice.ID, Quantity: 2, UnitPrice: dec("10"), PaidAmount: dec("6"), Status: models.EntryStatusPartiallyPaid},
		{DebtInstanceId: open.ID, ProductId: oil.ID, Quantity: 2, UnitPrice: dec("8"), Status: models.EntryStatusPartiallyPaid},
		{DebtInstanceId: paid.ID, ProductId: rice.ID, Quantity: 1, UnitPrice: dec("10"), PaidAmount: dec("10"), Status: models.EntryStatusPaid},
	}
	for i := range entries {
		if err := db.Create(&entries[i]).Error; err != nil {
			t.Fatalf("create entry: %v", err)
		}
	}

	rows, err := reports.GetOutstandingByProductReport(ctx, 5)
	if err != nil {
		t.Fatalf("GetOutstandingByProductReport: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 products, got %+v", rows)
	}
	if rows[0].ProductID != oil.ID || !rows[0].AmountOwed.Equal(dec("16")) || rows[0].ProductName != "Aceite" {
		t.Fatalf("expected oil first with 16 owed, got %+v", rows[0])
	}
	if rows[1].ProductID != rice.ID || !rows[1].AmountOwed.Equal(dec("14")) || rows[1].QuantityOwed != 2 {
		t.Fatalf("expected rice with 14 owed, got %+v", rows[1])
	}
}

func TestGetDebtSummaryReport(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ana := mustCustomer(t, "Ana")
	luis := mustCustomer(t, "Luis")
	mustInstance(t, db, ana.ID, models.DebtKindDirectCredit, "100", "0", models.DebtStatusOpen, day(2024, 1, 1))
	mustInstance(t, db, ana.ID, models.DebtKindCreditSale, "50", "20", models.DebtStatusPartialPaid, day(2024, 1, 1))
	mustInstance(t, db, luis.ID, models.DebtKindCreditSale, "30", "30", models.DebtStatusPaid, day(2024, 1, 1))
	mustInstance(t, db, luis.ID, models.DebtKindDirectCredit, "40", "0", models.DebtStatusCancelled, day(2024, 1, 1))
	if _, err := models.CreateProduct(ctx, &models.NewProduct{Name: "Leche", UnitPrice: dec("3"), StockActual: 2}); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	summary, err := reports.GetDebtSummaryReport(ctx)
	if err != nil {
		t.Fatalf("GetDebtSummaryReport: %v", err)
	}
	if !summary.TotalOutstanding.Equal(dec("130")) || !summary.DirectCreditOutstanding.Equal(dec("100")) || !summary.CreditSaleOutstanding.Equal(dec("30")) {
		t.Fatalf("unexpected outstanding: %+v", summary)
	}
	if summary.OpenCount != 1 || summary.PartialPaidCount != 1 || summary.PaidCount != 1 || summary.CancelledCount != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if summary.CustomersWithDebt != 1 || summary.LowStockProducts != 1 {
		t.Fatalf("unexpected debtor/low stock counts: %+v", summary)
	}
}

func TestInvalidateDebtReports_NoRedis(t *testing.T) {
	if err := reports.InvalidateDebtReports(); err != nil {
		t.Fatalf("expected nil without redis, got %v", err)
	}
}
