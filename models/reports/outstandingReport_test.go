package reports_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mmdatafocus/fiado_backend/models"
	"github.com/mmdatafocus/fiado_backend/models/reports"
)

func TestOutstandingForCustomer_CombinesKindsAndSkipsSettled(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ana := mustCustomer(t, "Ana")
	luis := mustCustomer(t, "Luis")
	created := day(2024, 1, 10)

	mustInstance(t, db, ana.ID, models.DebtKindDirectCredit, "100", "0", models.DebtStatusOpen, created)
	mustInstance(t, db, ana.ID, models.DebtKindCreditSale, "50", "20", models.DebtStatusPartialPaid, created)
	mustInstance(t, db, ana.ID, models.DebtKindCreditSale, "30", "30", models.DebtStatusPaid, created)
	cancelled := mustInstance(t, db, ana.ID, models.DebtKindDirectCredit, "40", "0", models.DebtStatusCancelled, created)
	mustInstance(t, db, luis.ID, models.DebtKindDirectCredit, "70", "0", models.DebtStatusOpen, created)

	total, err := reports.OutstandingForCustomer(ctx, ana.ID)
	if err != nil {
		t.Fatalf("OutstandingForCustomer: %v", err)
	}
	if !total.Equal(dec("130")) {
		t.Fatalf("expected 130.00, got %s", total)
	}

	balance, err := reports.GetCustomerBalance(ctx, ana.ID)
	if err != nil {
		t.Fatalf("GetCustomerBalance: %v", err)
	}
	if !balance.DirectCreditOutstanding.Equal(dec("100")) || !balance.CreditSaleOutstanding.Equal(dec("30")) || balance.OpenDebts != 2 {
		t.Fatalf("unexpected balance: %+v", balance)
	}
	if balance.LastPaymentAt != nil {
		t.Fatalf("expected no last payment, got %v", balance.LastPaymentAt)
	}

	got, err := reports.OutstandingForInstance(ctx, cancelled.ID)
	if err != nil {
		t.Fatalf("OutstandingForInstance: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected cancelled instance outstanding 0, got %s", got)
	}
}

func TestOutstandingForCustomer_UnknownCustomer(t *testing.T) {
	setupTestDB(t)
	_, err := reports.OutstandingForCustomer(context.Background(), 404)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPaymentHistory_NewestFirstWithTotals(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ana := mustCustomer(t, "Ana")
	credit := mustInstance(t, db, ana.ID, models.DebtKindDirectCredit, "100", "30", models.DebtStatusPartialPaid, day(2024, 1, 1))
	sale := mustInstance(t, db, ana.ID, models.DebtKindCreditSale, "25", "25", models.DebtStatusPaid, day(2024, 1, 2))
	gone := mustInstance(t, db, ana.ID, models.DebtKindDirectCredit, "10", "0", models.DebtStatusCancelled, day(2024, 1, 3))

	if _, err := models.RecordDebtMovement(ctx, db, credit, nil, models.MovementTypeAbono, dec("30"), day(2024, 1, 5)); err != nil {
		t.Fatalf("RecordDebtMovement: %v", err)
	}
	if _, err := models.RecordDebtMovement(ctx, db, sale, nil, models.MovementTypeFullPayment, dec("25"), day(2024, 1, 7)); err != nil {
		t.Fatalf("RecordDebtMovement: %v", err)
	}
	if _, err := models.RecordDebtMovement(ctx, db, gone, nil, models.MovementTypeCancellation, dec("10"), day(2024, 1, 9)); err != nil {
		t.Fatalf("RecordDebtMovement: %v", err)
	}

	history, err := reports.GetPaymentHistory(ctx, ana.ID)
	if err != nil {
		t.Fatalf("GetPaymentHistory: %v", err)
	}
	if len(history.Movements) != 3 || history.Movements[0].Type != models.MovementTypeCancellation {
		t.Fatalf("expected newest movement first, got %+v", history.Movements)
	}
	if !history.TotalPaid.Equal(dec("55")) {
		t.Fatalf("expected total paid 55, got %s", history.TotalPaid)
	}
	if !history.TotalsByType[models.MovementTypeAbono].Equal(dec("30")) {
		t.Fatalf("unexpected abono total: %s", history.TotalsByType[models.MovementTypeAbono])
	}

	last, err := reports.GetLastPayment(ctx, ana.ID)
	if err != nil {
		t.Fatalf("GetLastPayment: %v", err)
	}
	if last == nil || last.Type != models.MovementTypeFullPayment || !last.OccurredAt.Equal(day(2024, 1, 7)) {
		t.Fatalf("unexpected last payment: %+v", last)
	}

	balance, err := reports.GetCustomerBalance(ctx, ana.ID)
	if err != nil {
		t.Fatalf("GetCustomerBalance: %v", err)
	}
	if balance.LastPaymentAt == nil || !balance.LastPaymentAt.Equal(day(2024, 1, 7)) {
		t.Fatalf("unexpected last payment at: %v", balance.LastPaymentAt)
	}
}

func TestGetLastPayment_NoneYet(t *testing.T) {
	setupTestDB(t)
	ana := mustCustomer(t, "Ana")
	last, err := reports.GetLastPayment(context.Background(), ana.ID)
	if err != nil || last != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", last, err)
	}
}
