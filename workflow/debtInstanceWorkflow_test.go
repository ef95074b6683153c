package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/fiado_backend/models"
	"github.com/mmdatafocus/fiado_backend/models/reports"
	"github.com/mmdatafocus/fiado_backend/utils"
	"github.com/mmdatafocus/fiado_backend/workflow"
)

func TestCreateCreditSale_PricesLinesAndTakesStock(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	c := mustCustomer(t, "Maria")
	rice := mustProduct(t, "Arroz", "10.00", 5)
	oil := mustProduct(t, "Aceite", "5.00", 3)

	d := mustCreditSale(t, l, c.ID,
		models.ProductQuantity{ProductId: rice.ID, Quantity: 2},
		models.ProductQuantity{ProductId: oil.ID, Quantity: 1},
	)

	if d.Kind != models.DebtKindCreditSale || d.Status != models.DebtStatusOpen {
		t.Fatalf("kind/status = %s/%s", d.Kind, d.Status)
	}
	assertAmount(t, "nominal", d.NominalAmount, "25")
	assertAmount(t, "amount paid", d.AmountPaid, "0")
	if len(d.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(d.Entries))
	}
	assertAmount(t, "rice subtotal", d.Entries[0].Subtotal, "20")
	assertAmount(t, "oil subtotal", d.Entries[1].Subtotal, "5")
	if got := stockOf(t, l.DB, rice.ID); got != 3 {
		t.Fatalf("rice stock = %d, want 3", got)
	}
	if got := stockOf(t, l.DB, oil.ID); got != 2 {
		t.Fatalf("oil stock = %d, want 2", got)
	}

	moves, err := models.GetStockMovements(ctx, l.DB, rice.ID)
	if err != nil {
		t.Fatalf("GetStockMovements: %v", err)
	}
	if len(moves) != 1 || moves[0].Qty != -2 || moves[0].ReferenceID != d.ID {
		t.Fatalf("unexpected rice movements: %+v", moves)
	}
}

func TestCreateCreditSale_InsufficientStockLeavesNothing(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	c := mustCustomer(t, "Maria")
	rice := mustProduct(t, "Arroz", "10.00", 5)
	salt := mustProduct(t, "Sal", "2.00", 1)

	_, err := l.CreateCreditSale(ctx, &workflow.NewCreditSale{
		CustomerId: c.ID,
		Lines: []models.ProductQuantity{
			{ProductId: rice.ID, Quantity: 1},
			{ProductId: salt.ID, Quantity: 2},
		},
	})
	var stockErr *models.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.ProductId != salt.ID || stockErr.Requested != 2 || stockErr.Available != 1 {
		t.Fatalf("unexpected error detail: %+v", stockErr)
	}
	if got := stockOf(t, l.DB, salt.ID); got != 1 {
		t.Fatalf("salt stock = %d, want 1", got)
	}
	if got := stockOf(t, l.DB, rice.ID); got != 5 {
		t.Fatalf("rice stock = %d, want 5", got)
	}
	var count int64
	l.DB.Model(&models.DebtInstance{}).Count(&count)
	if count != 0 {
		t.Fatalf("debt instances = %d, want 0", count)
	}
}

func TestCreateCreditSale_UnknownCustomerAndEmptyLines(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	p := mustProduct(t, "Arroz", "10.00", 5)

	_, err := l.CreateCreditSale(ctx, &workflow.NewCreditSale{
		CustomerId: 99,
		Lines:      []models.ProductQuantity{{ProductId: p.ID, Quantity: 1}},
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	c := mustCustomer(t, "Maria")
	if _, err := l.CreateCreditSale(ctx, &workflow.NewCreditSale{CustomerId: c.ID}); err == nil {
		t.Fatalf("expected error for empty lines")
	}
	_, err = l.CreateCreditSale(ctx, &workflow.NewCreditSale{
		CustomerId: c.ID,
		Lines:      []models.ProductQuantity{{ProductId: p.ID, Quantity: 0}},
	})
	var validationErr *utils.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for zero quantity, got %v", err)
	}
}

func TestCreateDirectCredit(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	c := mustCustomer(t, "Jose")

	d := mustDirectCredit(t, l, c.ID, "100")
	if d.Kind != models.DebtKindDirectCredit || d.Status != models.DebtStatusOpen || d.Version != 1 {
		t.Fatalf("unexpected instance: %+v", d)
	}
	assertAmount(t, "outstanding", d.Outstanding(), "100")
	if !d.CreatedAt.Equal(testNow) {
		t.Fatalf("created_at = %v, want %v", d.CreatedAt, testNow)
	}

	_, err := l.CreateDirectCredit(ctx, &workflow.NewDirectCredit{CustomerId: c.ID, Amount: dec("0")})
	if !errors.Is(err, models.ErrInvalidPaymentAmount) {
		t.Fatalf("expected invalid amount for zero credit, got %v", err)
	}

	_, err = l.CreateDirectCredit(ctx, &workflow.NewDirectCredit{CustomerId: c.ID, Amount: dec("100.005")})
	if !errors.Is(err, models.ErrInvalidPaymentAmount) {
		t.Fatalf("expected invalid amount for three decimals, got %v", err)
	}
	var count int64
	l.DB.Model(&models.DebtInstance{}).Count(&count)
	if count != 1 {
		t.Fatalf("instances = %d, want 1", count)
	}
}

func TestCreateDirectCreditFromItems_TakesStock(t *testing.T) {
	l, _ := newLedger(t)
	c := mustCustomer(t, "Jose")
	p := mustProduct(t, "Leche", "3.50", 4)

	d, err := l.CreateDirectCreditFromItems(context.Background(), &workflow.NewCreditSale{
		CustomerId: c.ID,
		Lines:      []models.ProductQuantity{{ProductId: p.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateDirectCreditFromItems: %v", err)
	}
	if d.Kind != models.DebtKindDirectCredit {
		t.Fatalf("kind = %s", d.Kind)
	}
	assertAmount(t, "nominal", d.NominalAmount, "7")
	if got := stockOf(t, l.DB, p.ID); got != 2 {
		t.Fatalf("stock = %d, want 2", got)
	}
}

func TestCustomerOutstandingAcrossKinds(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	c := mustCustomer(t, "Maria")
	p := mustProduct(t, "Queso", "50.00", 10)

	direct := mustDirectCredit(t, l, c.ID, "100")
	mustCreditSale(t, l, c.ID, models.ProductQuantity{ProductId: p.ID, Quantity: 1})

	total, err := reports.OutstandingForCustomer(ctx, c.ID)
	if err != nil {
		t.Fatalf("OutstandingForCustomer: %v", err)
	}
	assertAmount(t, "customer outstanding", total, "150")

	if _, err := l.ApplyPartialPayment(ctx, direct.ID, dec("30")); err != nil {
		t.Fatalf("ApplyPartialPayment: %v", err)
	}
	total, err = reports.OutstandingForCustomer(ctx, c.ID)
	if err != nil {
		t.Fatalf("OutstandingForCustomer: %v", err)
	}
	assertAmount(t, "customer outstanding after abono", total, "120")
}

func TestUnifiedView_NewestFirstWithEntries(t *testing.T) {
	l, clock := newLedger(t)
	ctx := context.Background()
	c := mustCustomer(t, "Maria")
	other := mustCustomer(t, "Luis")
	p := mustProduct(t, "Pan", "1.00", 20)

	first := mustDirectCredit(t, l, c.ID, "10")
	clock.Advance(time.Hour)
	second := mustCreditSale(t, l, c.ID, models.ProductQuantity{ProductId: p.ID, Quantity: 3})
	third := mustDirectCredit(t, l, c.ID, "5")
	mustDirectCredit(t, l, other.ID, "7")

	view, err := l.UnifiedView(ctx, c.ID)
	if err != nil {
		t.Fatalf("UnifiedView: %v", err)
	}
	if len(view) != 3 {
		t.Fatalf("instances = %d, want 3", len(view))
	}
	// second and third share created_at; the higher id wins the tie
	want := []int{third.ID, second.ID, first.ID}
	for i, d := range view {
		if d.ID != want[i] {
			t.Fatalf("position %d = %d, want %d", i, d.ID, want[i])
		}
	}
	if len(view[1].Entries) != 1 || view[1].Entries[0].Quantity != 3 {
		t.Fatalf("credit sale entries not attached: %+v", view[1].Entries)
	}
	if len(view[0].Entries) != 0 {
		t.Fatalf("direct credit should have no entries")
	}

	if _, err := l.UnifiedView(ctx, 999); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
