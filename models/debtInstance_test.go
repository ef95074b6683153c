package models_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/fiado_backend/models"
)

func TestDebtInstance_Outstanding(t *testing.T) {
	cases := []struct {
		name     string
		instance models.DebtInstance
		expected string
	}{
		{"open", models.DebtInstance{NominalAmount: dec("100"), AmountPaid: dec("0"), Status: models.DebtStatusOpen}, "100"},
		{"partial", models.DebtInstance{NominalAmount: dec("150"), AmountPaid: dec("30"), Status: models.DebtStatusPartialPaid}, "120"},
		{"paid", models.DebtInstance{NominalAmount: dec("25"), AmountPaid: dec("25"), Status: models.DebtStatusPaid}, "0"},
		{"cancelled", models.DebtInstance{NominalAmount: dec("80"), AmountPaid: dec("10"), Status: models.DebtStatusCancelled}, "0"},
	}
	for _, tc := range cases {
		if got := tc.instance.Outstanding(); !got.Equal(dec(tc.expected)) {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.expected, got)
		}
	}
}

func TestDeriveDebtStatus(t *testing.T) {
	if s := models.DeriveDebtStatus(dec("100"), dec("0")); s != models.DebtStatusOpen {
		t.Fatalf("expected Open, got %s", s)
	}
	if s := models.DeriveDebtStatus(dec("100"), dec("0.01")); s != models.DebtStatusPartialPaid {
		t.Fatalf("expected PartialPaid, got %s", s)
	}
	if s := models.DeriveDebtStatus(dec("100"), dec("100.00")); s != models.DebtStatusPaid {
		t.Fatalf("expected Paid, got %s", s)
	}
}

func TestDebtInstance_DaysOutstanding(t *testing.T) {
	d := models.DebtInstance{CreatedAt: time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)}
	if got := d.DaysOutstanding(time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC)); got != 30 {
		t.Fatalf("expected 30 days, got %d", got)
	}
}

func TestSaveDebtInstanceState_DetectsStaleVersion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	c := mustCustomer(t, ctx, "Ana")
	created := mustInstance(t, db, c.ID, models.DebtKindDirectCredit, "100", "0", models.DebtStatusOpen)

	first, err := models.FindDebtInstance(ctx, db, created.ID)
	if err != nil {
		t.Fatalf("FindDebtInstance: %v", err)
	}
	stale := *first

	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	first.AmountPaid = dec("40")
	first.Status = models.DebtStatusPartialPaid
	if err := models.SaveDebtInstanceState(ctx, db, first, now); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if first.Version != 2 {
		t.Fatalf("expected version 2, got %d", first.Version)
	}

	stale.AmountPaid = dec("70")
	stale.Status = models.DebtStatusPartialPaid
	err = models.SaveDebtInstanceState(ctx, db, &stale, now)
	if !errors.Is(err, models.ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}

	reloaded, _ := models.FindDebtInstance(ctx, db, created.ID)
	if !reloaded.AmountPaid.Equal(dec("40")) || reloaded.Version != 2 {
		t.Fatalf("unexpected state after conflict: paid=%s version=%d", reloaded.AmountPaid, reloaded.Version)
	}
}

func TestSaveDebtInstanceState_RejectsOverpayment(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	c := mustCustomer(t, ctx, "Ana")
	d := mustInstance(t, db, c.ID, models.DebtKindDirectCredit, "100", "0", models.DebtStatusOpen)

	d.AmountPaid = dec("100.01")
	err := models.SaveDebtInstanceState(ctx, db, d, time.Now())
	if !errors.Is(err, models.ErrInvalidPaymentAmount) {
		t.Fatalf("expected ErrInvalidPaymentAmount, got %v", err)
	}
}

func TestFindDebtInstancesByCustomer_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	c := mustCustomer(t, ctx, "Ana")
	older := mustInstance(t, db, c.ID, models.DebtKindDirectCredit, "10", "0", models.DebtStatusOpen)
	newer := models.DebtInstance{
		CustomerId: c.ID, Kind: models.DebtKindCreditSale, NominalAmount: dec("5"), AmountPaid: dec("5"),
		Status: models.DebtStatusPaid, Version: 1, CreatedAt: older.CreatedAt.Add(time.Hour),
	}
	if err := db.Create(&newer).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := models.FindDebtInstancesByCustomer(ctx, db, c.ID)
	if err != nil {
		t.Fatalf("FindDebtInstancesByCustomer: %v", err)
	}
	if len(all) != 2 || all[0].ID != newer.ID || all[1].ID != older.ID {
		t.Fatalf("unexpected order: %+v", all)
	}
	open, err := models.FindDebtInstancesByCustomer(ctx, db, c.ID, models.OutstandingDebtStatuses...)
	if err != nil {
		t.Fatalf("FindDebtInstancesByCustomer(open): %v", err)
	}
	if len(open) != 1 || open[0].ID != older.ID {
		t.Fatalf("unexpected open instances: %+v", open)
	}
}

func TestFindDebtInstance_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := models.FindDebtInstance(context.Background(), db, 42)
	var nf *models.NotFoundError
	if !errors.As(err, &nf) || nf.Id != 42 || nf.Kind() != "NotFound" {
		t.Fatalf("expected NotFoundError for 42, got %v", err)
	}
}
