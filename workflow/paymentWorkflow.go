package workflow

import (
	"context"
	"time"

	"github.com/mmdatafocus/fiado_backend/models"
	"github.com/mmdatafocus/fiado_backend/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// idempotency handler names
const (
	handlerFullPayment    = "ApplyFullPayment"
	handlerPartialPayment = "ApplyPartialPayment"
	handlerCancel         = "CancelInstance"
	handlerLineAbono      = "AbonarLineItem"
)

// ApplyFullPayment settles the whole outstanding balance of an instance.
// A Paid or Cancelled instance returns AlreadySettledError and is left untouched.
func (l *DebtLedger) ApplyFullPayment(ctx context.Context, instanceId int) (*models.DebtInstance, error) {
	return l.runPaymentCommand(ctx, handlerFullPayment, instanceId, instanceId, func(tx *gorm.DB, now time.Time) (*models.DebtInstance, error) {
		instance, err := models.LockDebtInstance(ctx, tx, instanceId)
		if err != nil {
			return nil, err
		}
		if instance.IsSettled() {
			return nil, &models.AlreadySettledError{InstanceId: instance.ID, Status: instance.Status}
		}
		entries, err := models.FindEntriesByInstance(ctx, tx, instance.ID)
		if err != nil {
			return nil, err
		}
		amount := instance.Outstanding()
		if err := settleInstance(ctx, tx, instance, entries, now); err != nil {
			return nil, err
		}
		if err := models.SaveDebtInstanceState(ctx, tx, instance, now); err != nil {
			return nil, err
		}
		if _, err := models.RecordDebtMovement(ctx, tx, instance, nil, models.MovementTypeFullPayment, amount, now); err != nil {
			return nil, err
		}
		instance.Entries = entries
		return instance, nil
	})
}

// ApplyPartialPayment records an abono against the instance balance.
// The amount must be positive and no larger than the outstanding balance.
// It is spread over the open entries oldest first; reaching the nominal amount settles the instance.
func (l *DebtLedger) ApplyPartialPayment(ctx context.Context, instanceId int, amount decimal.Decimal) (*models.DebtInstance, error) {
	return l.runPaymentCommand(ctx, handlerPartialPayment, instanceId, instanceId, func(tx *gorm.DB, now time.Time) (*models.DebtInstance, error) {
		instance, err := models.LockDebtInstance(ctx, tx, instanceId)
		if err != nil {
			return nil, err
		}
		if instance.IsSettled() {
			return nil, &models.AlreadySettledError{InstanceId: instance.ID, Status: instance.Status}
		}
		outstanding := instance.Outstanding()
		if !amount.IsPositive() || !utils.HasMoneyScale(amount) || amount.GreaterThan(outstanding) {
			return nil, &models.InvalidPaymentAmountError{Amount: amount, Outstanding: outstanding}
		}
		entries, err := models.FindEntriesByInstance(ctx, tx, instance.ID)
		if err != nil {
			return nil, err
		}

		instance.AmountPaid = instance.AmountPaid.Add(amount)
		instance.LastPaymentAt = &now
		if instance.AmountPaid.Equal(instance.NominalAmount) {
			if err := settleInstance(ctx, tx, instance, entries, now); err != nil {
				return nil, err
			}
		} else {
			if err := allocateToEntries(ctx, tx, entries, amount, now); err != nil {
				return nil, err
			}
			instance.Status = models.DeriveDebtStatus(instance.NominalAmount, instance.AmountPaid)
		}
		if err := models.SaveDebtInstanceState(ctx, tx, instance, now); err != nil {
			return nil, err
		}
		if _, err := models.RecordDebtMovement(ctx, tx, instance, nil, models.MovementTypeAbono, amount, now); err != nil {
			return nil, err
		}
		instance.Entries = entries
		return instance, nil
	})
}

// CancelInstance forgives the remaining balance. Paid entries stay paid; every other entry is cancelled.
// There is no way back from Cancelled.
func (l *DebtLedger) CancelInstance(ctx context.Context, instanceId int) (*models.DebtInstance, error) {
	return l.runPaymentCommand(ctx, handlerCancel, instanceId, instanceId, func(tx *gorm.DB, now time.Time) (*models.DebtInstance, error) {
		instance, err := models.LockDebtInstance(ctx, tx, instanceId)
		if err != nil {
			return nil, err
		}
		if instance.IsSettled() {
			return nil, &models.AlreadySettledError{InstanceId: instance.ID, Status: instance.Status}
		}
		entries, err := models.FindEntriesByInstance(ctx, tx, instance.ID)
		if err != nil {
			return nil, err
		}
		forgiven := instance.Outstanding()
		for i := range entries {
			e := &entries[i]
			if !e.Status.IsOpen() {
				continue
			}
			if err := models.UpdateLedgerEntryState(ctx, tx, e, models.EntryStatusCancelled, e.PaidAmount, e.PaidAt, now); err != nil {
				return nil, err
			}
		}
		instance.Status = models.DebtStatusCancelled
		instance.CancelledAt = &now
		if err := models.SaveDebtInstanceState(ctx, tx, instance, now); err != nil {
			return nil, err
		}
		if _, err := models.RecordDebtMovement(ctx, tx, instance, nil, models.MovementTypeCancellation, forgiven, now); err != nil {
			return nil, err
		}
		instance.Entries = entries
		return instance, nil
	})
}

// AbonarLineItem pays part or all of one ledger entry. The amount is bounded by what is left on that line.
// The owning instance counter moves with it in the same transaction.
func (l *DebtLedger) AbonarLineItem(ctx context.Context, entryId int, amount decimal.Decimal) (*models.DebtInstance, error) {
	entry, err := models.FindLedgerEntry(ctx, l.DB, entryId)
	if err != nil {
		return nil, err
	}
	instanceId := entry.DebtInstanceId
	return l.runPaymentCommand(ctx, handlerLineAbono, instanceId, entryId, func(tx *gorm.DB, now time.Time) (*models.DebtInstance, error) {
		instance, err := models.LockDebtInstance(ctx, tx, instanceId)
		if err != nil {
			return nil, err
		}
		if instance.IsSettled() {
			return nil, &models.AlreadySettledError{InstanceId: instance.ID, Status: instance.Status}
		}
		entry, err := models.LockLedgerEntry(ctx, tx, entryId)
		if err != nil {
			return nil, err
		}
		remaining := entry.Remaining()
		if !amount.IsPositive() || !utils.HasMoneyScale(amount) || amount.GreaterThan(remaining) {
			return nil, &models.InvalidPaymentAmountError{Amount: amount, Outstanding: remaining}
		}
		if outstanding := instance.Outstanding(); amount.GreaterThan(outstanding) {
			return nil, &models.InvalidPaymentAmountError{Amount: amount, Outstanding: outstanding}
		}

		paid := entry.PaidAmount.Add(amount)
		next := models.EntryStatusPartiallyPaid
		var paidAt *time.Time
		if paid.Equal(entry.Subtotal) {
			next = models.EntryStatusPaid
			paidAt = &now
		}
		if err := models.UpdateLedgerEntryState(ctx, tx, entry, next, paid, paidAt, now); err != nil {
			return nil, err
		}

		instance.AmountPaid = instance.AmountPaid.Add(amount)
		instance.LastPaymentAt = &now
		entries, err := models.FindEntriesByInstance(ctx, tx, instance.ID)
		if err != nil {
			return nil, err
		}
		if instance.AmountPaid.Equal(instance.NominalAmount) {
			if err := settleInstance(ctx, tx, instance, entries, now); err != nil {
				return nil, err
			}
		} else {
			instance.Status = models.DeriveDebtStatus(instance.NominalAmount, instance.AmountPaid)
		}
		if err := models.SaveDebtInstanceState(ctx, tx, instance, now); err != nil {
			return nil, err
		}
		if _, err := models.RecordDebtMovement(ctx, tx, instance, &entryId, models.MovementTypeLineAbono, amount, now); err != nil {
			return nil, err
		}
		instance.Entries = entries
		return instance, nil
	})
}

// settleInstance moves every non-cancelled entry to paid and marks the instance Paid.
// The caller saves the instance.
func settleInstance(ctx context.Context, tx *gorm.DB, instance *models.DebtInstance, entries []models.LedgerEntry, now time.Time) error {
	for i := range entries {
		e := &entries[i]
		if e.Status == models.EntryStatusCancelled {
			continue
		}
		paidAt := e.PaidAt
		if paidAt == nil {
			paidAt = &now
		}
		if err := models.UpdateLedgerEntryState(ctx, tx, e, models.EntryStatusPaid, e.Subtotal, paidAt, now); err != nil {
			return err
		}
	}
	instance.AmountPaid = instance.NominalAmount
	instance.Status = models.DebtStatusPaid
	instance.PaidAt = &now
	instance.LastPaymentAt = &now
	return nil
}

// allocateToEntries spreads amount over open entries in id order.
// Entries the amount fully covers become paid; every other open entry becomes partially paid.
func allocateToEntries(ctx context.Context, tx *gorm.DB, entries []models.LedgerEntry, amount decimal.Decimal, now time.Time) error {
	left := amount
	for i := range entries {
		e := &entries[i]
		if !e.Status.IsOpen() {
			continue
		}
		portion := decimal.Min(left, e.Remaining())
		left = left.Sub(portion)
		paid := e.PaidAmount.Add(portion)
		next := models.EntryStatusPartiallyPaid
		var paidAt *time.Time
		if paid.Equal(e.Subtotal) {
			next = models.EntryStatusPaid
			paidAt = &now
		}
		if err := models.UpdateLedgerEntryState(ctx, tx, e, next, paid, paidAt, now); err != nil {
			return err
		}
	}
	return nil
}

// runPaymentCommand wraps one payment command: span, Redis lock, transaction with retry, idempotency, cache invalidation.
// lockId is the instance to serialize on; targetId is what an idempotency key is bound to.
func (l *DebtLedger) runPaymentCommand(ctx context.Context, op string, lockId, targetId int,
	apply func(tx *gorm.DB, now time.Time) (*models.DebtInstance, error)) (result *models.DebtInstance, err error) {
	ctx, span := l.startSpan(ctx, op, attribute.Int("debt.instance_id", lockId), attribute.Int("debt.target_id", targetId))
	defer func() { endSpan(span, err) }()

	release := l.acquireDebtLock(ctx, op, lockId)
	defer release()

	key, _ := utils.GetIdempotencyKeyFromContext(ctx)
	replayed := false
	err = l.withRetry(ctx, op, func(attempt int) error {
		replayed = false
		return l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if key != "" {
				replay, err := BeginIdempotency(tx, op, key, targetId)
				if err != nil {
					return err
				}
				if replay {
					replayed = true
					instance, err := models.FindDebtInstanceWithEntries(ctx, tx, lockId)
					if err != nil {
						return err
					}
					result = instance
					return nil
				}
			}
			instance, err := apply(tx, l.now())
			if err != nil {
				return err
			}
			if key != "" {
				if err := MarkIdempotencySucceeded(tx, op, key); err != nil {
					return err
				}
			}
			result = instance
			return nil
		})
	})
	if err != nil {
		if key != "" && !errorsIsIdempotency(err) {
			if markErr := MarkIdempotencyFailed(l.DB.WithContext(ctx), op, key, targetId, err); markErr != nil {
				l.logFailure(ctx, op, key, markErr)
			}
		}
		l.logFailure(ctx, op, map[string]int{"instance_id": lockId, "target_id": targetId}, err)
		return nil, err
	}
	span.SetAttributes(attribute.Bool("idempotency.replayed", replayed))
	if !replayed {
		l.afterCommit(op)
	}
	return result, nil
}
