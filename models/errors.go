package models

import (
	"errors"
	"fmt"

	"github.com/mmdatafocus/fiado_backend/utils"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidPaymentAmount   = errors.New("invalid payment amount")
	ErrAlreadySettled         = errors.New("debt already settled")
	ErrNotFound               = errors.New("not found")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrReferenced             = errors.New("resource is referenced")
)

// DomainError is implemented by every business rule failure the ledger returns.
type DomainError interface {
	error
	Kind() string
	Context() map[string]any
}

type InsufficientStockError struct {
	ProductId   int
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): requested %d, available %d",
		e.ProductId, e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Kind() string { return "InsufficientStock" }

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

func (e *InsufficientStockError) Context() map[string]any {
	return map[string]any{
		"product_id":   e.ProductId,
		"product_name": e.ProductName,
		"requested":    e.Requested,
		"available":    e.Available,
	}
}

// InvalidPaymentAmountError is returned when an amount is not positive, has more than two decimals
// or exceeds what is owed. Outstanding is the instance balance, or the line remainder for a line abono.
type InvalidPaymentAmountError struct {
	Amount      decimal.Decimal
	Outstanding decimal.Decimal
}

func (e *InvalidPaymentAmountError) Error() string {
	if !e.Amount.IsPositive() {
		return fmt.Sprintf("payment amount must be positive, got %s", e.Amount.StringFixed(2))
	}
	if !utils.HasMoneyScale(e.Amount) {
		return fmt.Sprintf("payment amount %s has more than %d decimal places", e.Amount.String(), utils.MoneyPlaces)
	}
	return fmt.Sprintf("payment amount %s exceeds outstanding %s", e.Amount.StringFixed(2), e.Outstanding.StringFixed(2))
}

func (e *InvalidPaymentAmountError) Kind() string { return "InvalidPaymentAmount" }

func (e *InvalidPaymentAmountError) Is(target error) bool { return target == ErrInvalidPaymentAmount }

func (e *InvalidPaymentAmountError) Context() map[string]any {
	return map[string]any{
		"amount":      e.Amount.String(),
		"outstanding": e.Outstanding.StringFixed(2),
	}
}

type AlreadySettledError struct {
	InstanceId int
	Status     DebtStatus
}

func (e *AlreadySettledError) Error() string {
	return fmt.Sprintf("debt instance %d is already %s", e.InstanceId, e.Status)
}

func (e *AlreadySettledError) Kind() string { return "AlreadySettled" }

func (e *AlreadySettledError) Is(target error) bool { return target == ErrAlreadySettled }

func (e *AlreadySettledError) Context() map[string]any {
	return map[string]any{"instance_id": e.InstanceId, "status": e.Status}
}

type NotFoundError struct {
	Resource string
	Id       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.Id)
}

func (e *NotFoundError) Kind() string { return "NotFound" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) Context() map[string]any {
	return map[string]any{"resource": e.Resource, "id": e.Id}
}

// ConcurrentModificationError means the instance version moved between read and write.
type ConcurrentModificationError struct {
	InstanceId int
	Version    int
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("debt instance %d was modified concurrently (expected version %d)", e.InstanceId, e.Version)
}

func (e *ConcurrentModificationError) Kind() string { return "ConcurrentModification" }

func (e *ConcurrentModificationError) Is(target error) bool { return target == ErrConcurrentModification }

func (e *ConcurrentModificationError) Context() map[string]any {
	return map[string]any{"instance_id": e.InstanceId, "version": e.Version}
}

// ReferencedError blocks deleting a customer or product that ledger rows still point to.
type ReferencedError struct {
	Resource     string
	Id           int
	ReferencedBy string
	Count        int64
}

func (e *ReferencedError) Error() string {
	return fmt.Sprintf("%s %d is referenced by %d %s", e.Resource, e.Id, e.Count, e.ReferencedBy)
}

func (e *ReferencedError) Kind() string { return "Referenced" }

func (e *ReferencedError) Is(target error) bool { return target == ErrReferenced }

func (e *ReferencedError) Context() map[string]any {
	return map[string]any{"resource": e.Resource, "id": e.Id, "referenced_by": e.ReferencedBy, "count": e.Count}
}
