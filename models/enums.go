package models

import (
	"errors"
	"strings"
)

type DebtKind string

const (
	DebtKindDirectCredit DebtKind = "DirectCredit"
	DebtKindCreditSale   DebtKind = "CreditSale"
)

func (k DebtKind) IsValid() bool {
	return k == DebtKindDirectCredit || k == DebtKindCreditSale
}

type DebtStatus string

const (
	DebtStatusOpen        DebtStatus = "Open"
	DebtStatusPartialPaid DebtStatus = "PartialPaid"
	DebtStatusPaid        DebtStatus = "Paid"
	DebtStatusCancelled   DebtStatus = "Cancelled"
)

// IsSettled is true for the two terminal statuses.
func (s DebtStatus) IsSettled() bool {
	return s == DebtStatusPaid || s == DebtStatusCancelled
}

// OutstandingDebtStatuses are the statuses that count toward a customer's balance.
var OutstandingDebtStatuses = []DebtStatus{DebtStatusOpen, DebtStatusPartialPaid}

type EntryStatus string

const (
	EntryStatusPending       EntryStatus = "pending"
	EntryStatusPartiallyPaid EntryStatus = "partially_paid"
	EntryStatusPaid          EntryStatus = "paid"
	EntryStatusCancelled     EntryStatus = "cancelled"
)

// OpenEntryStatuses still carry an unpaid remainder.
var OpenEntryStatuses = []EntryStatus{EntryStatusPending, EntryStatusPartiallyPaid}

func (s EntryStatus) IsOpen() bool {
	return s == EntryStatusPending || s == EntryStatusPartiallyPaid
}

// CanTransitionTo reports whether next is reachable from s.
// paid->paid is allowed so a full payment can be replayed over already paid lines.
func (s EntryStatus) CanTransitionTo(next EntryStatus) bool {
	switch s {
	case EntryStatusPending:
		return next == EntryStatusPartiallyPaid || next == EntryStatusPaid || next == EntryStatusCancelled
	case EntryStatusPartiallyPaid:
		return next == EntryStatusPartiallyPaid || next == EntryStatusPaid || next == EntryStatusCancelled
	case EntryStatusPaid:
		return next == EntryStatusPaid
	}
	return false
}

func ParseEntryStatus(s string) (EntryStatus, error) {
	switch EntryStatus(strings.ToLower(strings.TrimSpace(s))) {
	case EntryStatusPending:
		return EntryStatusPending, nil
	case EntryStatusPartiallyPaid:
		return EntryStatusPartiallyPaid, nil
	case EntryStatusPaid:
		return EntryStatusPaid, nil
	case EntryStatusCancelled:
		return EntryStatusCancelled, nil
	}
	return "", errors.New("invalid entry status")
}

type MovementType string

const (
	MovementTypeAbono        MovementType = "Abono"
	MovementTypeLineAbono    MovementType = "LineAbono"
	MovementTypeFullPayment  MovementType = "FullPayment"
	MovementTypeCancellation MovementType = "Cancellation"
)

// IsPayment excludes cancellations, which move no money.
func (t MovementType) IsPayment() bool {
	return t == MovementTypeAbono || t == MovementTypeLineAbono || t == MovementTypeFullPayment
}
