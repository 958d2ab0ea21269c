package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/studioops/backend/internal/domain/shared"
)

// PaymentType identifies which portion of an invoice a payment covers
type PaymentType string

const (
	PaymentTypeDeposit   PaymentType = "deposit"
	PaymentTypeRemaining PaymentType = "remaining"
)

// IsValid checks if the payment type is valid
func (t PaymentType) IsValid() bool {
	return t == PaymentTypeDeposit || t == PaymentTypeRemaining
}

// PaymentLedgerEntry is an immutable audit record of a payment event.
// Entries are append-only: they are never mutated or deleted, and they
// do not drive invoice status (the reconciler mutates status directly;
// the ledger is a side effect).
type PaymentLedgerEntry struct {
	shared.BaseEntity
	InvoiceID  uuid.UUID
	CustomerID uuid.UUID
	Amount     decimal.Decimal
	Type       PaymentType
}

// NewPaymentLedgerEntry creates a ledger entry for a payment event
func NewPaymentLedgerEntry(invoiceID, customerID uuid.UUID, amount decimal.Decimal, paymentType PaymentType) (*PaymentLedgerEntry, error) {
	if invoiceID == uuid.Nil || customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice and customer IDs are required")
	}
	if !paymentType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid payment type")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment amount cannot be negative")
	}

	return &PaymentLedgerEntry{
		BaseEntity: shared.NewBaseEntity(),
		InvoiceID:  invoiceID,
		CustomerID: customerID,
		Amount:     amount,
		Type:       paymentType,
	}, nil
}
