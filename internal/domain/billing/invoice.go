package billing

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/studioops/backend/internal/domain/shared"
)

// InvoiceStatus represents the payment status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPaid
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// Display status labels derived from status + deposit flag
const (
	DisplayStatusFullyPaid      = "FULLY PAID"
	DisplayStatusDepositPaid    = "DEPOSIT PAID"
	DisplayStatusPaymentPending = "PAYMENT PENDING"
)

// depositRate is the canonical deposit share of an invoice total
var depositRate = decimal.NewFromFloat(0.20)

// SplitDeposit computes the canonical deposit/remainder split:
// deposit = round(amount * 0.20), remainder = amount - deposit.
func SplitDeposit(amount decimal.Decimal) (deposit, remaining decimal.Decimal) {
	deposit = amount.Mul(depositRate).Round(0)
	remaining = amount.Sub(deposit)
	return deposit, remaining
}

// InvoiceItem is a single line item on an invoice
type InvoiceItem struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// InvoiceItems is an ordered list of line items stored as JSONB
type InvoiceItems []InvoiceItem

// Value implements driver.Valuer for JSONB storage
func (items InvoiceItems) Value() (driver.Value, error) {
	if items == nil {
		return "[]", nil
	}
	return json.Marshal(items)
}

// Scan implements sql.Scanner for JSONB storage
func (items *InvoiceItems) Scan(value interface{}) error {
	if value == nil {
		*items = InvoiceItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into InvoiceItems", value)
	}

	return json.Unmarshal(bytes, items)
}

// Invoice represents a billable record derived from an approved quote,
// split into a 20% deposit and an 80% remainder. Invoices are never
// deleted; they only progress pending -> paid, with deposit-paid as an
// orthogonal sub-state reached en route.
type Invoice struct {
	shared.BaseEntity
	CustomerID      uuid.UUID
	QuoteID         *uuid.UUID // Weak back-reference, not an ownership relation
	Amount          decimal.Decimal
	DepositAmount   decimal.Decimal
	RemainingAmount decimal.Decimal
	DepositPaid     bool
	Status          InvoiceStatus
	DueDate         time.Time
	PaidDate        *time.Time
	Items           InvoiceItems
}

// NewInvoice creates a pending invoice with the canonical deposit split
func NewInvoice(customerID uuid.UUID, quoteID *uuid.UUID, amount decimal.Decimal, items InvoiceItems, dueDate time.Time) (*Invoice, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer ID is required")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice amount cannot be negative")
	}

	amount = amount.Round(0)
	deposit, remaining := SplitDeposit(amount)
	if items == nil {
		items = InvoiceItems{}
	}

	return &Invoice{
		BaseEntity:      shared.NewBaseEntity(),
		CustomerID:      customerID,
		QuoteID:         quoteID,
		Amount:          amount,
		DepositAmount:   deposit,
		RemainingAmount: remaining,
		DepositPaid:     false,
		Status:          InvoiceStatusPending,
		DueDate:         dueDate,
		Items:           items,
	}, nil
}

// IsPaid returns true once the invoice is fully paid
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// AmountDue returns the next amount owed: zero once fully paid, the
// remainder once the deposit is in, otherwise the deposit.
func (i *Invoice) AmountDue() decimal.Decimal {
	switch {
	case i.IsPaid():
		return decimal.Zero
	case i.DepositPaid:
		return i.RemainingAmount
	default:
		return i.DepositAmount
	}
}

// DisplayStatus returns the customer-facing status label. Any raw status
// outside the known set is surfaced verbatim.
func (i *Invoice) DisplayStatus() string {
	switch {
	case i.Status == InvoiceStatusPaid:
		return DisplayStatusFullyPaid
	case i.Status == InvoiceStatusPending && i.DepositPaid:
		return DisplayStatusDepositPaid
	case i.Status == InvoiceStatusPending:
		return DisplayStatusPaymentPending
	default:
		return string(i.Status)
	}
}

// NextPaymentType reports which payment the next PayNow call applies,
// or false when the invoice is already fully paid.
func (i *Invoice) NextPaymentType() (PaymentType, bool) {
	switch {
	case i.IsPaid():
		return "", false
	case !i.DepositPaid:
		return PaymentTypeDeposit, true
	default:
		return PaymentTypeRemaining, true
	}
}

// Validate checks the invoice's numeric and state invariants
func (i *Invoice) Validate() error {
	if !i.DepositAmount.Add(i.RemainingAmount).Equal(i.Amount) {
		return shared.NewDomainError("INVALID_STATE", "Deposit and remainder do not sum to the invoice amount")
	}
	if i.Status == InvoiceStatusPaid && (!i.DepositPaid || i.PaidDate == nil) {
		return shared.NewDomainError("INVALID_STATE", "A paid invoice must have its deposit paid and a paid date")
	}
	return nil
}
