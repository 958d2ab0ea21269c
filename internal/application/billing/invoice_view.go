package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/studioops/backend/internal/domain/billing"
	"github.com/studioops/backend/internal/domain/customer"
)

// InvoiceView is the read model served to both the customer billing
// page and the admin ledger. Both surfaces project through the same
// function, so the two can never disagree about amounts or status.
type InvoiceView struct {
	InvoiceID       uuid.UUID            `json:"invoice_id"`
	CustomerID      uuid.UUID            `json:"customer_id"`
	CustomerName    string               `json:"customer_name,omitempty"`
	CustomerEmail   string               `json:"customer_email,omitempty"`
	QuoteID         *uuid.UUID           `json:"quote_id,omitempty"`
	Amount          decimal.Decimal      `json:"amount"`
	DepositAmount   decimal.Decimal      `json:"deposit_amount"`
	RemainingAmount decimal.Decimal      `json:"remaining_amount"`
	DepositPaid     bool                 `json:"deposit_paid"`
	Status          string               `json:"status"`
	DisplayStatus   string               `json:"display_status"`
	AmountDue       decimal.Decimal      `json:"amount_due"`
	DueDate         time.Time            `json:"due_date"`
	PaidDate        *time.Time           `json:"paid_date,omitempty"`
	Items           billing.InvoiceItems `json:"items"`
	CreatedAt       time.Time            `json:"created_at"`
}

// ProjectInvoice builds the invoice read model. Pure: it reads the
// invoice and optional customer and touches nothing else.
func ProjectInvoice(inv *billing.Invoice, cust *customer.Customer) InvoiceView {
	view := InvoiceView{
		InvoiceID:       inv.ID,
		CustomerID:      inv.CustomerID,
		QuoteID:         inv.QuoteID,
		Amount:          inv.Amount,
		DepositAmount:   inv.DepositAmount,
		RemainingAmount: inv.RemainingAmount,
		DepositPaid:     inv.DepositPaid,
		Status:          inv.Status.String(),
		DisplayStatus:   inv.DisplayStatus(),
		AmountDue:       inv.AmountDue(),
		DueDate:         inv.DueDate,
		PaidDate:        inv.PaidDate,
		Items:           inv.Items,
		CreatedAt:       inv.CreatedAt,
	}
	if cust != nil {
		view.CustomerName = cust.Name
		view.CustomerEmail = cust.Email
	}
	return view
}
