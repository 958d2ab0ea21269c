package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QuoteRepository defines the persistence interface for quotes
type QuoteRepository interface {
	// FindByID finds a quote by its surrogate key
	FindByID(ctx context.Context, id uuid.UUID) (*Quote, error)

	// FindByRef finds a quote by a loosely-specified reference: the
	// surrogate key compared as text, or the human-readable quote code
	FindByRef(ctx context.Context, ref string) (*Quote, error)

	// FindByCustomer finds a customer's quotes, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Quote, error)

	// FindInvoiceEligibleByCustomer finds a customer's quotes in a
	// status that makes them eligible for an invoice, oldest first
	FindInvoiceEligibleByCustomer(ctx context.Context, customerID uuid.UUID) ([]Quote, error)

	// FindAll lists all quotes, newest first (admin surface)
	FindAll(ctx context.Context) ([]Quote, error)

	// Save creates or updates a quote
	Save(ctx context.Context, q *Quote) error
}

// InvoiceRepository defines the persistence interface for invoices.
// The two payment transitions are compare-and-swap operations: each is a
// single conditional UPDATE keyed by the invoice id compared as text,
// and reports whether the swap was applied.
type InvoiceRepository interface {
	// FindByID finds an invoice by its surrogate key
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByCustomer finds a customer's invoices, oldest first. The
	// deterministic ordering keeps the reconciler's ambiguous-reference
	// fallback stable across retries.
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Invoice, error)

	// FindAll lists all invoices, newest first (admin ledger surface)
	FindAll(ctx context.Context) ([]Invoice, error)

	// ExistsForQuote reports whether any invoice references the quote
	ExistsForQuote(ctx context.Context, quoteID uuid.UUID) (bool, error)

	// Create persists a new invoice
	Create(ctx context.Context, inv *Invoice) error

	// MarkDepositPaid atomically sets deposit_paid where the deposit is
	// unpaid and the invoice is not fully paid. Returns false when the
	// swap did not apply (already deposit-paid or already paid).
	MarkDepositPaid(ctx context.Context, ref string) (bool, error)

	// MarkFullyPaid atomically sets status=paid and paid_date where the
	// deposit is paid and the invoice is not yet fully paid. Returns
	// false when the swap did not apply.
	MarkFullyPaid(ctx context.Context, ref string, paidAt time.Time) (bool, error)

	// SetDepositPaid force-sets the deposit flag (admin override). The
	// flag cannot be cleared on a fully paid invoice.
	SetDepositPaid(ctx context.Context, ref string, paid bool) (bool, error)
}

// PaymentLedgerRepository defines the persistence interface for the
// append-only payment ledger
type PaymentLedgerRepository interface {
	// Append inserts a ledger entry. Entries are never updated or deleted.
	Append(ctx context.Context, entry *PaymentLedgerEntry) error

	// FindByInvoice lists a single invoice's ledger entries, oldest first
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]PaymentLedgerEntry, error)
}
