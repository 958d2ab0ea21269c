package billing

import (
	"context"

	"github.com/google/uuid"
)

// EventKind identifies a customer-facing billing event
type EventKind string

const (
	EventQuoteReceived   EventKind = "quote_received"
	EventQuoteAccepted   EventKind = "quote_accepted"
	EventInvoiceIssued   EventKind = "invoice_issued"
	EventPaymentReceived EventKind = "payment_received"
)

// Notifier delivers billing events to the out-of-scope notification
// pipeline (email, portal messages). Delivery is best-effort: callers
// log failures and never let them fail the triggering operation.
type Notifier interface {
	Notify(ctx context.Context, customerID uuid.UUID, kind EventKind, payload map[string]any) error
}
