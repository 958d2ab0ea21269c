package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/studioops/backend/internal/domain/billing"
	"github.com/studioops/backend/internal/domain/customer"
	"github.com/studioops/backend/internal/domain/shared"
	"github.com/studioops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrInvoiceNotFound is returned when a payment reference resolves to
// none of the customer's invoices
var ErrInvoiceNotFound = shared.NewDomainError("INVOICE_NOT_FOUND", "No matching invoice found for this payment")

// How a payment reference was resolved to an invoice
const (
	matchedByInvoiceID   = "invoice_id"
	matchedByQuoteRef    = "quote_ref"
	matchedByOldestOwing = "oldest_owing"
)

// PaymentReconciler applies customer payments to invoices. References
// arriving from the billing page are loosely specified, so resolution
// walks a fallback chain; the actual state change is a compare-and-swap
// in the store, which makes repeated submissions harmless.
type PaymentReconciler struct {
	invoiceRepo  billing.InvoiceRepository
	quoteRepo    billing.QuoteRepository
	ledgerRepo   billing.PaymentLedgerRepository
	customerRepo customer.Repository
	notifier     billing.Notifier
	logger       *zap.Logger
}

// NewPaymentReconciler creates a new PaymentReconciler
func NewPaymentReconciler(
	invoiceRepo billing.InvoiceRepository,
	quoteRepo billing.QuoteRepository,
	ledgerRepo billing.PaymentLedgerRepository,
	customerRepo customer.Repository,
	notifier billing.Notifier,
	logger *zap.Logger,
) *PaymentReconciler {
	return &PaymentReconciler{
		invoiceRepo:  invoiceRepo,
		quoteRepo:    quoteRepo,
		ledgerRepo:   ledgerRepo,
		customerRepo: customerRepo,
		notifier:     notifier,
		logger:       logger,
	}
}

// PayNow records the customer's next payment on the referenced invoice:
// the deposit if it is still owing, otherwise the remainder. An invoice
// that is already fully paid reports success without changing anything.
func (s *PaymentReconciler) PayNow(ctx context.Context, customerID uuid.UUID, invoiceRef string) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "pay_now")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustomerID, customerID.String(),
		telemetry.SpanAttrInvoiceRef, invoiceRef,
	)

	inv, matchedBy, err := s.resolveInvoice(ctx, customerID, invoiceRef)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, inv.ID.String(),
		telemetry.SpanAttrMatchedBy, matchedBy,
	)
	if matchedBy != matchedByInvoiceID {
		s.logger.Info("Payment reference resolved through fallback",
			zap.String("invoice_ref", invoiceRef),
			zap.String("matched_by", matchedBy),
			zap.String("invoice_id", inv.ID.String()))
	}

	if inv.IsPaid() {
		result := s.settledResult(ctx, inv, "Invoice is already fully paid")
		return result, nil
	}

	paymentType, _ := inv.NextPaymentType()
	var (
		applied bool
		amount  decimal.Decimal
	)
	switch paymentType {
	case billing.PaymentTypeDeposit:
		amount = inv.DepositAmount
		applied, err = s.invoiceRepo.MarkDepositPaid(ctx, inv.ID.String())
	default:
		amount = inv.RemainingAmount
		applied, err = s.invoiceRepo.MarkFullyPaid(ctx, inv.ID.String(), time.Now())
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if !applied {
		// Lost the swap to a concurrent payment. The transition already
		// happened, so report the current state without a ledger entry.
		s.logger.Info("Payment swap lost to concurrent transition",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("payment_type", string(paymentType)))
		current, err := s.invoiceRepo.FindByID(ctx, inv.ID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		result := s.settledResult(ctx, current, "Payment was already recorded")
		return result, nil
	}

	s.appendLedgerEntry(ctx, inv, amount, paymentType)

	updated, err := s.invoiceRepo.FindByID(ctx, inv.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentType, string(paymentType),
		telemetry.SpanAttrAmount, amount.String(),
	)

	s.notifyPayment(ctx, updated, amount, paymentType)

	message := "Deposit payment recorded"
	if updated.IsPaid() {
		message = "Invoice fully paid"
	}
	return &PaymentResult{
		Invoice:     s.projectWithCustomer(ctx, updated),
		PaymentType: string(paymentType),
		AmountPaid:  amount,
		Message:     message,
	}, nil
}

// resolveInvoice walks the fallback chain: exact invoice id, then a
// quote reference (id as text or quote code), then the customer's
// oldest invoice with nothing paid yet.
func (s *PaymentReconciler) resolveInvoice(ctx context.Context, customerID uuid.UUID, ref string) (*billing.Invoice, string, error) {
	invoices, err := s.invoiceRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, "", err
	}

	for i := range invoices {
		if invoices[i].ID.String() == ref {
			return &invoices[i], matchedByInvoiceID, nil
		}
	}

	if quote, err := s.quoteRepo.FindByRef(ctx, ref); err == nil && quote.CustomerID == customerID {
		for i := range invoices {
			if invoices[i].QuoteID != nil && *invoices[i].QuoteID == quote.ID {
				return &invoices[i], matchedByQuoteRef, nil
			}
		}
	} else if err != nil && !shared.IsNotFound(err) {
		return nil, "", err
	}

	// Oldest first, so the fallback is deterministic across retries
	for i := range invoices {
		if !invoices[i].DepositPaid && !invoices[i].IsPaid() {
			return &invoices[i], matchedByOldestOwing, nil
		}
	}

	return nil, "", ErrInvoiceNotFound
}

// appendLedgerEntry records the applied payment in the audit ledger.
// The ledger is a side effect of an already-committed transition: a
// failed append leaves an audit gap but never unwinds the payment.
func (s *PaymentReconciler) appendLedgerEntry(ctx context.Context, inv *billing.Invoice, amount decimal.Decimal, paymentType billing.PaymentType) {
	entry, err := billing.NewPaymentLedgerEntry(inv.ID, inv.CustomerID, amount, paymentType)
	if err == nil {
		err = s.ledgerRepo.Append(ctx, entry)
	}
	if err != nil {
		s.logger.Error("Failed to append payment ledger entry",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("payment_type", string(paymentType)),
			zap.Error(err))
	}
}

func (s *PaymentReconciler) notifyPayment(ctx context.Context, inv *billing.Invoice, amount decimal.Decimal, paymentType billing.PaymentType) {
	if err := s.notifier.Notify(ctx, inv.CustomerID, billing.EventPaymentReceived, map[string]any{
		"invoice_id":   inv.ID.String(),
		"payment_type": string(paymentType),
		"amount":       amount.String(),
		"status":       inv.DisplayStatus(),
	}); err != nil {
		s.logger.Warn("Failed to deliver billing event",
			zap.String("kind", string(billing.EventPaymentReceived)),
			zap.Error(err))
	}
}

// settledResult builds the success no-op result for an invoice whose
// referenced payment is already in place
func (s *PaymentReconciler) settledResult(ctx context.Context, inv *billing.Invoice, message string) *PaymentResult {
	return &PaymentResult{
		Invoice:        s.projectWithCustomer(ctx, inv),
		AmountPaid:     decimal.Zero,
		AlreadySettled: true,
		Message:        message,
	}
}

// projectWithCustomer builds the invoice view, degrading to a view
// without contact details when the customer lookup fails
func (s *PaymentReconciler) projectWithCustomer(ctx context.Context, inv *billing.Invoice) InvoiceView {
	cust, err := s.customerRepo.FindByID(ctx, inv.CustomerID)
	if err != nil {
		s.logger.Warn("Failed to load customer for invoice view",
			zap.String("customer_id", inv.CustomerID.String()),
			zap.Error(err))
		cust = nil
	}
	return ProjectInvoice(inv, cust)
}
