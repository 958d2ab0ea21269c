package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/studioops/backend/internal/domain/billing"
	"github.com/studioops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// invoiceDueInDays is the payment window granted on synthesized invoices
const invoiceDueInDays = 30

// InvoiceSynthesizer lazily creates invoices for quotes that have
// reached an invoice-eligible status. Invoices materialize when a
// customer's billing data is first read, not when the quote
// transitions, so the quote workflow never blocks on billing.
type InvoiceSynthesizer struct {
	quoteRepo   billing.QuoteRepository
	invoiceRepo billing.InvoiceRepository
	notifier    billing.Notifier
	logger      *zap.Logger
}

// NewInvoiceSynthesizer creates a new InvoiceSynthesizer
func NewInvoiceSynthesizer(
	quoteRepo billing.QuoteRepository,
	invoiceRepo billing.InvoiceRepository,
	notifier billing.Notifier,
	logger *zap.Logger,
) *InvoiceSynthesizer {
	return &InvoiceSynthesizer{
		quoteRepo:   quoteRepo,
		invoiceRepo: invoiceRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

// EnsureInvoicesForCustomer creates a pending invoice for each of the
// customer's invoice-eligible quotes that lacks one. Idempotent: the
// pre-check plus the partial unique index on invoices.quote_id
// guarantee at most one invoice per quote even under concurrent calls.
func (s *InvoiceSynthesizer) EnsureInvoicesForCustomer(ctx context.Context, customerID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "ensure_invoices")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerID, customerID.String())

	quotes, err := s.quoteRepo.FindInvoiceEligibleByCustomer(ctx, customerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	for i := range quotes {
		if err := s.ensureInvoiceForQuote(ctx, &quotes[i]); err != nil {
			telemetry.RecordError(span, err)
			return err
		}
	}
	return nil
}

func (s *InvoiceSynthesizer) ensureInvoiceForQuote(ctx context.Context, quote *billing.Quote) error {
	exists, err := s.invoiceRepo.ExistsForQuote(ctx, quote.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	quoteID := quote.ID
	inv, err := billing.NewInvoice(
		quote.CustomerID,
		&quoteID,
		quote.EstimatedCost,
		billing.InvoiceItems{invoiceItemForQuote(quote)},
		time.Now().AddDate(0, 0, invoiceDueInDays),
	)
	if err != nil {
		return err
	}

	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		// A concurrent synthesis may have won the unique-index race;
		// that leaves exactly the invoice we wanted.
		if exists, checkErr := s.invoiceRepo.ExistsForQuote(ctx, quote.ID); checkErr == nil && exists {
			s.logger.Debug("Invoice already synthesized concurrently",
				zap.String("quote_id", quote.ID.String()))
			return nil
		}
		return err
	}

	s.logger.Info("Invoice synthesized",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("quote_id", quote.ID.String()),
		zap.String("quote_code", quote.QuoteCode),
		zap.String("amount", inv.Amount.String()))

	if err := s.notifier.Notify(ctx, quote.CustomerID, billing.EventInvoiceIssued, map[string]any{
		"invoice_id": inv.ID.String(),
		"quote_code": quote.QuoteCode,
		"amount":     inv.Amount.String(),
		"deposit":    inv.DepositAmount.String(),
	}); err != nil {
		s.logger.Warn("Failed to deliver billing event",
			zap.String("kind", string(billing.EventInvoiceIssued)),
			zap.Error(err))
	}
	return nil
}

// invoiceItemForQuote builds the single line item describing the quoted work
func invoiceItemForQuote(quote *billing.Quote) billing.InvoiceItem {
	description := quote.Description
	if quote.Package != nil {
		description = quote.Package.Name
	}
	if description == "" {
		description = fmt.Sprintf("Project work (%s)", quote.QuoteCode)
	}
	return billing.InvoiceItem{
		Description: description,
		Quantity:    1,
		UnitPrice:   quote.EstimatedCost,
		Total:       quote.EstimatedCost,
	}
}
