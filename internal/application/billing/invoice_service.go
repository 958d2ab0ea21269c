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

// InvoiceService serves the billing read surfaces and the explicit
// admin invoice operations. Customer reads run the synthesizer first,
// so eligible quotes materialize as invoices on first view.
type InvoiceService struct {
	invoiceRepo  billing.InvoiceRepository
	ledgerRepo   billing.PaymentLedgerRepository
	customerRepo customer.Repository
	synthesizer  *InvoiceSynthesizer
	notifier     billing.Notifier
	logger       *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	ledgerRepo billing.PaymentLedgerRepository,
	customerRepo customer.Repository,
	synthesizer *InvoiceSynthesizer,
	notifier billing.Notifier,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		ledgerRepo:   ledgerRepo,
		customerRepo: customerRepo,
		synthesizer:  synthesizer,
		notifier:     notifier,
		logger:       logger,
	}
}

// ListCustomerInvoices ensures the customer's eligible quotes are
// invoiced, then returns the invoice views newest first.
func (s *InvoiceService) ListCustomerInvoices(ctx context.Context, customerID uuid.UUID) ([]InvoiceView, error) {
	if err := s.synthesizer.EnsureInvoicesForCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	invoices, err := s.invoiceRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	cust, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, err
		}
		cust = nil
	}

	// Store order is oldest first; the billing page shows newest first
	views := make([]InvoiceView, len(invoices))
	for i := range invoices {
		views[len(invoices)-1-i] = ProjectInvoice(&invoices[i], cust)
	}
	return views, nil
}

// ListAllInvoices returns every invoice view, newest first (admin ledger)
func (s *InvoiceService) ListAllInvoices(ctx context.Context) ([]InvoiceView, error) {
	invoices, err := s.invoiceRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	customerIDs := make([]uuid.UUID, 0, len(invoices))
	seen := make(map[uuid.UUID]bool, len(invoices))
	for i := range invoices {
		if !seen[invoices[i].CustomerID] {
			seen[invoices[i].CustomerID] = true
			customerIDs = append(customerIDs, invoices[i].CustomerID)
		}
	}
	customers, err := s.customerRepo.FindByIDs(ctx, customerIDs)
	if err != nil {
		return nil, err
	}

	views := make([]InvoiceView, len(invoices))
	for i := range invoices {
		views[i] = ProjectInvoice(&invoices[i], customers[invoices[i].CustomerID])
	}
	return views, nil
}

// GetInvoice returns a single invoice view
func (s *InvoiceService) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*InvoiceView, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	view := s.projectWithCustomer(ctx, inv)
	return &view, nil
}

// CreateInvoice explicitly creates an invoice (admin surface). When a
// quote is referenced the one-invoice-per-quote rule still applies.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create_invoice")
	defer span.End()

	if _, err := s.customerRepo.FindByID(ctx, req.CustomerID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if req.QuoteID != nil {
		exists, err := s.invoiceRepo.ExistsForQuote(ctx, *req.QuoteID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "An invoice already exists for this quote")
		}
	}

	dueDate := time.Now().AddDate(0, 0, invoiceDueInDays)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}

	items := make(billing.InvoiceItems, len(req.Items))
	for i, item := range req.Items {
		items[i] = billing.InvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
	}

	inv, err := billing.NewInvoice(req.CustomerID, req.QuoteID, req.Amount, items, dueDate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, inv.ID.String(),
		telemetry.SpanAttrCustomerID, inv.CustomerID.String(),
		telemetry.SpanAttrAmount, inv.Amount.String(),
	)

	if err := s.notifier.Notify(ctx, inv.CustomerID, billing.EventInvoiceIssued, map[string]any{
		"invoice_id": inv.ID.String(),
		"amount":     inv.Amount.String(),
		"deposit":    inv.DepositAmount.String(),
	}); err != nil {
		s.logger.Warn("Failed to deliver billing event",
			zap.String("kind", string(billing.EventInvoiceIssued)),
			zap.Error(err))
	}

	view := s.projectWithCustomer(ctx, inv)
	return &view, nil
}

// UpdateInvoice applies an admin payment-status mutation through the
// same conditional updates the reconciler uses. A swap that does not
// apply reports the current state instead of failing.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, invoiceID uuid.UUID, req UpdateInvoiceRequest) (*InvoiceMutationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update_invoice")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, invoiceID.String())

	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	ref := inv.ID.String()

	var (
		applied bool
		message string
	)
	switch req.Action {
	case InvoiceActionMarkDepositPaid:
		applied, err = s.invoiceRepo.MarkDepositPaid(ctx, ref)
		if err == nil && applied {
			s.appendLedgerEntry(ctx, inv, inv.DepositAmount, billing.PaymentTypeDeposit)
			message = "Deposit marked as paid"
		} else if err == nil {
			message = "Deposit was already paid or the invoice is settled"
		}

	case InvoiceActionMarkFullyPaid:
		applied, err = s.invoiceRepo.MarkFullyPaid(ctx, ref, time.Now())
		if err == nil && applied {
			s.appendLedgerEntry(ctx, inv, inv.RemainingAmount, billing.PaymentTypeRemaining)
			message = "Invoice marked as fully paid"
		} else if err == nil {
			if !inv.DepositPaid {
				return nil, shared.NewDomainError("INVALID_STATE", "The deposit must be paid before the invoice can be fully paid")
			}
			message = "Invoice was already fully paid"
		}

	case InvoiceActionUpdateDepositStatus:
		if req.DepositPaid == nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "deposit_paid is required for update_deposit_status")
		}
		// Admin correction of the flag alone; no ledger entry
		applied, err = s.invoiceRepo.SetDepositPaid(ctx, ref, *req.DepositPaid)
		if err == nil && applied {
			message = "Deposit status updated"
		} else if err == nil {
			message = "Deposit status cannot be changed on a fully paid invoice"
		}

	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown invoice action")
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	updated, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return &InvoiceMutationResult{
		Invoice: s.projectWithCustomer(ctx, updated),
		Applied: applied,
		Message: message,
	}, nil
}

// GetLedger lists an invoice's payment ledger entries, oldest first
func (s *InvoiceService) GetLedger(ctx context.Context, invoiceID uuid.UUID) ([]LedgerEntryResponse, error) {
	if _, err := s.invoiceRepo.FindByID(ctx, invoiceID); err != nil {
		return nil, err
	}

	entries, err := s.ledgerRepo.FindByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	responses := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToLedgerEntryResponse(&entries[i])
	}
	return responses, nil
}

func (s *InvoiceService) appendLedgerEntry(ctx context.Context, inv *billing.Invoice, amount decimal.Decimal, paymentType billing.PaymentType) {
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

func (s *InvoiceService) projectWithCustomer(ctx context.Context, inv *billing.Invoice) InvoiceView {
	cust, err := s.customerRepo.FindByID(ctx, inv.CustomerID)
	if err != nil {
		cust = nil
	}
	return ProjectInvoice(inv, cust)
}
