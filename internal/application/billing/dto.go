package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/studioops/backend/internal/domain/billing"
)

// =============================================================================
// Quote DTOs
// =============================================================================

// CreateQuoteRequest represents a public quote-form submission
type CreateQuoteRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Email       string `json:"email" binding:"required,email,max=200"`
	Company     string `json:"company" binding:"max=200"`
	Description string `json:"description" binding:"max=10000"`
	PackageName string `json:"package_name" binding:"max=100"`
	RushTier    string `json:"rush_tier" binding:"omitempty,oneof=standard priority express"`
}

// TransitionQuoteRequest represents an admin quote-status update,
// optionally combined with a final-quote override
type TransitionQuoteRequest struct {
	Status        string           `json:"status" binding:"omitempty,oneof=pending under_review quoted accepted in_progress completed cancelled"`
	Override      bool             `json:"override"`
	FinalCost     *decimal.Decimal `json:"final_cost"`
	FinalTimeline string           `json:"final_timeline" binding:"max=50"`
}

// QuoteResponse represents a quote in API responses
type QuoteResponse struct {
	ID                uuid.UUID               `json:"id"`
	QuoteCode         string                  `json:"quote_code"`
	CustomerID        uuid.UUID               `json:"customer_id"`
	Description       string                  `json:"description"`
	Package           *billing.ServicePackage `json:"package,omitempty"`
	RushTier          string                  `json:"rush_tier"`
	EstimatedCost     decimal.Decimal         `json:"estimated_cost"`
	EstimatedTimeline string                  `json:"estimated_timeline"`
	Status            string                  `json:"status"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

// ToQuoteResponse converts a domain quote to its API representation
func ToQuoteResponse(q *billing.Quote) QuoteResponse {
	return QuoteResponse{
		ID:                q.ID,
		QuoteCode:         q.QuoteCode,
		CustomerID:        q.CustomerID,
		Description:       q.Description,
		Package:           q.Package,
		RushTier:          q.RushTier.String(),
		EstimatedCost:     q.EstimatedCost,
		EstimatedTimeline: q.EstimatedTimeline,
		Status:            q.Status.String(),
		CreatedAt:         q.CreatedAt,
		UpdatedAt:         q.UpdatedAt,
	}
}

// =============================================================================
// Invoice DTOs
// =============================================================================

// InvoiceItemRequest is a line item on an explicitly created invoice
type InvoiceItemRequest struct {
	Description string          `json:"description" binding:"required,max=500"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"decimalgt0"`
}

// CreateInvoiceRequest represents an explicit admin invoice creation
type CreateInvoiceRequest struct {
	CustomerID uuid.UUID            `json:"customer_id" binding:"required"`
	QuoteID    *uuid.UUID           `json:"quote_id"`
	Amount     decimal.Decimal      `json:"amount" binding:"decimalgt0"`
	DueDate    *time.Time           `json:"due_date"`
	Items      []InvoiceItemRequest `json:"items" binding:"omitempty,dive"`
}

// Invoice mutation actions accepted by the admin surface
const (
	InvoiceActionMarkDepositPaid     = "mark_deposit_paid"
	InvoiceActionMarkFullyPaid       = "mark_fully_paid"
	InvoiceActionUpdateDepositStatus = "update_deposit_status"
)

// UpdateInvoiceRequest represents an admin invoice mutation
type UpdateInvoiceRequest struct {
	Action      string `json:"action" binding:"required,oneof=mark_deposit_paid mark_fully_paid update_deposit_status"`
	DepositPaid *bool  `json:"deposit_paid"`
}

// PayNowRequest represents a customer payment submission
type PayNowRequest struct {
	InvoiceRef string `json:"invoice_ref" binding:"required,max=100"`
	Action     string `json:"action" binding:"required,oneof=pay_now"`
}

// PaymentResult is the outcome of a PayNow call. AlreadySettled marks
// the no-op outcomes (invoice already fully paid, or a lost race) that
// still report success to the caller.
type PaymentResult struct {
	Invoice        InvoiceView     `json:"invoice"`
	PaymentType    string          `json:"payment_type,omitempty"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	AlreadySettled bool            `json:"already_settled"`
	Message        string          `json:"message"`
}

// InvoiceMutationResult is the outcome of an admin invoice mutation
type InvoiceMutationResult struct {
	Invoice InvoiceView `json:"invoice"`
	Applied bool        `json:"applied"`
	Message string      `json:"message,omitempty"`
}

// LedgerEntryResponse represents a payment ledger entry in API responses
type LedgerEntryResponse struct {
	ID         uuid.UUID       `json:"id"`
	InvoiceID  uuid.UUID       `json:"invoice_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Type       string          `json:"type"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// ToLedgerEntryResponse converts a domain ledger entry to its API representation
func ToLedgerEntryResponse(e *billing.PaymentLedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:         e.ID,
		InvoiceID:  e.InvoiceID,
		CustomerID: e.CustomerID,
		Amount:     e.Amount,
		Type:       string(e.Type),
		RecordedAt: e.CreatedAt,
	}
}
