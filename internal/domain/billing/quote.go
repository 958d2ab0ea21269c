package billing

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/studioops/backend/internal/domain/shared"
)

// QuoteStatus represents the lifecycle status of a quote
type QuoteStatus string

const (
	QuoteStatusPending     QuoteStatus = "pending"      // Submitted by the customer, not yet reviewed
	QuoteStatusUnderReview QuoteStatus = "under_review" // Admin is reviewing the request
	QuoteStatusQuoted      QuoteStatus = "quoted"       // Priced and sent to the customer
	QuoteStatusAccepted    QuoteStatus = "accepted"     // Customer confirmed the quote
	QuoteStatusInProgress  QuoteStatus = "in_progress"  // Work has started
	QuoteStatusCompleted   QuoteStatus = "completed"    // Work delivered
	QuoteStatusCancelled   QuoteStatus = "cancelled"    // Abandoned before work started
)

// quoteStatusRank orders the linear part of the quote lifecycle.
// Cancelled sits outside the linear order.
var quoteStatusRank = map[QuoteStatus]int{
	QuoteStatusPending:     0,
	QuoteStatusUnderReview: 1,
	QuoteStatusQuoted:      2,
	QuoteStatusAccepted:    3,
	QuoteStatusInProgress:  4,
	QuoteStatusCompleted:   5,
}

// IsValid checks if the status is a valid QuoteStatus
func (s QuoteStatus) IsValid() bool {
	if s == QuoteStatusCancelled {
		return true
	}
	_, ok := quoteStatusRank[s]
	return ok
}

// String returns the string representation of QuoteStatus
func (s QuoteStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the quote is in a terminal state
func (s QuoteStatus) IsTerminal() bool {
	return s == QuoteStatusCompleted || s == QuoteStatusCancelled
}

// IsCancellable returns true if a quote in this status may still be cancelled.
// Once work is in progress the quote can no longer be cancelled.
func (s QuoteStatus) IsCancellable() bool {
	rank, ok := quoteStatusRank[s]
	return ok && rank < quoteStatusRank[QuoteStatusInProgress]
}

// InvoiceEligible returns true if an invoice may exist for a quote in this status
func (s QuoteStatus) InvoiceEligible() bool {
	switch s {
	case QuoteStatusQuoted, QuoteStatusAccepted, QuoteStatusInProgress, QuoteStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo checks whether a regular (non-override) transition to
// target is allowed. Regular transitions only ever move forward.
func (s QuoteStatus) CanTransitionTo(target QuoteStatus) bool {
	if !target.IsValid() || s.IsTerminal() {
		return false
	}
	if target == QuoteStatusCancelled {
		return s.IsCancellable()
	}
	return quoteStatusRank[target] > quoteStatusRank[s]
}

// RushTier represents the requested delivery speed for a quote
type RushTier string

const (
	RushTierStandard RushTier = "standard" // No surcharge, no timeline reduction
	RushTierPriority RushTier = "priority" // Fixed surcharge, 25% timeline reduction
	RushTierExpress  RushTier = "express"  // Larger surcharge, 50% timeline reduction
)

// IsValid checks if the rush tier is valid
func (t RushTier) IsValid() bool {
	return t == RushTierStandard || t == RushTierPriority || t == RushTierExpress
}

// String returns the string representation of RushTier
func (t RushTier) String() string {
	return string(t)
}

// ServicePackage describes a fixed-price service offering. A snapshot of
// the selected package is stored on the quote so later catalog changes
// do not reprice past submissions.
type ServicePackage struct {
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Features      []string        `json:"features"`
	DeliveryRange string          `json:"delivery_range"` // "min-max" in days, e.g. "7-14"
	Complexity    string          `json:"complexity"`     // basic, standard, advanced
}

// Value implements driver.Valuer for JSONB storage of the package snapshot
func (p *ServicePackage) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB storage of the package snapshot
func (p *ServicePackage) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ServicePackage", value)
	}

	return json.Unmarshal(bytes, p)
}

// Quote represents a priced proposal originating from a customer submission.
// It carries both a UUID surrogate key and a human-readable quote code.
type Quote struct {
	shared.BaseEntity
	QuoteCode         string
	CustomerID        uuid.UUID
	Description       string
	Package           *ServicePackage
	RushTier          RushTier
	EstimatedCost     decimal.Decimal
	EstimatedTimeline string
	Status            QuoteStatus
}

// NewQuote creates a new quote in pending status with a generated quote code
func NewQuote(customerID uuid.UUID, description string, pkg *ServicePackage, rush RushTier, estimate QuoteEstimate) (*Quote, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer ID is required")
	}
	if strings.TrimSpace(description) == "" && pkg == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "A project description or a selected package is required")
	}
	if !rush.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid rush tier: %s", rush))
	}
	if estimate.Cost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Estimated cost cannot be negative")
	}

	base := shared.NewBaseEntity()
	return &Quote{
		BaseEntity:        base,
		QuoteCode:         NewQuoteCode(base.ID, base.CreatedAt),
		CustomerID:        customerID,
		Description:       strings.TrimSpace(description),
		Package:           pkg,
		RushTier:          rush,
		EstimatedCost:     estimate.Cost,
		EstimatedTimeline: estimate.Timeline,
		Status:            QuoteStatusPending,
	}, nil
}

// NewQuoteCode derives the human-readable quote code (QT-yyyymmdd-xxxxxx)
// from the surrogate key and creation time.
func NewQuoteCode(id uuid.UUID, createdAt time.Time) string {
	return fmt.Sprintf("QT-%s-%s", createdAt.Format("20060102"), strings.ToUpper(id.String()[:6]))
}

// TransitionTo moves the quote to the target status. Regular transitions
// are forward-only; use ForceStatus for an explicit admin override.
func (q *Quote) TransitionTo(target QuoteStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid quote status: %s", target))
	}
	if !q.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot transition quote from %s to %s", q.Status, target))
	}
	q.Status = target
	q.Touch()
	return nil
}

// ForceStatus sets the status directly, bypassing the forward-only rule.
// Admin-only; every override still bumps UpdatedAt so the audit trail
// reflects when the irregular move happened.
func (q *Quote) ForceStatus(target QuoteStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid quote status: %s", target))
	}
	q.Status = target
	q.Touch()
	return nil
}

// Accept confirms the quote on behalf of the customer. Only a quote that
// has been priced and sent (quoted) can be accepted.
func (q *Quote) Accept() error {
	if q.Status != QuoteStatusQuoted {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Quote in status %s cannot be accepted", q.Status))
	}
	q.Status = QuoteStatusAccepted
	q.Touch()
	return nil
}

// Cancel abandons the quote before work starts
func (q *Quote) Cancel() error {
	return q.TransitionTo(QuoteStatusCancelled)
}

// ApplyFinalQuote overrides the estimated cost and timeline. This is the
// only mutation of EstimatedCost allowed after the quote leaves pending.
func (q *Quote) ApplyFinalQuote(cost decimal.Decimal, timeline string) error {
	if q.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot issue a final quote in status %s", q.Status))
	}
	if cost.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Final quote cost cannot be negative")
	}
	q.EstimatedCost = cost
	if strings.TrimSpace(timeline) != "" {
		q.EstimatedTimeline = timeline
	}
	q.Touch()
	return nil
}

// MatchesRef reports whether ref identifies this quote, comparing the
// surrogate key as text and the human-readable quote code.
func (q *Quote) MatchesRef(ref string) bool {
	return ref != "" && (q.ID.String() == ref || q.QuoteCode == ref)
}
