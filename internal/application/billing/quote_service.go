package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/studioops/backend/internal/domain/billing"
	"github.com/studioops/backend/internal/domain/customer"
	"github.com/studioops/backend/internal/domain/shared"
	"github.com/studioops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// QuoteService handles the quote lifecycle: public submission, customer
// acceptance and the admin review operations.
type QuoteService struct {
	quoteRepo    billing.QuoteRepository
	customerRepo customer.Repository
	notifier     billing.Notifier
	logger       *zap.Logger
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(
	quoteRepo billing.QuoteRepository,
	customerRepo customer.Repository,
	notifier billing.Notifier,
	logger *zap.Logger,
) *QuoteService {
	return &QuoteService{
		quoteRepo:    quoteRepo,
		customerRepo: customerRepo,
		notifier:     notifier,
		logger:       logger,
	}
}

// CreateQuote handles a public quote-form submission: the customer is
// looked up or registered by email, the request is priced and the quote
// stored in pending status.
func (s *QuoteService) CreateQuote(ctx context.Context, req CreateQuoteRequest) (*QuoteResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "create_quote")
	defer span.End()

	var pkg *billing.ServicePackage
	if req.PackageName != "" {
		found, ok := billing.FindPackage(req.PackageName)
		if !ok {
			err := shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown service package: %s", req.PackageName))
			telemetry.RecordError(span, err)
			return nil, err
		}
		pkg = found
	}

	rush := billing.RushTier(req.RushTier)
	if req.RushTier == "" {
		rush = billing.RushTierStandard
	}

	cust, err := s.findOrRegisterCustomer(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	estimate := billing.ComputeQuote(billing.QuoteInput{
		Description: req.Description,
		Package:     pkg,
		RushTier:    rush,
	})

	quote, err := billing.NewQuote(cust.ID, req.Description, pkg, rush, estimate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.quoteRepo.Save(ctx, quote); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrQuoteID, quote.ID.String(),
		telemetry.SpanAttrQuoteCode, quote.QuoteCode,
		telemetry.SpanAttrCustomerID, cust.ID.String(),
		telemetry.SpanAttrAmount, quote.EstimatedCost.String(),
	)

	s.notify(ctx, cust.ID, billing.EventQuoteReceived, map[string]any{
		"quote_id":           quote.ID.String(),
		"quote_code":         quote.QuoteCode,
		"estimated_cost":     quote.EstimatedCost.String(),
		"estimated_timeline": quote.EstimatedTimeline,
	})

	response := ToQuoteResponse(quote)
	return &response, nil
}

// findOrRegisterCustomer resolves the submitting customer by email,
// registering a new one on first contact and refreshing contact details
// on repeat submissions.
func (s *QuoteService) findOrRegisterCustomer(ctx context.Context, req CreateQuoteRequest) (*customer.Customer, error) {
	existing, err := s.customerRepo.FindByEmail(ctx, req.Email)
	if err == nil {
		existing.UpdateContact(req.Name, req.Company)
		if err := s.customerRepo.Save(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}

	cust, err := customer.NewCustomer(req.Name, req.Email, req.Company)
	if err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, cust); err != nil {
		return nil, err
	}
	return cust, nil
}

// GetQuoteForCustomer retrieves a quote owned by the given customer
func (s *QuoteService) GetQuoteForCustomer(ctx context.Context, customerID, quoteID uuid.UUID) (*QuoteResponse, error) {
	quote, err := s.quoteRepo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.CustomerID != customerID {
		// Hide the existence of other customers' quotes
		return nil, shared.ErrNotFound
	}

	response := ToQuoteResponse(quote)
	return &response, nil
}

// ListQuotesForCustomer lists a customer's quotes, newest first
func (s *QuoteService) ListQuotesForCustomer(ctx context.Context, customerID uuid.UUID) ([]QuoteResponse, error) {
	quotes, err := s.quoteRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return toQuoteResponses(quotes), nil
}

// ListAllQuotes lists every quote, newest first (admin surface)
func (s *QuoteService) ListAllQuotes(ctx context.Context) ([]QuoteResponse, error) {
	quotes, err := s.quoteRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return toQuoteResponses(quotes), nil
}

// AcceptQuote confirms a quoted quote on behalf of its owner
func (s *QuoteService) AcceptQuote(ctx context.Context, customerID, quoteID uuid.UUID) (*QuoteResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "accept_quote")
	defer span.End()

	quote, err := s.quoteRepo.FindByID(ctx, quoteID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if quote.CustomerID != customerID {
		return nil, shared.ErrNotFound
	}

	if err := quote.Accept(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.quoteRepo.Save(ctx, quote); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrQuoteID, quote.ID.String(),
		telemetry.SpanAttrQuoteStatus, quote.Status.String(),
	)

	s.notify(ctx, customerID, billing.EventQuoteAccepted, map[string]any{
		"quote_id":   quote.ID.String(),
		"quote_code": quote.QuoteCode,
	})

	response := ToQuoteResponse(quote)
	return &response, nil
}

// TransitionQuote applies an admin status update and/or final-quote
// override. Regular transitions are forward-only; Override bypasses the
// ordering for explicit corrections.
func (s *QuoteService) TransitionQuote(ctx context.Context, quoteID uuid.UUID, req TransitionQuoteRequest) (*QuoteResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "transition_quote")
	defer span.End()

	if req.Status == "" && req.FinalCost == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "A target status or a final cost is required")
	}

	quote, err := s.quoteRepo.FindByID(ctx, quoteID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if req.FinalCost != nil {
		if err := quote.ApplyFinalQuote(*req.FinalCost, req.FinalTimeline); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if req.Status != "" {
		target := billing.QuoteStatus(req.Status)
		if req.Override {
			err = quote.ForceStatus(target)
		} else {
			err = quote.TransitionTo(target)
		}
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if err := s.quoteRepo.Save(ctx, quote); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrQuoteID, quote.ID.String(),
		telemetry.SpanAttrQuoteStatus, quote.Status.String(),
	)

	response := ToQuoteResponse(quote)
	return &response, nil
}

// notify delivers a billing event best-effort. Failures are logged and
// never surfaced to the caller.
func (s *QuoteService) notify(ctx context.Context, customerID uuid.UUID, kind billing.EventKind, payload map[string]any) {
	if err := s.notifier.Notify(ctx, customerID, kind, payload); err != nil {
		s.logger.Warn("Failed to deliver billing event",
			zap.String("kind", string(kind)),
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
	}
}

func toQuoteResponses(quotes []billing.Quote) []QuoteResponse {
	responses := make([]QuoteResponse, len(quotes))
	for i := range quotes {
		responses[i] = ToQuoteResponse(&quotes[i])
	}
	return responses
}
