package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/studioops/backend/internal/domain/billing"
	"github.com/studioops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

func newTestQuoteService() (*QuoteService, *MockQuoteRepository, *MockCustomerRepository, *MockNotifier) {
	quoteRepo := new(MockQuoteRepository)
	customerRepo := new(MockCustomerRepository)
	notifier := new(MockNotifier)
	s := NewQuoteService(quoteRepo, customerRepo, notifier, zap.NewNop())
	return s, quoteRepo, customerRepo, notifier
}

func mustTestQuote(t *testing.T, customerID uuid.UUID) *billing.Quote {
	t.Helper()
	q, err := billing.NewQuote(customerID, "API integration work", nil, billing.RushTierStandard, billing.QuoteEstimate{
		Cost:     decimal.NewFromInt(800),
		Timeline: "12-17 days",
	})
	require.NoError(t, err)
	return q
}

func TestQuoteService_CreateQuote_NewCustomer(t *testing.T) {
	s, quoteRepo, customerRepo, notifier := newTestQuoteService()
	ctx := context.Background()

	customerRepo.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, shared.ErrNotFound)
	customerRepo.On("Save", mock.Anything, mock.AnythingOfType("*customer.Customer")).Return(nil)
	quoteRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Quote")).Return(nil)
	notifier.On("Notify", mock.Anything, mock.Anything, billing.EventQuoteReceived, mock.Anything).Return(nil)

	resp, err := s.CreateQuote(ctx, CreateQuoteRequest{
		Name:        "New Client",
		Email:       "new@example.com",
		Description: "A simple brochure site",
		RushTier:    "standard",
	})
	require.NoError(t, err)

	assert.Equal(t, "pending", resp.Status)
	assert.NotEmpty(t, resp.QuoteCode)
	assert.True(t, resp.EstimatedCost.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "7-12 days", resp.EstimatedTimeline)

	customerRepo.AssertExpectations(t)
	quoteRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestQuoteService_CreateQuote_ExistingCustomerByEmail(t *testing.T) {
	s, quoteRepo, customerRepo, notifier := newTestQuoteService()
	ctx := context.Background()

	existing := testCustomer(t)

	customerRepo.On("FindByEmail", mock.Anything, existing.Email).Return(existing, nil)
	customerRepo.On("Save", mock.Anything, existing).Return(nil)
	quoteRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Quote")).Return(nil)
	notifier.On("Notify", mock.Anything, existing.ID, billing.EventQuoteReceived, mock.Anything).Return(nil)

	resp, err := s.CreateQuote(ctx, CreateQuoteRequest{
		Name:        "Jamie Rivera",
		Email:       existing.Email,
		Company:     "Rivera Design Co",
		PackageName: "Business Website",
	})
	require.NoError(t, err)

	assert.Equal(t, existing.ID, resp.CustomerID)
	assert.True(t, resp.EstimatedCost.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "Rivera Design Co", existing.Company)
}

func TestQuoteService_CreateQuote_PackagePricing(t *testing.T) {
	s, quoteRepo, customerRepo, notifier := newTestQuoteService()
	ctx := context.Background()

	customerRepo.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
	customerRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	quoteRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	resp, err := s.CreateQuote(ctx, CreateQuoteRequest{
		Name:        "Client",
		Email:       "client@example.com",
		PackageName: "business website",
		RushTier:    "express",
	})
	require.NoError(t, err)

	assert.True(t, resp.EstimatedCost.Equal(decimal.NewFromInt(1099)))
	assert.Equal(t, "4-7 days", resp.EstimatedTimeline)
	require.NotNil(t, resp.Package)
	assert.Equal(t, "Business Website", resp.Package.Name)
}

func TestQuoteService_CreateQuote_UnknownPackage(t *testing.T) {
	s, _, _, _ := newTestQuoteService()

	_, err := s.CreateQuote(context.Background(), CreateQuoteRequest{
		Name:        "Client",
		Email:       "client@example.com",
		PackageName: "Enterprise Platinum",
	})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_INPUT", domainErr.Code)
}

func TestQuoteService_GetQuoteForCustomer_OwnershipEnforced(t *testing.T) {
	s, quoteRepo, _, _ := newTestQuoteService()
	ctx := context.Background()

	ownerID := uuid.New()
	quote := mustTestQuote(t, ownerID)
	quoteRepo.On("FindByID", mock.Anything, quote.ID).Return(quote, nil)

	t.Run("owner sees the quote", func(t *testing.T) {
		resp, err := s.GetQuoteForCustomer(ctx, ownerID, quote.ID)
		require.NoError(t, err)
		assert.Equal(t, quote.ID, resp.ID)
	})

	t.Run("other customers get not found", func(t *testing.T) {
		_, err := s.GetQuoteForCustomer(ctx, uuid.New(), quote.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestQuoteService_AcceptQuote(t *testing.T) {
	s, quoteRepo, _, notifier := newTestQuoteService()
	ctx := context.Background()

	ownerID := uuid.New()
	quote := mustTestQuote(t, ownerID)
	require.NoError(t, quote.TransitionTo(billing.QuoteStatusQuoted))

	quoteRepo.On("FindByID", mock.Anything, quote.ID).Return(quote, nil)
	quoteRepo.On("Save", mock.Anything, quote).Return(nil)
	notifier.On("Notify", mock.Anything, ownerID, billing.EventQuoteAccepted, mock.Anything).Return(nil)

	resp, err := s.AcceptQuote(ctx, ownerID, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, "accepted", resp.Status)
}

func TestQuoteService_AcceptQuote_WrongState(t *testing.T) {
	s, quoteRepo, _, _ := newTestQuoteService()
	ctx := context.Background()

	ownerID := uuid.New()
	quote := mustTestQuote(t, ownerID) // still pending
	quoteRepo.On("FindByID", mock.Anything, quote.ID).Return(quote, nil)

	_, err := s.AcceptQuote(ctx, ownerID, quote.ID)
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
}

func TestQuoteService_TransitionQuote(t *testing.T) {
	ctx := context.Background()

	t.Run("forward transition", func(t *testing.T) {
		s, quoteRepo, _, _ := newTestQuoteService()
		quote := mustTestQuote(t, uuid.New())
		quoteRepo.On("FindByID", mock.Anything, quote.ID).Return(quote, nil)
		quoteRepo.On("Save", mock.Anything, quote).Return(nil)

		resp, err := s.TransitionQuote(ctx, quote.ID, TransitionQuoteRequest{Status: "under_review"})
		require.NoError(t, err)
		assert.Equal(t, "under_review", resp.Status)
	})

	t.Run("backward transition requires override", func(t *testing.T) {
		s, quoteRepo, _, _ := newTestQuoteService()
		quote := mustTestQuote(t, uuid.New())
		require.NoError(t, quote.TransitionTo(billing.QuoteStatusQuoted))
		quoteRepo.On("FindByID", mock.Anything, quote.ID).Return(quote, nil)
		quoteRepo.On("Save", mock.Anything, quote).Return(nil)

		_, err := s.TransitionQuote(ctx, quote.ID, TransitionQuoteRequest{Status: "pending"})
		require.Error(t, err)

		resp, err := s.TransitionQuote(ctx, quote.ID, TransitionQuoteRequest{Status: "pending", Override: true})
		require.NoError(t, err)
		assert.Equal(t, "pending", resp.Status)
	})

	t.Run("final quote override", func(t *testing.T) {
		s, quoteRepo, _, _ := newTestQuoteService()
		quote := mustTestQuote(t, uuid.New())
		quoteRepo.On("FindByID", mock.Anything, quote.ID).Return(quote, nil)
		quoteRepo.On("Save", mock.Anything, quote).Return(nil)

		finalCost := decimal.NewFromInt(1200)
		resp, err := s.TransitionQuote(ctx, quote.ID, TransitionQuoteRequest{
			Status:        "quoted",
			FinalCost:     &finalCost,
			FinalTimeline: "10-12 days",
		})
		require.NoError(t, err)
		assert.True(t, resp.EstimatedCost.Equal(finalCost))
		assert.Equal(t, "10-12 days", resp.EstimatedTimeline)
		assert.Equal(t, "quoted", resp.Status)
	})

	t.Run("empty request rejected", func(t *testing.T) {
		s, _, _, _ := newTestQuoteService()
		_, err := s.TransitionQuote(ctx, uuid.New(), TransitionQuoteRequest{})
		require.Error(t, err)
	})
}

func TestQuoteService_CreateQuote_NotificationFailureTolerated(t *testing.T) {
	s, quoteRepo, customerRepo, notifier := newTestQuoteService()
	ctx := context.Background()

	customerRepo.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
	customerRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	quoteRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("redis connection refused"))

	_, err := s.CreateQuote(ctx, CreateQuoteRequest{
		Name:        "Client",
		Email:       "client@example.com",
		Description: "small fix",
	})
	require.NoError(t, err)
}

func TestQuoteService_CreateQuote_StoreErrorPropagates(t *testing.T) {
	s, quoteRepo, customerRepo, _ := newTestQuoteService()
	ctx := context.Background()

	cust := testCustomer(t)
	customerRepo.On("FindByEmail", mock.Anything, cust.Email).Return(cust, nil)
	customerRepo.On("Save", mock.Anything, cust).Return(nil)
	quoteRepo.On("Save", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	_, err := s.CreateQuote(ctx, CreateQuoteRequest{
		Name:        cust.Name,
		Email:       cust.Email,
		Description: "small fix",
	})
	require.Error(t, err)
}
