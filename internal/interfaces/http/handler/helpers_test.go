package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appbilling "github.com/studioops/backend/internal/application/billing"
	"github.com/studioops/backend/internal/domain/billing"
	"github.com/studioops/backend/internal/domain/customer"
	"github.com/studioops/backend/internal/infrastructure/auth"
	"github.com/studioops/backend/internal/interfaces/http/dto"
	"github.com/studioops/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockQuoteRepository implements billing.QuoteRepository for testing
type MockQuoteRepository struct {
	mock.Mock
}

func (m *MockQuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Quote), args.Error(1)
}

func (m *MockQuoteRepository) FindByRef(ctx context.Context, ref string) (*billing.Quote, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Quote), args.Error(1)
}

func (m *MockQuoteRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]billing.Quote, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Quote), args.Error(1)
}

func (m *MockQuoteRepository) FindInvoiceEligibleByCustomer(ctx context.Context, customerID uuid.UUID) ([]billing.Quote, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Quote), args.Error(1)
}

func (m *MockQuoteRepository) FindAll(ctx context.Context) ([]billing.Quote, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Quote), args.Error(1)
}

func (m *MockQuoteRepository) Save(ctx context.Context, q *billing.Quote) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

// MockInvoiceRepository implements billing.InvoiceRepository for testing
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]billing.Invoice, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context) ([]billing.Invoice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsForQuote(ctx context.Context, quoteID uuid.UUID) (bool, error) {
	args := m.Called(ctx, quoteID)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, inv *billing.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) MarkDepositPaid(ctx context.Context, ref string) (bool, error) {
	args := m.Called(ctx, ref)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) MarkFullyPaid(ctx context.Context, ref string, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, ref, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) SetDepositPaid(ctx context.Context, ref string, paid bool) (bool, error) {
	args := m.Called(ctx, ref, paid)
	return args.Bool(0), args.Error(1)
}

// MockPaymentLedgerRepository implements billing.PaymentLedgerRepository for testing
type MockPaymentLedgerRepository struct {
	mock.Mock
}

func (m *MockPaymentLedgerRepository) Append(ctx context.Context, entry *billing.PaymentLedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockPaymentLedgerRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]billing.PaymentLedgerEntry, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.PaymentLedgerEntry), args.Error(1)
}

// MockCustomerRepository implements customer.Repository for testing
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*customer.Customer, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

// MockNotifier implements billing.Notifier for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, customerID uuid.UUID, kind billing.EventKind, payload map[string]any) error {
	args := m.Called(ctx, customerID, kind, payload)
	return args.Error(0)
}

// testRepos bundles the mocks behind a full service stack.
type testRepos struct {
	quoteRepo    *MockQuoteRepository
	invoiceRepo  *MockInvoiceRepository
	ledgerRepo   *MockPaymentLedgerRepository
	customerRepo *MockCustomerRepository
	notifier     *MockNotifier
}

func newTestRepos() *testRepos {
	return &testRepos{
		quoteRepo:    new(MockQuoteRepository),
		invoiceRepo:  new(MockInvoiceRepository),
		ledgerRepo:   new(MockPaymentLedgerRepository),
		customerRepo: new(MockCustomerRepository),
		notifier:     new(MockNotifier),
	}
}

func (r *testRepos) quoteService() *appbilling.QuoteService {
	return appbilling.NewQuoteService(r.quoteRepo, r.customerRepo, r.notifier, zap.NewNop())
}

func (r *testRepos) invoiceService() *appbilling.InvoiceService {
	synthesizer := appbilling.NewInvoiceSynthesizer(r.quoteRepo, r.invoiceRepo, r.notifier, zap.NewNop())
	return appbilling.NewInvoiceService(r.invoiceRepo, r.ledgerRepo, r.customerRepo, synthesizer, r.notifier, zap.NewNop())
}

func (r *testRepos) paymentReconciler() *appbilling.PaymentReconciler {
	return appbilling.NewPaymentReconciler(r.invoiceRepo, r.quoteRepo, r.ledgerRepo, r.customerRepo, r.notifier, zap.NewNop())
}

// asPrincipal is a stand-in for the JWT middleware: it injects the given
// principal directly into the request context.
func asPrincipal(p *auth.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("principal", p)
		c.Next()
	}
}

func customerPrincipal(id uuid.UUID) *auth.Principal {
	return &auth.Principal{ID: id, Role: auth.RoleCustomer, Name: "Jamie Rivera"}
}

func adminPrincipal() *auth.Principal {
	return &auth.Principal{ID: uuid.New(), Role: auth.RoleAdmin, Name: "Studio Admin"}
}

func newTestRouter(registrars ...interface{ RegisterRoutes(*gin.RouterGroup) }) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1")
	for _, registrar := range registrars {
		registrar.RegisterRoutes(api)
	}
	return engine
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func dataAsMap(t *testing.T, resp dto.Response) map[string]interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "expected object data, got %T", resp.Data)
	return data
}

func testQuote(t *testing.T, customerID uuid.UUID) *billing.Quote {
	t.Helper()
	q, err := billing.NewQuote(customerID, "API integration work", nil, billing.RushTierStandard, billing.QuoteEstimate{
		Cost:     decimal.NewFromInt(800),
		Timeline: "12-17 days",
	})
	require.NoError(t, err)
	return q
}

func testInvoice(t *testing.T, customerID uuid.UUID, quoteID *uuid.UUID, amount int64) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(customerID, quoteID, decimal.NewFromInt(amount), nil, time.Now().AddDate(0, 0, 30))
	require.NoError(t, err)
	return inv
}

func testCustomer(t *testing.T) *customer.Customer {
	t.Helper()
	c, err := customer.NewCustomer("Jamie Rivera", "jamie@example.com", "")
	require.NoError(t, err)
	return c
}
