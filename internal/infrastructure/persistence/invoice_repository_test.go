package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studioops/backend/internal/domain/billing"
	"github.com/studioops/backend/internal/domain/shared"
	"github.com/studioops/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupBillingTestDB opens an in-memory SQLite database with the billing
// tables migrated. SQLite's CAST(x AS TEXT) matches the production
// predicate, so the conditional updates behave the same here.
func setupBillingTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.CustomerModel{},
		&models.QuoteModel{},
		&models.InvoiceModel{},
		&models.PaymentLedgerEntryModel{},
	)
	require.NoError(t, err)

	return db
}

func mustNewInvoice(t *testing.T, customerID uuid.UUID, quoteID *uuid.UUID, amount int64) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(customerID, quoteID, decimal.NewFromInt(amount), nil, time.Now().AddDate(0, 0, 14))
	require.NoError(t, err)
	return inv
}

func TestGormInvoiceRepository_CreateAndFindByID(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	quoteID := uuid.New()
	inv := mustNewInvoice(t, customerID, &quoteID, 1000)
	require.NoError(t, repo.Create(ctx, inv))

	found, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, customerID, found.CustomerID)
	require.NotNil(t, found.QuoteID)
	assert.Equal(t, quoteID, *found.QuoteID)
	assert.True(t, found.Amount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, found.DepositAmount.Equal(decimal.NewFromInt(200)))
	assert.True(t, found.RemainingAmount.Equal(decimal.NewFromInt(800)))
	assert.False(t, found.DepositPaid)
	assert.Equal(t, billing.InvoiceStatusPending, found.Status)
}

func TestGormInvoiceRepository_FindByID_NotFound(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormInvoiceRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormInvoiceRepository_FindByCustomer_OldestFirst(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	older := mustNewInvoice(t, customerID, nil, 500)
	older.CreatedAt = time.Now().Add(-2 * time.Hour)
	newer := mustNewInvoice(t, customerID, nil, 1500)
	newer.CreatedAt = time.Now().Add(-1 * time.Hour)
	other := mustNewInvoice(t, uuid.New(), nil, 999)

	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, other))

	invoices, err := repo.FindByCustomer(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, older.ID, invoices[0].ID)
	assert.Equal(t, newer.ID, invoices[1].ID)
}

func TestGormInvoiceRepository_ExistsForQuote(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	quoteID := uuid.New()
	inv := mustNewInvoice(t, uuid.New(), &quoteID, 1000)
	require.NoError(t, repo.Create(ctx, inv))

	exists, err := repo.ExistsForQuote(ctx, quoteID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsForQuote(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGormInvoiceRepository_MarkDepositPaid(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	inv := mustNewInvoice(t, uuid.New(), nil, 1000)
	require.NoError(t, repo.Create(ctx, inv))
	ref := inv.ID.String()

	applied, err := repo.MarkDepositPaid(ctx, ref)
	require.NoError(t, err)
	assert.True(t, applied)

	// Second attempt loses the swap
	applied, err = repo.MarkDepositPaid(ctx, ref)
	require.NoError(t, err)
	assert.False(t, applied)

	found, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, found.DepositPaid)
	assert.Equal(t, billing.InvoiceStatusPending, found.Status)
}

func TestGormInvoiceRepository_MarkFullyPaid(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	inv := mustNewInvoice(t, uuid.New(), nil, 1000)
	require.NoError(t, repo.Create(ctx, inv))
	ref := inv.ID.String()

	// Remainder cannot be recorded before the deposit
	applied, err := repo.MarkFullyPaid(ctx, ref, time.Now())
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = repo.MarkDepositPaid(ctx, ref)
	require.NoError(t, err)
	require.True(t, applied)

	paidAt := time.Now()
	applied, err = repo.MarkFullyPaid(ctx, ref, paidAt)
	require.NoError(t, err)
	assert.True(t, applied)

	// Already paid: the swap no longer applies
	applied, err = repo.MarkFullyPaid(ctx, ref, time.Now())
	require.NoError(t, err)
	assert.False(t, applied)

	found, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, found.Status)
	assert.True(t, found.DepositPaid)
	require.NotNil(t, found.PaidDate)
}

func TestGormInvoiceRepository_MarkDepositPaid_UnknownRef(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormInvoiceRepository(db)

	applied, err := repo.MarkDepositPaid(context.Background(), uuid.New().String())
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestGormInvoiceRepository_SetDepositPaid(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	inv := mustNewInvoice(t, uuid.New(), nil, 1000)
	require.NoError(t, repo.Create(ctx, inv))
	ref := inv.ID.String()

	applied, err := repo.SetDepositPaid(ctx, ref, true)
	require.NoError(t, err)
	assert.True(t, applied)

	// Clearing works while the invoice is still pending
	applied, err = repo.SetDepositPaid(ctx, ref, false)
	require.NoError(t, err)
	assert.True(t, applied)

	_, err = repo.MarkDepositPaid(ctx, ref)
	require.NoError(t, err)
	applied, err = repo.MarkFullyPaid(ctx, ref, time.Now())
	require.NoError(t, err)
	require.True(t, applied)

	// A fully paid invoice keeps its deposit flag
	applied, err = repo.SetDepositPaid(ctx, ref, false)
	require.NoError(t, err)
	assert.False(t, applied)

	found, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, found.DepositPaid)
}

// newMockInvoiceRepository creates a GormInvoiceRepository backed by sqlmock
// so the exact UPDATE shape can be asserted.
func newMockInvoiceRepository(t *testing.T) (*GormInvoiceRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormInvoiceRepository(gormDB), mock, mockDB
}

func TestGormInvoiceRepository_MarkDepositPaid_SQL(t *testing.T) {
	repo, mock, mockDB := newMockInvoiceRepository(t)
	defer mockDB.Close()

	ref := uuid.New().String()

	mock.ExpectExec(`UPDATE "invoices" SET .* WHERE CAST\(id AS TEXT\) = \$\d+ AND deposit_paid = \$\d+ AND status <> \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := repo.MarkDepositPaid(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}
