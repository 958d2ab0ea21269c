package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/studioops/backend/internal/domain/billing"
	"github.com/studioops/backend/internal/domain/shared"
	"github.com/studioops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM.
// Payment transitions are single conditional UPDATEs; the row count tells
// the caller whether the swap applied, so concurrent payers cannot both
// record the same payment.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its surrogate key
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer finds a customer's invoices, oldest first
func (r *GormInvoiceRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(invoiceModels), nil
}

// FindAll lists all invoices, newest first
func (r *GormInvoiceRepository) FindAll(ctx context.Context) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(invoiceModels), nil
}

// ExistsForQuote reports whether any invoice references the quote
func (r *GormInvoiceRepository) ExistsForQuote(ctx context.Context, quoteID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("quote_id = ?", quoteID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create persists a new invoice
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *billing.Invoice) error {
	var model models.InvoiceModel
	model.FromDomain(inv)
	return r.db.WithContext(ctx).Create(&model).Error
}

// MarkDepositPaid atomically sets deposit_paid on a pending invoice
// whose deposit has not been recorded yet
func (r *GormInvoiceRepository) MarkDepositPaid(ctx context.Context, ref string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("CAST(id AS TEXT) = ? AND deposit_paid = ? AND status <> ?",
			ref, false, billing.InvoiceStatusPaid.String()).
		Updates(map[string]interface{}{
			"deposit_paid": true,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkFullyPaid atomically marks a deposit-paid invoice as fully paid
func (r *GormInvoiceRepository) MarkFullyPaid(ctx context.Context, ref string, paidAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("CAST(id AS TEXT) = ? AND deposit_paid = ? AND status <> ?",
			ref, true, billing.InvoiceStatusPaid.String()).
		Updates(map[string]interface{}{
			"status":     billing.InvoiceStatusPaid.String(),
			"paid_date":  paidAt,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetDepositPaid force-sets the deposit flag. The flag cannot be cleared
// on a fully paid invoice, so the paid-implies-deposit invariant holds.
func (r *GormInvoiceRepository) SetDepositPaid(ctx context.Context, ref string, paid bool) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("CAST(id AS TEXT) = ?", ref)
	if !paid {
		query = query.Where("status <> ?", billing.InvoiceStatusPaid.String())
	}

	result := query.Updates(map[string]interface{}{
		"deposit_paid": paid,
		"updated_at":   time.Now(),
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func toDomainInvoices(invoiceModels []models.InvoiceModel) []billing.Invoice {
	invoices := make([]billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices
}
