package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/studioops/backend/internal/domain/billing"
	"github.com/studioops/backend/internal/domain/shared"
	"github.com/studioops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// invoiceEligibleQuoteStatuses are the statuses in which a quote may be
// backed by an invoice
var invoiceEligibleQuoteStatuses = []string{
	billing.QuoteStatusQuoted.String(),
	billing.QuoteStatusAccepted.String(),
	billing.QuoteStatusInProgress.String(),
	billing.QuoteStatusCompleted.String(),
}

// GormQuoteRepository implements billing.QuoteRepository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// FindByID finds a quote by its surrogate key
func (r *GormQuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Quote, error) {
	var model models.QuoteModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByRef finds a quote by its surrogate key compared as text or by
// its human-readable quote code
func (r *GormQuoteRepository) FindByRef(ctx context.Context, ref string) (*billing.Quote, error) {
	if ref == "" {
		return nil, shared.ErrNotFound
	}
	var model models.QuoteModel
	if err := r.db.WithContext(ctx).
		Where("CAST(id AS TEXT) = ? OR quote_code = ?", ref, ref).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer finds a customer's quotes, newest first
func (r *GormQuoteRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]billing.Quote, error) {
	var quoteModels []models.QuoteModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&quoteModels).Error; err != nil {
		return nil, err
	}
	return toDomainQuotes(quoteModels), nil
}

// FindInvoiceEligibleByCustomer finds a customer's invoice-eligible
// quotes, oldest first
func (r *GormQuoteRepository) FindInvoiceEligibleByCustomer(ctx context.Context, customerID uuid.UUID) ([]billing.Quote, error) {
	var quoteModels []models.QuoteModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status IN ?", customerID, invoiceEligibleQuoteStatuses).
		Order("created_at ASC").
		Find(&quoteModels).Error; err != nil {
		return nil, err
	}
	return toDomainQuotes(quoteModels), nil
}

// FindAll lists all quotes, newest first
func (r *GormQuoteRepository) FindAll(ctx context.Context) ([]billing.Quote, error) {
	var quoteModels []models.QuoteModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&quoteModels).Error; err != nil {
		return nil, err
	}
	return toDomainQuotes(quoteModels), nil
}

// Save creates or updates a quote
func (r *GormQuoteRepository) Save(ctx context.Context, q *billing.Quote) error {
	var model models.QuoteModel
	model.FromDomain(q)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
}

func toDomainQuotes(quoteModels []models.QuoteModel) []billing.Quote {
	quotes := make([]billing.Quote, len(quoteModels))
	for i := range quoteModels {
		quotes[i] = *quoteModels[i].ToDomain()
	}
	return quotes
}
