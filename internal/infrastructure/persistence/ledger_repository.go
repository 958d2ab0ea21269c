package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/studioops/backend/internal/domain/billing"
	"github.com/studioops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentLedgerRepository implements billing.PaymentLedgerRepository
// using GORM. The ledger is append-only: this repository exposes no
// update or delete path.
type GormPaymentLedgerRepository struct {
	db *gorm.DB
}

// NewGormPaymentLedgerRepository creates a new GormPaymentLedgerRepository
func NewGormPaymentLedgerRepository(db *gorm.DB) *GormPaymentLedgerRepository {
	return &GormPaymentLedgerRepository{db: db}
}

// Append inserts a ledger entry
func (r *GormPaymentLedgerRepository) Append(ctx context.Context, entry *billing.PaymentLedgerEntry) error {
	var model models.PaymentLedgerEntryModel
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByInvoice lists a single invoice's ledger entries, oldest first
func (r *GormPaymentLedgerRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]billing.PaymentLedgerEntry, error) {
	var entryModels []models.PaymentLedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]billing.PaymentLedgerEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = *entryModels[i].ToDomain()
	}
	return entries, nil
}
