package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/studioops/backend/internal/domain/billing"
)

// QuoteModel is the persistence model for quotes
type QuoteModel struct {
	BaseModel
	QuoteCode         string                  `gorm:"size:32;not null;uniqueIndex"`
	CustomerID        uuid.UUID               `gorm:"type:uuid;not null;index"`
	Description       string                  `gorm:"type:text"`
	Package           *billing.ServicePackage `gorm:"type:jsonb"`
	RushTier          string                  `gorm:"size:20;not null;default:'standard'"`
	EstimatedCost     decimal.Decimal         `gorm:"type:decimal(12,2);not null"`
	EstimatedTimeline string                  `gorm:"size:50"`
	Status            string                  `gorm:"size:20;not null;default:'pending';index"`
}

// TableName specifies the table name for QuoteModel
func (QuoteModel) TableName() string {
	return "quotes"
}

// ToDomain converts QuoteModel to domain Quote
func (m *QuoteModel) ToDomain() *billing.Quote {
	return &billing.Quote{
		BaseEntity:        m.BaseModel.ToDomain(),
		QuoteCode:         m.QuoteCode,
		CustomerID:        m.CustomerID,
		Description:       m.Description,
		Package:           m.Package,
		RushTier:          billing.RushTier(m.RushTier),
		EstimatedCost:     m.EstimatedCost,
		EstimatedTimeline: m.EstimatedTimeline,
		Status:            billing.QuoteStatus(m.Status),
	}
}

// FromDomain populates QuoteModel from domain Quote
func (m *QuoteModel) FromDomain(q *billing.Quote) {
	m.FromDomainBaseEntity(q.BaseEntity)
	m.QuoteCode = q.QuoteCode
	m.CustomerID = q.CustomerID
	m.Description = q.Description
	m.Package = q.Package
	m.RushTier = string(q.RushTier)
	m.EstimatedCost = q.EstimatedCost
	m.EstimatedTimeline = q.EstimatedTimeline
	m.Status = string(q.Status)
}

// InvoiceModel is the persistence model for invoices
type InvoiceModel struct {
	BaseModel
	CustomerID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	QuoteID         *uuid.UUID           `gorm:"type:uuid;index"`
	Amount          decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	DepositAmount   decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	RemainingAmount decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	DepositPaid     bool                 `gorm:"not null;default:false"`
	Status          string               `gorm:"size:20;not null;default:'pending';index"`
	DueDate         time.Time            `gorm:"not null"`
	PaidDate        *time.Time
	Items           billing.InvoiceItems `gorm:"type:jsonb;not null;default:'[]'"`
}

// TableName specifies the table name for InvoiceModel
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts InvoiceModel to domain Invoice
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	return &billing.Invoice{
		BaseEntity:      m.BaseModel.ToDomain(),
		CustomerID:      m.CustomerID,
		QuoteID:         m.QuoteID,
		Amount:          m.Amount,
		DepositAmount:   m.DepositAmount,
		RemainingAmount: m.RemainingAmount,
		DepositPaid:     m.DepositPaid,
		Status:          billing.InvoiceStatus(m.Status),
		DueDate:         m.DueDate,
		PaidDate:        m.PaidDate,
		Items:           m.Items,
	}
}

// FromDomain populates InvoiceModel from domain Invoice
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainBaseEntity(inv.BaseEntity)
	m.CustomerID = inv.CustomerID
	m.QuoteID = inv.QuoteID
	m.Amount = inv.Amount
	m.DepositAmount = inv.DepositAmount
	m.RemainingAmount = inv.RemainingAmount
	m.DepositPaid = inv.DepositPaid
	m.Status = string(inv.Status)
	m.DueDate = inv.DueDate
	m.PaidDate = inv.PaidDate
	m.Items = inv.Items
}

// PaymentLedgerEntryModel is the persistence model for the append-only
// payment ledger. Rows are inserted once and never updated.
type PaymentLedgerEntryModel struct {
	BaseModel
	InvoiceID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Type       string          `gorm:"size:20;not null"`
}

// TableName specifies the table name for PaymentLedgerEntryModel
func (PaymentLedgerEntryModel) TableName() string {
	return "payment_ledger_entries"
}

// ToDomain converts PaymentLedgerEntryModel to domain PaymentLedgerEntry
func (m *PaymentLedgerEntryModel) ToDomain() *billing.PaymentLedgerEntry {
	return &billing.PaymentLedgerEntry{
		BaseEntity: m.BaseModel.ToDomain(),
		InvoiceID:  m.InvoiceID,
		CustomerID: m.CustomerID,
		Amount:     m.Amount,
		Type:       billing.PaymentType(m.Type),
	}
}

// FromDomain populates PaymentLedgerEntryModel from domain PaymentLedgerEntry
func (m *PaymentLedgerEntryModel) FromDomain(e *billing.PaymentLedgerEntry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.InvoiceID = e.InvoiceID
	m.CustomerID = e.CustomerID
	m.Amount = e.Amount
	m.Type = string(e.Type)
}
