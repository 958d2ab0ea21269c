package models

import (
	"github.com/studioops/backend/internal/domain/customer"
)

// CustomerModel is the persistence model for customers
type CustomerModel struct {
	BaseModel
	Name    string `gorm:"size:255;not null"`
	Email   string `gorm:"size:255;not null;uniqueIndex"`
	Company string `gorm:"size:255"`
}

// TableName specifies the table name for CustomerModel
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts CustomerModel to domain Customer
func (m *CustomerModel) ToDomain() *customer.Customer {
	return &customer.Customer{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Email:      m.Email,
		Company:    m.Company,
	}
}

// FromDomain populates CustomerModel from domain Customer
func (m *CustomerModel) FromDomain(c *customer.Customer) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Name = c.Name
	m.Email = c.Email
	m.Company = c.Company
}
