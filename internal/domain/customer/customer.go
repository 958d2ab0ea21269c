package customer

import (
	"strings"

	"github.com/studioops/backend/internal/domain/shared"
)

// Customer represents a client of the studio. Customers originate from
// the public quote form and are looked up by email on repeat submissions.
type Customer struct {
	shared.BaseEntity
	Name    string
	Email   string
	Company string
}

// NewCustomer creates a new customer
func NewCustomer(name, email, company string) (*Customer, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, shared.NewDomainError("INVALID_INPUT", "A valid customer email is required")
	}

	return &Customer{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Email:      email,
		Company:    strings.TrimSpace(company),
	}, nil
}

// UpdateContact updates the customer's contact details
func (c *Customer) UpdateContact(name, company string) {
	if name = strings.TrimSpace(name); name != "" {
		c.Name = name
	}
	c.Company = strings.TrimSpace(company)
	c.Touch()
}
