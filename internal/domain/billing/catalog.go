package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// servicePackages is the fixed catalog of offerings shown on the public
// quote form. Quotes store a snapshot of the selected package, so edits
// here never reprice existing quotes.
var servicePackages = []ServicePackage{
	{
		Name:          "Landing Page",
		Price:         decimal.NewFromInt(500),
		Features:      []string{"Single-page site", "Contact form", "Basic SEO", "1 revision round"},
		DeliveryRange: "5-7",
		Complexity:    "basic",
	},
	{
		Name:          "Business Website",
		Price:         decimal.NewFromInt(1000),
		Features:      []string{"Up to 6 pages", "CMS integration", "On-page SEO", "2 revision rounds"},
		DeliveryRange: "7-14",
		Complexity:    "standard",
	},
	{
		Name:          "E-Commerce Store",
		Price:         decimal.NewFromInt(2500),
		Features:      []string{"Product catalog", "Checkout and payments", "Order management", "3 revision rounds"},
		DeliveryRange: "14-21",
		Complexity:    "advanced",
	},
}

// Catalog returns the service package catalog
func Catalog() []ServicePackage {
	out := make([]ServicePackage, len(servicePackages))
	copy(out, servicePackages)
	return out
}

// FindPackage looks up a catalog package by name (case-insensitive)
func FindPackage(name string) (*ServicePackage, bool) {
	name = strings.TrimSpace(name)
	for i := range servicePackages {
		if strings.EqualFold(servicePackages[i].Name, name) {
			pkg := servicePackages[i]
			return &pkg, true
		}
	}
	return nil, false
}
