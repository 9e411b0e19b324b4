// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the
// storefront client including Product, Order, Session and the local
// event log structures.
package model

import (
	"fmt"
	"strings"
)

// Pricing models as reported by the backend.
const (
	PricingFree = "free"
	PricingPaid = "paid"
)

// Product categories in the storefront catalog.
const (
	CategoryEbooks       = "ebooks"
	CategoryWorkbooks    = "workbooks"
	CategoryConversation = "conversation"
	CategoryCourses      = "courses"
)

// CategoryLabels maps category codes to their display names.
var CategoryLabels = map[string]string{
	CategoryEbooks:       "E-Books & Guides",
	CategoryWorkbooks:    "Workbooks, Journals & Templates",
	CategoryConversation: "Conversation & Connection Tools",
	CategoryCourses:      "Courses",
}

// IsValidCategory reports whether the category code is one the catalog knows.
func IsValidCategory(category string) bool {
	_, ok := CategoryLabels[category]
	return ok
}

// CurriculumSection is one ordered section of a course product.
type CurriculumSection struct {
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	Content string `json:"content"`
}

// Product represents a digital product as served by the backend.
// The backend uses Mongo-style "_id" identifiers.
type Product struct {
	ID               string              `json:"_id"`
	Title            string              `json:"title"`
	Description      string              `json:"description"`
	Overview         string              `json:"overview,omitempty"`
	Price            float64             `json:"price"`
	PricingModel     string              `json:"pricingModel"`
	Category         string              `json:"category"`
	FeaturedImageURL string              `json:"featuredImageUrl,omitempty"`
	FileURL          string              `json:"fileUrl,omitempty"`
	Curriculum       []CurriculumSection `json:"curriculum,omitempty"`
}

// IsFree returns true for free-tier products.
func (p *Product) IsFree() bool {
	return p.PricingModel == PricingFree
}

// EffectivePrice returns the price the buyer pays. A free product prices
// to zero regardless of whatever value is stored on it.
func (p *Product) EffectivePrice() float64 {
	if p.IsFree() {
		return 0
	}
	return p.Price
}

// ProductForm carries the fields of an admin product create/update
// submission before it is encoded as a multipart payload.
type ProductForm struct {
	Title        string
	Description  string
	Overview     string
	Price        float64
	PricingModel string
	Category     string
	Curriculum   []CurriculumSection

	// FileName/File hold the product file; ImageName/Image the featured image.
	FileName  string
	File      []byte
	ImageName string
	Image     []byte
}

// Validate checks form completeness before any network call is issued.
func (f *ProductForm) Validate() error {
	var missing []string
	if strings.TrimSpace(f.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(f.Description) == "" {
		missing = append(missing, "description")
	}
	if f.PricingModel != PricingFree && f.PricingModel != PricingPaid {
		return fmt.Errorf("%w: pricing model must be %q or %q", ErrValidation, PricingFree, PricingPaid)
	}
	if f.PricingModel == PricingPaid && f.Price <= 0 {
		missing = append(missing, "price")
	}
	if !IsValidCategory(f.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, f.Category)
	}
	if len(f.File) == 0 {
		missing = append(missing, "file")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// FilterByCategory returns the products matching the given category.
// An empty category returns the full set. Filtering is a pure function
// over the full list: the catalog cache holds one entry for all views.
func FilterByCategory(products []Product, category string) []Product {
	if category == "" {
		return products
	}
	filtered := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
