package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_EffectivePrice(t *testing.T) {
	paid := Product{Price: 19.99, PricingModel: PricingPaid}
	assert.Equal(t, 19.99, paid.EffectivePrice())

	// A free product prices to zero even when a stale price is stored.
	free := Product{Price: 12.50, PricingModel: PricingFree}
	assert.Equal(t, 0.0, free.EffectivePrice())
	assert.True(t, free.IsFree())
}

func TestProductForm_Validate(t *testing.T) {
	valid := ProductForm{
		Title:        "Mindful Mornings",
		Description:  "A guided workbook.",
		Price:        9.99,
		PricingModel: PricingPaid,
		Category:     CategoryWorkbooks,
		FileName:     "mindful-mornings.pdf",
		File:         []byte("%PDF-1.4"),
	}
	require.NoError(t, valid.Validate())

	missing := valid
	missing.Title = "  "
	missing.File = nil
	err := missing.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "title")
	assert.Contains(t, err.Error(), "file")

	badCategory := valid
	badCategory.Category = "music"
	assert.ErrorIs(t, badCategory.Validate(), ErrValidation)

	freeNoPrice := valid
	freeNoPrice.PricingModel = PricingFree
	freeNoPrice.Price = 0
	assert.NoError(t, freeNoPrice.Validate())
}

func TestFilterByCategory(t *testing.T) {
	products := []Product{
		{ID: "1", Category: CategoryEbooks},
		{ID: "2", Category: CategoryCourses},
		{ID: "3", Category: CategoryEbooks},
	}

	assert.Len(t, FilterByCategory(products, ""), 3)

	ebooks := FilterByCategory(products, CategoryEbooks)
	require.Len(t, ebooks, 2)
	assert.Equal(t, "1", ebooks[0].ID)
	assert.Equal(t, "3", ebooks[1].ID)

	assert.Empty(t, FilterByCategory(products, CategoryWorkbooks))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("student@example.com"))
	assert.ErrorIs(t, ValidateEmail(""), ErrValidation)
	assert.ErrorIs(t, ValidateEmail("   "), ErrValidation)
	assert.ErrorIs(t, ValidateEmail("not-an-email"), ErrValidation)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "Free", FormatAmount(0))
	assert.Equal(t, "£19.99", FormatAmount(19.99))
}
