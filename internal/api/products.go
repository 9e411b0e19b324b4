// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/olegiv/storefront-go/internal/model"
)

// ListProducts fetches the public product catalog.
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.doJSON(ctx, http.MethodGet, "/api/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct submits a new product as a multipart payload: scalar
// fields, the curriculum as a JSON string, the product file and the
// optional featured image. Admin only.
func (c *Client) CreateProduct(ctx context.Context, form *model.ProductForm) (model.Product, error) {
	if err := form.Validate(); err != nil {
		return model.Product{}, err
	}
	return c.sendProductForm(ctx, http.MethodPost, "/api/products", form)
}

// UpdateProduct updates an existing product with a multipart payload.
// Empty form fields leave the stored values untouched, so Validate is
// not applied here.
func (c *Client) UpdateProduct(ctx context.Context, id string, form *model.ProductForm) (model.Product, error) {
	if id == "" {
		return model.Product{}, fmt.Errorf("%w: product id is required", model.ErrValidation)
	}
	return c.sendProductForm(ctx, http.MethodPut, "/api/products/"+id, form)
}

// DeleteProduct removes a product. Admin only.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: product id is required", model.ErrValidation)
	}
	return c.doJSON(ctx, http.MethodDelete, "/api/products/"+id, nil, nil)
}

// sendProductForm encodes the form as multipart and executes the request.
func (c *Client) sendProductForm(ctx context.Context, method, path string, form *model.ProductForm) (model.Product, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":        form.Title,
		"description":  form.Description,
		"overview":     form.Overview,
		"pricingModel": form.PricingModel,
		"category":     form.Category,
	}
	if form.Price > 0 || form.PricingModel == model.PricingPaid {
		fields["price"] = strconv.FormatFloat(form.Price, 'f', 2, 64)
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := w.WriteField(name, value); err != nil {
			return model.Product{}, fmt.Errorf("encoding form: %w", err)
		}
	}

	if len(form.Curriculum) > 0 {
		data, err := json.Marshal(form.Curriculum)
		if err != nil {
			return model.Product{}, fmt.Errorf("encoding curriculum: %w", err)
		}
		if err := w.WriteField("curriculum", string(data)); err != nil {
			return model.Product{}, fmt.Errorf("encoding form: %w", err)
		}
	}

	if len(form.File) > 0 {
		part, err := w.CreateFormFile("file", form.FileName)
		if err != nil {
			return model.Product{}, fmt.Errorf("encoding file: %w", err)
		}
		if _, err := part.Write(form.File); err != nil {
			return model.Product{}, fmt.Errorf("encoding file: %w", err)
		}
	}

	if len(form.Image) > 0 {
		part, err := w.CreateFormFile("featuredImage", form.ImageName)
		if err != nil {
			return model.Product{}, fmt.Errorf("encoding image: %w", err)
		}
		if _, err := part.Write(form.Image); err != nil {
			return model.Product{}, fmt.Errorf("encoding image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return model.Product{}, fmt.Errorf("encoding form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return model.Product{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var product model.Product
	if err := c.do(req, path, &product); err != nil {
		return model.Product{}, err
	}
	return product, nil
}
