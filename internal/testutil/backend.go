// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/olegiv/storefront-go/internal/model"
)

// Fixed credentials the fake backend accepts.
const (
	AdminPassword   = "admin-secret"
	StudentEmail    = "student@example.com"
	StudentPassword = "student-secret"
)

// Backend is an in-memory double of the remote storefront API. It
// implements the observed contract: bearer auth, {"msg": ...} error
// bodies, Mongo-style ids, and the create/capture payment handshake.
type Backend struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	products []model.Product
	orders   []model.Order
	files    map[string][]byte    // served under /files/{name}
	tokens   map[string]tokenInfo // token -> identity
	grants   map[string]bool      // productID|email -> already granted
	pending  map[string]string    // provider order id -> product id

	// Counters for asserting call behavior.
	CreateOrderCalls  int
	CaptureOrderCalls int
	ListProductCalls  int
	ListOrderCalls    int

	// FailCapture makes capture-order return 500 (reconciliation gap scenario).
	FailCapture bool
	// ExpireTokens makes every authenticated call answer 401.
	ExpireTokens bool
}

type tokenInfo struct {
	role  string
	email string
}

// NewBackend starts a fake backend and registers cleanup on the test.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		t:       t,
		files:   make(map[string][]byte),
		tokens:  make(map[string]tokenInfo),
		grants:  make(map[string]bool),
		pending: make(map[string]string),
	}

	r := chi.NewRouter()
	r.Post("/api/auth/login", b.handleLogin)
	r.Post("/api/auth/signup", b.handleSignup)
	r.Patch("/api/auth/password", b.handleChangePassword)
	r.Get("/api/products", b.handleListProducts)
	r.Post("/api/products", b.handleCreateProduct)
	r.Put("/api/products/{id}", b.handleUpdateProduct)
	r.Delete("/api/products/{id}", b.handleDeleteProduct)
	r.Get("/api/orders", b.handleListOrders)
	r.Get("/api/orders/analytics", b.handleAnalytics)
	r.Post("/api/payments/create-order", b.handleCreateOrder)
	r.Post("/api/payments/capture-order", b.handleCaptureOrder)
	r.Get("/files/{name}", b.handleGetFile)

	b.srv = httptest.NewServer(r)
	t.Cleanup(b.srv.Close)
	return b
}

// URL returns the backend's base URL.
func (b *Backend) URL() string { return b.srv.URL }

// SeedProduct adds a product and returns it with an assigned id.
func (b *Backend) SeedProduct(p model.Product) model.Product {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	b.products = append(b.products, p)
	return p
}

// SeedFile registers file bytes served under /files/{name} and returns
// the backend-relative URL.
func (b *Backend) SeedFile(name string, data []byte) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[name] = data
	return "/files/" + name
}

func (b *Backend) handleGetFile(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Anonymous fetches pass; a presented token must still be valid.
	if bearer(r) != "" {
		if _, ok := b.authenticate(r); !ok {
			writeMsg(w, http.StatusUnauthorized, "invalid token")
			return
		}
	}

	data, ok := b.files[chi.URLParam(r, "name")]
	if !ok {
		writeMsg(w, http.StatusNotFound, "file not found")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

// Orders returns a copy of all recorded orders.
func (b *Backend) Orders() []model.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Order(nil), b.orders...)
}

// Products returns a copy of the product list.
func (b *Backend) Products() []model.Product {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Product(nil), b.products...)
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"msg": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// bearer extracts the bearer token, or "" when absent/malformed.
func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// authenticate resolves the caller's identity. Must be called with b.mu held.
func (b *Backend) authenticate(r *http.Request) (tokenInfo, bool) {
	if b.ExpireTokens {
		return tokenInfo{}, false
	}
	info, ok := b.tokens[bearer(r)]
	return info, ok
}

func (b *Backend) issueToken(role, email string) string {
	token := uuid.NewString()
	b.tokens[token] = tokenInfo{role: role, email: email}
	return token
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Admin credentials are not email-keyed.
	if req.Email == "" {
		if req.Password != AdminPassword {
			writeMsg(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeJSON(w, http.StatusOK, model.Session{Token: b.issueToken(model.RoleAdmin, ""), Role: model.RoleAdmin})
		return
	}

	if req.Email != StudentEmail || req.Password != StudentPassword {
		writeMsg(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, model.Session{Token: b.issueToken(model.RoleStudent, req.Email), Role: model.RoleStudent})
}

func (b *Backend) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleStudent
	}
	if req.Role == model.RoleStudent && req.Email == "" {
		writeMsg(w, http.StatusBadRequest, "email is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusCreated, model.Session{Token: b.issueToken(req.Role, req.Email), Role: req.Role})
}

func (b *Backend) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.authenticate(r); !ok {
		writeMsg(w, http.StatusUnauthorized, "invalid token")
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewPassword == "" {
		writeMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "password updated"})
}

func (b *Backend) handleListProducts(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ListProductCalls++
	products := b.products
	if products == nil {
		products = []model.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (b *Backend) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	info, ok := b.authenticate(r)
	if !ok {
		writeMsg(w, http.StatusUnauthorized, "invalid token")
		return
	}
	if info.role != model.RoleAdmin {
		writeMsg(w, http.StatusForbidden, "admin only")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeMsg(w, http.StatusBadRequest, "expected multipart form")
		return
	}

	p := model.Product{
		ID:           uuid.NewString(),
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		Overview:     r.FormValue("overview"),
		PricingModel: r.FormValue("pricingModel"),
		Category:     r.FormValue("category"),
	}
	_, _ = fmt.Sscanf(r.FormValue("price"), "%f", &p.Price)
	if cur := r.FormValue("curriculum"); cur != "" {
		_ = json.Unmarshal([]byte(cur), &p.Curriculum)
	}
	if f, fh, err := r.FormFile("file"); err == nil {
		data, _ := io.ReadAll(f)
		_ = f.Close()
		b.files[fh.Filename] = data
		p.FileURL = "/files/" + fh.Filename
	}
	if _, fh, err := r.FormFile("featuredImage"); err == nil {
		p.FeaturedImageURL = "https://cdn.example.com/images/" + fh.Filename
	}

	b.products = append(b.products, p)
	writeJSON(w, http.StatusCreated, p)
}

func (b *Backend) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	info, ok := b.authenticate(r)
	if !ok {
		writeMsg(w, http.StatusUnauthorized, "invalid token")
		return
	}
	if info.role != model.RoleAdmin {
		writeMsg(w, http.StatusForbidden, "admin only")
		return
	}

	id := chi.URLParam(r, "id")
	for i := range b.products {
		if b.products[i].ID != id {
			continue
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeMsg(w, http.StatusBadRequest, "expected multipart form")
			return
		}
		if v := r.FormValue("title"); v != "" {
			b.products[i].Title = v
		}
		if v := r.FormValue("description"); v != "" {
			b.products[i].Description = v
		}
		if v := r.FormValue("price"); v != "" {
			_, _ = fmt.Sscanf(v, "%f", &b.products[i].Price)
		}
		if v := r.FormValue("pricingModel"); v != "" {
			b.products[i].PricingModel = v
		}
		if v := r.FormValue("category"); v != "" {
			b.products[i].Category = v
		}
		writeJSON(w, http.StatusOK, b.products[i])
		return
	}
	writeMsg(w, http.StatusNotFound, "product not found")
}

func (b *Backend) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	info, ok := b.authenticate(r)
	if !ok {
		writeMsg(w, http.StatusUnauthorized, "invalid token")
		return
	}
	if info.role != model.RoleAdmin {
		writeMsg(w, http.StatusForbidden, "admin only")
		return
	}

	id := chi.URLParam(r, "id")
	for i := range b.products {
		if b.products[i].ID == id {
			b.products = append(b.products[:i], b.products[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeMsg(w, http.StatusNotFound, "product not found")
}

func (b *Backend) handleListOrders(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ListOrderCalls++
	info, ok := b.authenticate(r)
	if !ok {
		writeMsg(w, http.StatusUnauthorized, "invalid token")
		return
	}

	orders := []model.Order{}
	for _, o := range b.orders {
		if info.role == model.RoleAdmin || o.UserEmail == info.email {
			orders = append(orders, o)
		}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (b *Backend) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	info, ok := b.authenticate(r)
	if !ok {
		writeMsg(w, http.StatusUnauthorized, "invalid token")
		return
	}
	if info.role != model.RoleAdmin {
		writeMsg(w, http.StatusForbidden, "admin only")
		return
	}

	var enrollments int64
	for _, o := range b.orders {
		if o.Status == model.OrderStatusFree {
			enrollments++
		}
	}
	writeJSON(w, http.StatusOK, model.Analytics{
		TotalOrders:      int64(len(b.orders)),
		TotalEnrollments: enrollments,
	})
}

func (b *Backend) findProduct(id string) (model.Product, bool) {
	for _, p := range b.products {
		if p.ID == id {
			return p, true
		}
	}
	return model.Product{}, false
}

func (b *Backend) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CreateOrderCalls++

	var req struct {
		ProductID string `json:"productId"`
		Email     string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		writeMsg(w, http.StatusBadRequest, "productId is required")
		return
	}

	product, found := b.findProduct(req.ProductID)
	if !found {
		writeMsg(w, http.StatusNotFound, "product not found")
		return
	}

	// Bearer token is optional on payment endpoints; when present it must be valid.
	email := req.Email
	if bearer(r) != "" {
		info, ok := b.authenticate(r)
		if !ok {
			writeMsg(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if info.email != "" {
			email = info.email
		}
	}

	if product.IsFree() {
		grantKey := product.ID + "|" + email
		if b.grants[grantKey] {
			writeJSON(w, http.StatusOK, map[string]string{"status": model.OrderStatusAlreadyAccessed})
			return
		}
		b.grants[grantKey] = true
		b.orders = append(b.orders, model.Order{
			ID:             uuid.NewString(),
			Product:        model.ProductRef{ID: product.ID, Title: product.Title, FileURL: product.FileURL},
			UserEmail:      email,
			Amount:         0,
			Status:         model.OrderStatusFree,
			DownloadAccess: true,
			CreatedAt:      time.Now().UTC(),
		})
		writeJSON(w, http.StatusOK, map[string]string{"status": model.OrderStatusFree})
		return
	}

	providerOrderID := "PROV-" + uuid.NewString()
	b.pending[providerOrderID] = product.ID
	writeJSON(w, http.StatusOK, map[string]string{
		"status": model.OrderStatusPending,
		"id":     providerOrderID,
	})
}

func (b *Backend) handleCaptureOrder(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CaptureOrderCalls++

	if b.FailCapture {
		writeMsg(w, http.StatusInternalServerError, "capture failed")
		return
	}

	var req struct {
		OrderID   string `json:"orderID"`
		ProductID string `json:"productId"`
		Email     string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		writeMsg(w, http.StatusBadRequest, "orderID is required")
		return
	}

	productID, ok := b.pending[req.OrderID]
	if !ok || productID != req.ProductID {
		writeMsg(w, http.StatusNotFound, "no pending order")
		return
	}
	delete(b.pending, req.OrderID)

	product, _ := b.findProduct(productID)
	email := req.Email
	if info, ok := b.authenticate(r); ok && info.email != "" {
		email = info.email
	}

	order := model.Order{
		ID:             uuid.NewString(),
		Product:        model.ProductRef{ID: product.ID, Title: product.Title, FileURL: product.FileURL},
		UserEmail:      email,
		Amount:         product.Price,
		Status:         model.OrderStatusPaid,
		DownloadAccess: true,
		ReceiptURL:     "https://pay.example.com/receipt/" + req.OrderID,
		CreatedAt:      time.Now().UTC(),
	}
	b.orders = append(b.orders, order)
	writeJSON(w, http.StatusOK, order)
}
