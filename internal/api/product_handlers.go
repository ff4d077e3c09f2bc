package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Neetrino/clean-house/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.ProductFilter{
		CategoryID: q.Get("category"),
		Search:     q.Get("search"),
		SortBy:     q.Get("sortBy"),
		SortOrder:  q.Get("sortOrder"),
		Featured:   q.Get("featured") == "true",
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	fieldErrors := map[string]string{}
	if raw := q.Get("minPrice"); raw != "" {
		min, err := decimal.NewFromString(raw)
		if err != nil {
			fieldErrors["minPrice"] = "must be a number"
		} else {
			filter.MinPrice = &min
		}
	}
	if raw := q.Get("maxPrice"); raw != "" {
		max, err := decimal.NewFromString(raw)
		if err != nil {
			fieldErrors["maxPrice"] = "must be a number"
		} else {
			filter.MaxPrice = &max
		}
	}
	if len(fieldErrors) > 0 {
		respondValidation(w, fieldErrors)
		return
	}

	page, err := store.ListProducts(r.Context(), h.db, filter)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondPage(w, page)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := store.GetProduct(r.Context(), h.db, chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, product)
}

func (h *Handlers) SearchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		respondValidation(w, map[string]string{"q": "search query is required"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := store.SearchProducts(r.Context(), h.db, q, limit)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, products)
}

func (h *Handlers) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := store.FeaturedProducts(r.Context(), h.db, limit)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, products)
}

type createProductRequest struct {
	SKU            string           `json:"sku"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Price          *decimal.Decimal `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	Images         []string         `json:"images"`
	Tags           []string         `json:"tags"`
	IsFeatured     bool             `json:"is_featured"`
	CategoryID     *string          `json:"category_id"`
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fieldErrors := map[string]string{}
	if req.SKU == "" {
		fieldErrors["sku"] = "sku is required"
	}
	if req.Name == "" {
		fieldErrors["name"] = "name is required"
	}
	if req.Price == nil {
		fieldErrors["price"] = "price is required"
	} else if req.Price.IsNegative() {
		fieldErrors["price"] = "price must not be negative"
	}
	if len(fieldErrors) > 0 {
		respondValidation(w, fieldErrors)
		return
	}

	product, err := store.CreateProduct(r.Context(), h.db, store.CreateProductParams{
		SKU:            req.SKU,
		Name:           req.Name,
		Description:    req.Description,
		Price:          *req.Price,
		CompareAtPrice: req.CompareAtPrice,
		Images:         req.Images,
		Tags:           req.Tags,
		IsFeatured:     req.IsFeatured,
		CategoryID:     req.CategoryID,
	})
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondDataMessage(w, http.StatusCreated, product, "Product created successfully")
}

type updateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Images      []string         `json:"images"`
	Tags        []string         `json:"tags"`
	IsActive    *bool            `json:"is_active"`
	IsFeatured  *bool            `json:"is_featured"`
	CategoryID  *string          `json:"category_id"`
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Price != nil && req.Price.IsNegative() {
		respondValidation(w, map[string]string{"price": "price must not be negative"})
		return
	}

	product, err := store.UpdateProduct(r.Context(), h.db, chi.URLParam(r, "id"), store.UpdateProductParams{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Images:      req.Images,
		Tags:        req.Tags,
		IsActive:    req.IsActive,
		IsFeatured:  req.IsFeatured,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondDataMessage(w, http.StatusOK, product, "Product updated successfully")
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteProduct(r.Context(), h.db, chi.URLParam(r, "id")); err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondMessage(w, http.StatusOK, "Product deleted successfully")
}
