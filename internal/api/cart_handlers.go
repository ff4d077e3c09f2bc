package api

import (
	"encoding/json"
	"net/http"

	mw "github.com/Neetrino/clean-house/internal/api/middleware"
	"github.com/Neetrino/clean-house/internal/store"
	"github.com/go-chi/chi/v5"
)

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := store.GetCart(r.Context(), h.db, mw.GetUserID(r.Context()))
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, cart)
}

type addToCartRequest struct {
	ProductID string  `json:"productId"`
	VariantID *string `json:"variantId"`
	Quantity  int     `json:"quantity"`
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Quantity == 0 {
		req.Quantity = 1
	}

	fieldErrors := map[string]string{}
	if req.ProductID == "" {
		fieldErrors["productId"] = "productId is required"
	}
	if req.Quantity < 1 {
		fieldErrors["quantity"] = "quantity must be at least 1"
	}
	if len(fieldErrors) > 0 {
		respondValidation(w, fieldErrors)
		return
	}

	item, err := store.AddToCart(r.Context(), h.db, store.AddToCartParams{
		UserID:    mw.GetUserID(r.Context()),
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondDataMessage(w, http.StatusOK, item, "Item added to cart")
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := store.UpdateCartItem(r.Context(), h.db,
		mw.GetUserID(r.Context()), chi.URLParam(r, "itemId"), req.Quantity)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondDataMessage(w, http.StatusOK, item, "Cart item updated")
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	err := store.RemoveFromCart(r.Context(), h.db,
		mw.GetUserID(r.Context()), chi.URLParam(r, "itemId"))
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondMessage(w, http.StatusOK, "Item removed from cart")
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := store.ClearCart(r.Context(), h.db, mw.GetUserID(r.Context())); err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondMessage(w, http.StatusOK, "Cart cleared")
}
