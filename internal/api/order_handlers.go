package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	mw "github.com/Neetrino/clean-house/internal/api/middleware"
	"github.com/Neetrino/clean-house/internal/models"
	"github.com/Neetrino/clean-house/internal/store"
	"github.com/go-chi/chi/v5"
)

type createOrderRequest struct {
	ShippingAddressID string `json:"shippingAddressId"`
	BillingAddressID  string `json:"billingAddressId"`
	PaymentMethod     string `json:"paymentMethod"`
	Notes             string `json:"notes"`
}

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fieldErrors := map[string]string{}
	if req.ShippingAddressID == "" {
		fieldErrors["shippingAddressId"] = "shippingAddressId is required"
	}
	if req.BillingAddressID == "" {
		fieldErrors["billingAddressId"] = "billingAddressId is required"
	}
	if req.PaymentMethod == "" {
		fieldErrors["paymentMethod"] = "paymentMethod is required"
	}
	if len(fieldErrors) > 0 {
		respondValidation(w, fieldErrors)
		return
	}

	order, err := store.CreateOrder(r.Context(), h.db, store.CreateOrderParams{
		UserID:            mw.GetUserID(r.Context()),
		ShippingAddressID: req.ShippingAddressID,
		BillingAddressID:  req.BillingAddressID,
		PaymentMethod:     req.PaymentMethod,
		Notes:             req.Notes,
	})
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondDataMessage(w, http.StatusCreated, order, "Order created successfully")
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := store.ListOrdersParams{Status: q.Get("status")}
	params.Page, _ = strconv.Atoi(q.Get("page"))
	params.Limit, _ = strconv.Atoi(q.Get("limit"))

	page, err := store.ListOrders(r.Context(), h.db, mw.GetUserID(r.Context()), params)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondPage(w, page)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := store.GetOrder(r.Context(), h.db,
		mw.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, order)
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := store.CancelOrder(r.Context(), h.db,
		mw.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondDataMessage(w, http.StatusOK, order, "Order cancelled successfully")
}

type updateOrderStatusRequest struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"paymentStatus"`
}

func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fieldErrors := map[string]string{}
	if req.Status != nil && !models.ValidOrderStatus(*req.Status) {
		fieldErrors["status"] = "invalid order status"
	}
	if req.PaymentStatus != nil && !models.ValidPaymentStatus(*req.PaymentStatus) {
		fieldErrors["paymentStatus"] = "invalid payment status"
	}
	if req.Status == nil && req.PaymentStatus == nil {
		fieldErrors["status"] = "status or paymentStatus is required"
	}
	if len(fieldErrors) > 0 {
		respondValidation(w, fieldErrors)
		return
	}

	order, err := store.UpdateOrderStatus(r.Context(), h.db,
		chi.URLParam(r, "id"), req.Status, req.PaymentStatus)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondDataMessage(w, http.StatusOK, order, "Order status updated")
}
