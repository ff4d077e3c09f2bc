package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Neetrino/clean-house/internal/store"
)

func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	since := store.PeriodStart(r.URL.Query().Get("period"), time.Now())

	stats, err := store.DashboardStats(r.Context(), h.db, since)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, stats)
}

func (h *Handlers) RecentOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	orders, err := store.RecentOrders(r.Context(), h.db, q.Get("status"), limit)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, orders)
}

func (h *Handlers) TopProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	since := store.PeriodStart(q.Get("period"), time.Now())

	products, err := store.TopProducts(r.Context(), h.db, since, limit)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, products)
}

func (h *Handlers) SalesReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	since := store.PeriodStart(q.Get("period"), time.Now())

	report, err := store.SalesReport(r.Context(), h.db, since, q.Get("groupBy"))
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, report)
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	users, err := store.ListUsers(r.Context(), h.db, page, limit)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondPage(w, users)
}
