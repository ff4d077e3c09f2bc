package api

import (
	"net/http"

	"github.com/Neetrino/clean-house/internal/store"
	"github.com/go-chi/chi/v5"
)

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), h.db)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, categories)
}

func (h *Handlers) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := store.GetCategoryBySlug(r.Context(), h.db, chi.URLParam(r, "slug"))
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, category)
}
