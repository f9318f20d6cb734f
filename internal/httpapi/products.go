package httpapi

import (
	"net/http"

	"github.com/safar/go-shop/internal/models"
	"github.com/safar/go-shop/internal/store"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, store.ErrProductNotFound)
		return
	}

	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req models.ProductPatch
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	product, err := h.catalog.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "Product created successfully",
		"product": product,
	})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, store.ErrProductNotFound)
		return
	}

	var req models.ProductPatch
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	product, err := h.catalog.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Product updated successfully",
		"product": product,
	})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, store.ErrProductNotFound)
		return
	}

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}
