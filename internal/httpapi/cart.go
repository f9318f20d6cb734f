package httpapi

import (
	"net/http"

	"github.com/safar/go-shop/internal/models"
	"github.com/safar/go-shop/internal/service"
	"github.com/safar/go-shop/internal/store"
)

type cartLineRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  *int  `json:"quantity"`
}

type cartBody struct {
	Items []models.CartLine `json:"items"`
}

func cartResponse(message string, lines []models.CartLine) map[string]any {
	if lines == nil {
		lines = []models.CartLine{}
	}
	return map[string]any{"message": message, "cart": cartBody{Items: lines}}
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.cart.View(r.Context(), identity(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"cart":  map[string]any{"items": view.Items},
		"total": view.Total.StringFixed(2),
	})
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req cartLineRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	quantity := 0
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	lines, err := h.cart.Add(r.Context(), identity(r).UserID, req.ProductID, quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse("Product added to cart", lines))
}

func (h *Handler) updateCart(w http.ResponseWriter, r *http.Request) {
	var req cartLineRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.ProductID <= 0 || req.Quantity == nil {
		h.fail(w, r, &service.ValidationError{Message: "product ID and quantity are required"})
		return
	}

	lines, err := h.cart.Update(r.Context(), identity(r).UserID, req.ProductID, *req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	message := "Cart updated"
	if *req.Quantity == 0 {
		message = "Product removed from cart"
	}
	respondJSON(w, http.StatusOK, cartResponse(message, lines))
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(r, "productId")
	if !ok {
		h.fail(w, r, store.ErrCartLineNotFound)
		return
	}

	lines, err := h.cart.Remove(r.Context(), identity(r).UserID, productID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse("Product removed from cart", lines))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	lines, err := h.cart.Clear(r.Context(), identity(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse("Cart cleared", lines))
}
