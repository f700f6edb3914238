package handler

import (
	"net/http"

	"github.com/zexario/zexario-backend/internal/domain/order"
	"github.com/zexario/zexario-backend/pkg/respond"
)

// Response bodies shared with the storefront.
const (
	msgOrderPlaced      = "Order placed successfully"
	msgCartEmpty        = "Cart is empty"
	msgServerError      = "Server error"
	msgInvalidBody      = "Invalid request body"
	msgBodyTooLarge     = "Request body too large"
	msgNotFound         = "Not found"
	msgMethodNotAllowed = "Method not allowed"

	rootBody = "Zexario Backend Running"
)

// Handler serves the checkout API, delegating persistence to the order
// service.
type Handler struct {
	orders *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(orders *order.Service) *Handler {
	return &Handler{orders: orders}
}

// Root confirms the service is running. It never touches storage.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	respond.Text(w, http.StatusOK, rootBody)
}

// NotFound answers unknown routes with a JSON 404.
func (h *Handler) NotFound(w http.ResponseWriter, _ *http.Request) {
	respond.Message(w, http.StatusNotFound, msgNotFound)
}

// MethodNotAllowed answers a known route called with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	respond.Message(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}
