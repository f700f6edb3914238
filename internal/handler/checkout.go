package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/zexario/zexario-backend/internal/domain/order"
	"github.com/zexario/zexario-backend/pkg/respond"
)

// Checkout decodes the submitted order, hands it to the order service and
// reports the outcome. Storage failures are logged and answered with a
// generic message.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := decodeCheckout(w, r)
	if err != nil {
		writeCheckoutError(w, r, err)
		return
	}

	o, err := h.orders.Place(ctx, req)
	if err != nil {
		writeCheckoutError(w, r, err)
		return
	}

	zctx.From(ctx).Info("Order saved",
		zap.String("order_id", o.ID),
		zap.Int("cart_items", len(o.Cart)),
	)
	respond.Message(w, http.StatusOK, msgOrderPlaced)
}

// writeCheckoutError converts decoding and domain errors to responses.
func writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	lg := zctx.From(r.Context())

	if errors.Is(err, errBodyTooLarge) {
		respond.Message(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return
	}

	var bodyErr *BodyError
	if errors.As(err, &bodyErr) {
		lg.Debug("Rejected checkout body", zap.Error(err))
		respond.Message(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if errors.Is(err, order.ErrEmptyCart) {
		respond.Message(w, http.StatusBadRequest, msgCartEmpty)
		return
	}

	lg.Error("Checkout failed", zap.Error(err))
	respond.Message(w, http.StatusInternalServerError, msgServerError)
}
