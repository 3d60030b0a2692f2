package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pieces-auto/paygate/db/sqlc"
	"github.com/pieces-auto/paygate/domain"
	"github.com/pieces-auto/paygate/internal/ledger"
	"github.com/pieces-auto/paygate/internal/money"
	"github.com/segmentio/ksuid"
)

type createPaymentRequest struct {
	OrderReference string `json:"order_reference"`
	AmountMinor    int64  `json:"amount_minor"`
	Gateway        string `json:"gateway"`
}

type createPaymentResponse struct {
	PaymentID      string `json:"payment_id"`
	OrderReference string `json:"order_reference"`
	AmountMinor    int64  `json:"amount_minor"`
	Gateway        string `json:"gateway"`
	Status         string `json:"status"`
}

// HandleCreatePayment POST /api/v1/payments
//
// The amount-integrity guard: before any pending payment record exists and
// before any gateway interaction begins, the amount the client asks to pay
// must equal the amount stored on the order at creation time, compared in
// integer minor units. A mismatch or an already-paid order is a hard
// rejection. This is what stops a client from initiating a payment for
// less than the order actually costs.
func (api *API) HandleCreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "request-validation-error", "Invalid JSON in request body")
		return
	}
	if req.OrderReference == "" {
		writeAPIError(w, http.StatusBadRequest, "request-validation-error", "order_reference is required")
		return
	}
	gateway := domain.GatewayFamily(req.Gateway)
	if gateway != domain.GatewayPaybox && gateway != domain.GatewaySystemPay {
		writeAPIError(w, http.StatusBadRequest, "request-validation-error", "gateway must be 'paybox' or 'systempay'")
		return
	}

	canonicalRef := ledger.NormalizeOrderReference(req.OrderReference)
	order, err := api.orders.LookupOrder(ctx, canonicalRef)
	if err != nil {
		if errors.Is(err, ledger.ErrOrderNotFound) {
			writeAPIError(w, http.StatusNotFound, "order-not-found", "The order was not found")
			return
		}
		slog.ErrorContext(ctx, "order lookup failed", slog.String("error", err.Error()))
		writeAPIError(w, http.StatusInternalServerError, "internal-error", "Failed to look up order")
		return
	}

	if order.IsPaid {
		writeAPIError(w, http.StatusConflict, "order-already-paid", "The order has already been paid")
		return
	}

	storedMinor, err := money.ToMinorUnits(order.AmountDue)
	if err != nil || storedMinor == 0 {
		writeAPIError(w, http.StatusConflict, "order-amount-invalid", "The order has no payable amount")
		return
	}
	if req.AmountMinor != storedMinor {
		writeAPIError(w, http.StatusConflict, "amount-mismatch", "Requested amount does not match the order amount")
		return
	}

	payment, err := api.db.CreatePayment(ctx, sqlc.CreatePaymentParams{
		ID:          ksuid.New().String(),
		OrderID:     canonicalRef,
		AmountMinor: storedMinor,
		Gateway:     gateway.String(),
		Status:      domain.PaymentStatusPending.String(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "create payment failed", slog.String("error", err.Error()))
		writeAPIError(w, http.StatusInternalServerError, "internal-error", "Failed to create payment")
		return
	}

	writeJSON(w, http.StatusCreated, createPaymentResponse{
		PaymentID:      payment.ID,
		OrderReference: payment.OrderID,
		AmountMinor:    payment.AmountMinor,
		Gateway:        payment.Gateway,
		Status:         payment.Status,
	})
}
