package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pieces-auto/paygate/db/sqlc"
	"github.com/pieces-auto/paygate/domain"
)

// The IPN endpoints receive the banks' asynchronous payment notifications.
// Whatever the gate decides, they acknowledge with 200: the banks retry
// undelivered acknowledgements aggressively, and a rejected callback must
// stop retrying just like an accepted one. The decision only governs
// whether the order-paid transition is applied.

// HandlePayboxIPN POST /ipn/paybox
func (api *API) HandlePayboxIPN(w http.ResponseWriter, r *http.Request) {
	api.handleIPN(w, r, domain.GatewayPaybox)
}

// HandleSystemPayIPN POST /ipn/systempay
func (api *API) HandleSystemPayIPN(w http.ResponseWriter, r *http.Request) {
	api.handleIPN(w, r, domain.GatewaySystemPay)
}

func (api *API) handleIPN(w http.ResponseWriter, r *http.Request, family domain.GatewayFamily) {
	ctx := r.Context()

	// Gateways deliver over POST bodies or query strings depending on
	// integration generation; an empty body falls back to the query.
	rawBody := ""
	if b, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)); err == nil {
		rawBody = string(b)
	}
	if rawBody == "" {
		rawBody = r.URL.RawQuery
	}

	decision := api.gate.Validate(ctx, family, rawBody)
	api.audit.Record(ctx, decision)

	if decision.Accept {
		ref := decision.Report.CanonicalRef
		if err := api.orders.MarkOrderPaid(ctx, ref); err != nil {
			slog.ErrorContext(ctx, "mark order paid failed",
				slog.String("correlation_id", decision.Report.CorrelationID),
				slog.String("canonical_ref", ref),
				slog.String("error", err.Error()))
		} else if err := api.db.UpdatePaymentStatusByOrderID(ctx, sqlc.UpdatePaymentStatusByOrderIDParams{
			Status:   domain.PaymentStatusSucceeded.String(),
			AuthCode: pgtype.Text{String: decision.Report.AuthCode, Valid: decision.Report.AuthCode != ""},
			OrderID:  ref,
		}); err != nil {
			slog.ErrorContext(ctx, "payment status update failed",
				slog.String("correlation_id", decision.Report.CorrelationID),
				slog.String("canonical_ref", ref),
				slog.String("error", err.Error()))
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
