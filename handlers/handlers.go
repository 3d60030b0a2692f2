package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pieces-auto/paygate/db/sqlc"
	"github.com/pieces-auto/paygate/internal/audit"
	"github.com/pieces-auto/paygate/internal/config"
	"github.com/pieces-auto/paygate/internal/gate"
	"github.com/pieces-auto/paygate/internal/ledger"
)

type API struct {
	cfg     *config.Config
	db      sqlc.Querier
	orders  ledger.OrderLedger
	gate    *gate.Gate
	audit   *audit.Logger
	journal *audit.Journal
}

func NewAPI(cfg *config.Config, db sqlc.Querier, orders ledger.OrderLedger, g *gate.Gate, auditLog *audit.Logger, journal *audit.Journal) *API {
	return &API{
		cfg:     cfg,
		db:      db,
		orders:  orders,
		gate:    g,
		audit:   auditLog,
		journal: journal,
	}
}

// APIError represents a standard error response for API endpoints.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIError{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
