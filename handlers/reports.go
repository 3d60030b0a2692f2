package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pieces-auto/paygate/internal/audit"
)

// HandleListReports GET /api/v1/reports?limit=50
//
// Serves the most recent validation reports from the forensic journal so an
// operator can inspect what the gate decided (and, in shadow mode, what it
// would have decided) without touching the money store.
func (api *API) HandleListReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeAPIError(w, http.StatusBadRequest, "invalid-limit", "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	entries, err := api.journal.Recent(ctx, limit)
	if err != nil {
		slog.ErrorContext(ctx, "list reports failed", slog.String("error", err.Error()))
		writeAPIError(w, http.StatusInternalServerError, "internal-error", "Failed to read audit journal")
		return
	}
	if entries == nil {
		entries = []audit.JournalEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reports": entries,
		"total":   len(entries),
	})
}
