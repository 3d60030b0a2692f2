// Package audit records every validation outcome: structured logs for live
// operations and a local journal for offline forensic replay. Nothing
// sensitive is ever recorded — no secrets, no card data, and the received
// signature only as presence/match booleans and the strategy name.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pieces-auto/paygate/domain"
)

// Journal persists validation reports to the sqlite forensic journal.
type Journal struct {
	db *sql.DB
}

func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// JournalEntry is one archived validation outcome.
type JournalEntry struct {
	ID               int64                   `json:"id"`
	CorrelationID    string                  `json:"correlation_id"`
	Gateway          string                  `json:"gateway"`
	OrderReference   string                  `json:"order_reference"`
	CanonicalRef     string                  `json:"canonical_ref"`
	Decision         string                  `json:"decision"`
	Mode             string                  `json:"mode"`
	AllChecksOK      bool                    `json:"all_checks_ok"`
	IdempotentReplay bool                    `json:"idempotent_replay"`
	Report           domain.ValidationReport `json:"report"`
	CreatedAt        string                  `json:"created_at"`
}

func decisionLabel(d domain.GateDecision) string {
	switch {
	case d.IsIdempotentReplay:
		return "idempotent-no-op"
	case d.Accept:
		return "accept"
	case d.Reject:
		return "reject"
	default:
		return "observe"
	}
}

// Append archives one decision. Journal failures are the caller's to log;
// they must never influence the decision already taken.
func (j *Journal) Append(ctx context.Context, d domain.GateDecision) error {
	reportJSON, err := json.Marshal(d.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO audit_reports
			(correlation_id, gateway, order_reference, canonical_ref, decision, mode, all_checks_ok, idempotent_replay, report_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Report.CorrelationID,
		d.Report.Gateway.String(),
		d.Report.OrderReference,
		d.Report.CanonicalRef,
		decisionLabel(d),
		d.Mode.String(),
		d.Report.AllCriticalChecksOK,
		d.IsIdempotentReplay,
		string(reportJSON),
		d.Report.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert audit report: %w", err)
	}
	return nil
}

// Recent returns the latest limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]JournalEntry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, correlation_id, gateway, order_reference, canonical_ref, decision, mode, all_checks_ok, idempotent_replay, report_json, created_at
		FROM audit_reports
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit reports: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var reportJSON string
		if err := rows.Scan(
			&e.ID,
			&e.CorrelationID,
			&e.Gateway,
			&e.OrderReference,
			&e.CanonicalRef,
			&e.Decision,
			&e.Mode,
			&e.AllChecksOK,
			&e.IdempotentReplay,
			&reportJSON,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit report: %w", err)
		}
		if err := json.Unmarshal([]byte(reportJSON), &e.Report); err != nil {
			return nil, fmt.Errorf("decode archived report %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Logger emits one structured record per decision and mirrors it into the
// journal when one is attached.
type Logger struct {
	log     *slog.Logger
	journal *Journal
}

func NewLogger(log *slog.Logger, journal *Journal) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{log: log, journal: journal}
}

// Record logs the decision and archives it.
func (l *Logger) Record(ctx context.Context, d domain.GateDecision) {
	r := d.Report
	l.log.InfoContext(ctx, "callback validated",
		slog.String("correlation_id", r.CorrelationID),
		slog.String("gateway", r.Gateway.String()),
		slog.String("decision", decisionLabel(d)),
		slog.String("mode", d.Mode.String()),
		slog.String("order_reference", r.OrderReference),
		slog.String("canonical_ref", r.CanonicalRef),
		slog.Bool("signature_present", r.Signature.Present),
		slog.Bool("signature_matched", r.Signature.Matched),
		slog.String("signature_strategy", r.Signature.MatchedStrategy),
		slog.Bool("merchant_identity_ok", r.MerchantIdentity.OK),
		slog.Bool("order_exists", r.OrderExists.OK),
		slog.Bool("amount_match", r.AmountMatch.OK),
		slog.Bool("provider_code_ok", r.ProviderCode.OK),
		slog.Bool("idempotent_replay", d.IsIdempotentReplay),
		slog.Bool("all_critical_checks_ok", r.AllCriticalChecksOK),
	)
	if l.journal != nil {
		if err := l.journal.Append(ctx, d); err != nil {
			l.log.ErrorContext(ctx, "audit journal write failed",
				slog.String("correlation_id", r.CorrelationID),
				slog.String("error", err.Error()))
		}
	}
}
