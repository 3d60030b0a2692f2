// Package ledger is the validation core's view of the authoritative order
// store. The core only ever reads an order's amount and paid flag and asks
// for the idempotent paid transition; everything else about orders belongs
// to the order subsystem.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pieces-auto/paygate/db/sqlc"
	"github.com/pieces-auto/paygate/domain"
)

// ErrOrderNotFound is the typed not-found result. A store that is
// unreachable reports the same way: cannot verify means cannot trust.
var ErrOrderNotFound = errors.New("ledger: order not found")

// OrderLedger is the collaborator interface the gate consumes.
type OrderLedger interface {
	LookupOrder(ctx context.Context, canonicalRef string) (domain.OrderSnapshot, error)
	// MarkOrderPaid is idempotent: the underlying update is conditional on
	// the current paid state, so concurrent accepted callbacks for the same
	// order apply the transition once.
	MarkOrderPaid(ctx context.Context, canonicalRef string) error
}

// NormalizeOrderReference reduces the historical order reference formats to
// the canonical ID the order store expects. A composite
// "PREFIX-<digits>-suffix" reference reduces to its embedded numeric
// segment; a purely numeric reference passes through. Anything else passes
// through unchanged: guessing a format would be worse than letting the
// lookup fail.
func NormalizeOrderReference(raw string) string {
	if raw == "" {
		return raw
	}
	if allDigits(raw) {
		return raw
	}
	parts := strings.Split(raw, "-")
	if len(parts) == 3 && parts[1] != "" && allDigits(parts[1]) {
		return parts[1]
	}
	return raw
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Store implements OrderLedger over the Postgres query layer.
type Store struct {
	q sqlc.Querier
}

func NewStore(q sqlc.Querier) *Store {
	return &Store{q: q}
}

func (s *Store) LookupOrder(ctx context.Context, canonicalRef string) (domain.OrderSnapshot, error) {
	order, err := s.q.GetOrderByID(ctx, canonicalRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.OrderSnapshot{}, ErrOrderNotFound
		}
		// I/O failure collapses to not-found on purpose; the caller fails
		// closed either way, and the distinction is logged where the error
		// surfaced.
		return domain.OrderSnapshot{}, fmt.Errorf("%w: %v", ErrOrderNotFound, err)
	}
	return domain.OrderSnapshot{
		Reference: order.ID,
		AmountDue: order.Amount,
		IsPaid:    order.IsPaid,
	}, nil
}

func (s *Store) MarkOrderPaid(ctx context.Context, canonicalRef string) error {
	_, err := s.q.MarkOrderPaid(ctx, canonicalRef)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	return nil
}
