package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pieces-auto/paygate/db/sqlc"
)

func TestNormalizeOrderReference(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1699999999", "1699999999"},                // pure numeric passes through
		{"CMD-1699999999-42", "1699999999"},         // composite reduces to the numeric segment
		{"WEB-1612345678-abc", "1612345678"},        // suffix need not be numeric
		{"ORD-123", "ORD-123"},                      // two segments: no inference
		{"CMD-abc-42", "CMD-abc-42"},                // non-numeric middle: no inference
		{"CMD-1699999999-42-7", "CMD-1699999999-42-7"}, // four segments: no inference
		{"", ""},
		{"FR12345X", "FR12345X"},
	}
	for _, c := range cases {
		if got := NormalizeOrderReference(c.in); got != c.want {
			t.Fatalf("NormalizeOrderReference(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

type fakeQuerier struct {
	sqlc.Querier
	order    sqlc.Order
	orderErr error
	paidRefs []string
}

func (f *fakeQuerier) GetOrderByID(ctx context.Context, id string) (sqlc.Order, error) {
	if f.orderErr != nil {
		return sqlc.Order{}, f.orderErr
	}
	if f.order.ID != id {
		return sqlc.Order{}, pgx.ErrNoRows
	}
	return f.order, nil
}

func (f *fakeQuerier) MarkOrderPaid(ctx context.Context, id string) (int64, error) {
	f.paidRefs = append(f.paidRefs, id)
	return 1, nil
}

func TestStore_LookupOrder(t *testing.T) {
	st := NewStore(&fakeQuerier{order: sqlc.Order{ID: "42", Amount: "100.50", IsPaid: true}})

	snap, err := st.LookupOrder(context.Background(), "42")
	if err != nil {
		t.Fatalf("LookupOrder: %v", err)
	}
	if snap.AmountDue != "100.50" || !snap.IsPaid || snap.Reference != "42" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestStore_LookupOrder_NotFound(t *testing.T) {
	st := NewStore(&fakeQuerier{order: sqlc.Order{ID: "42"}})
	if _, err := st.LookupOrder(context.Background(), "99"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

// An unreachable store reports not-found too: fail closed.
func TestStore_LookupOrder_IOFailure(t *testing.T) {
	st := NewStore(&fakeQuerier{orderErr: errors.New("connection refused")})
	if _, err := st.LookupOrder(context.Background(), "42"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound wrapping, got %v", err)
	}
}

func TestStore_MarkOrderPaid(t *testing.T) {
	fq := &fakeQuerier{order: sqlc.Order{ID: "42"}}
	st := NewStore(fq)
	if err := st.MarkOrderPaid(context.Background(), "42"); err != nil {
		t.Fatalf("MarkOrderPaid: %v", err)
	}
	if len(fq.paidRefs) != 1 || fq.paidRefs[0] != "42" {
		t.Fatalf("unexpected paid refs: %v", fq.paidRefs)
	}
}
