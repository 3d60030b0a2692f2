package gate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pieces-auto/paygate/domain"
	"github.com/pieces-auto/paygate/internal/ledger"
	"github.com/pieces-auto/paygate/internal/signature"
)

const testKeyHex = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef" +
	"0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type fakeLedger struct {
	orders map[string]domain.OrderSnapshot
	err    error
}

func (f *fakeLedger) LookupOrder(ctx context.Context, ref string) (domain.OrderSnapshot, error) {
	if f.err != nil {
		return domain.OrderSnapshot{}, fmt.Errorf("%w: %v", ledger.ErrOrderNotFound, f.err)
	}
	o, ok := f.orders[ref]
	if !ok {
		return domain.OrderSnapshot{}, ledger.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeLedger) MarkOrderPaid(ctx context.Context, ref string) error {
	return nil
}

func newGate(t *testing.T, mode domain.EnforcementMode, fl *fakeLedger) *Gate {
	t.Helper()
	signer, err := signature.NewPayboxSigner(testKeyHex)
	if err != nil {
		t.Fatalf("NewPayboxSigner: %v", err)
	}
	return New(Config{
		Mode:                 mode,
		PayboxSigner:         signer,
		PayboxIdentity:       domain.MerchantIdentity{SiteID: "1999888", RankID: "32", LoginID: "PIECESAUTO1"},
		PayboxSuccessCode:    "00000",
		SystemPaySigner:      signature.NewSystemPaySigner("certif123", "", domain.SignatureMethodSHA1),
		SystemPaySiteID:      "12345678",
		SystemPaySuccessCode: "00",
	}, fl, nil)
}

func signAlphabetical(t *testing.T, message string) string {
	t.Helper()
	signer, err := signature.NewPayboxSigner(testKeyHex)
	if err != nil {
		t.Fatalf("NewPayboxSigner: %v", err)
	}
	return signer.Sign(message)
}

func unpaidOrder(ref, amount string) *fakeLedger {
	return &fakeLedger{orders: map[string]domain.OrderSnapshot{
		ref: {Reference: ref, AmountDue: amount, IsPaid: false},
	}}
}

// The documented end-to-end scenario: 128-hex-char secret, legacy Paybox
// fields, alphabetical HMAC-SHA512 over Erreur=00000&Mt=10050&Ref=ORD-123,
// stored amount 100.50, order unpaid.
func TestValidate_SignedSuccessScenario(t *testing.T) {
	g := newGate(t, domain.ModeStrict, unpaidOrder("ORD-123", "100.50"))
	sig := signAlphabetical(t, "Erreur=00000&Mt=10050&Ref=ORD-123")
	body := "Mt=10050&Ref=ORD-123&Erreur=00000&Signature=" + sig

	d := g.Validate(context.Background(), domain.GatewayPaybox, body)
	if !d.Accept || d.Reject || d.IsIdempotentReplay {
		t.Fatalf("expected accept, got %+v", d)
	}
	if !d.Report.Signature.Matched || d.Report.Signature.MatchedStrategy != "alphabetical" {
		t.Fatalf("unexpected signature result: %+v", d.Report.Signature)
	}
	if !d.Report.AllCriticalChecksOK {
		t.Fatalf("expected all critical checks ok: %+v", d.Report)
	}
}

func TestValidate_AbsentSignatureAccepted(t *testing.T) {
	g := newGate(t, domain.ModeStrict, unpaidOrder("ORD-123", "100.50"))
	d := g.Validate(context.Background(), domain.GatewayPaybox, "Mt=10050&Ref=ORD-123&Erreur=00000")
	if !d.Accept || d.Reject {
		t.Fatalf("absent signature alone must not reject, got %+v", d)
	}
	if d.Report.Signature.Present {
		t.Fatalf("expected signature present=false: %+v", d.Report.Signature)
	}
}

func TestValidate_InvalidSignatureRejectedInStrict(t *testing.T) {
	body := "Mt=10050&Ref=ORD-123&Erreur=00000&Signature=DEADBEEF"

	strict := newGate(t, domain.ModeStrict, unpaidOrder("ORD-123", "100.50"))
	d := strict.Validate(context.Background(), domain.GatewayPaybox, body)
	if !d.Reject || d.Accept {
		t.Fatalf("present-but-wrong signature must reject in strict, got %+v", d)
	}
	if !d.Report.Signature.Present || d.Report.Signature.Matched {
		t.Fatalf("unexpected signature result: %+v", d.Report.Signature)
	}
}

// Shadow mode computes the identical report but never rejects, and still
// accepts on the pre-signature criteria.
func TestValidate_ShadowNeverRejects(t *testing.T) {
	body := "Mt=10050&Ref=ORD-123&Erreur=00000&Signature=DEADBEEF"

	strict := newGate(t, domain.ModeStrict, unpaidOrder("ORD-123", "100.50"))
	shadow := newGate(t, domain.ModeShadow, unpaidOrder("ORD-123", "100.50"))

	ds := strict.Validate(context.Background(), domain.GatewayPaybox, body)
	dh := shadow.Validate(context.Background(), domain.GatewayPaybox, body)

	if !ds.Reject {
		t.Fatalf("strict should reject: %+v", ds)
	}
	if dh.Reject {
		t.Fatalf("shadow must never reject: %+v", dh)
	}
	if ds.Report.AllCriticalChecksOK != dh.Report.AllCriticalChecksOK {
		t.Fatalf("report aggregate must be mode-independent: strict=%v shadow=%v",
			ds.Report.AllCriticalChecksOK, dh.Report.AllCriticalChecksOK)
	}
}

func TestValidate_IdempotentReplayNeverRejected(t *testing.T) {
	fl := &fakeLedger{orders: map[string]domain.OrderSnapshot{
		"ORD-123": {Reference: "ORD-123", AmountDue: "100.50", IsPaid: true},
	}}
	g := newGate(t, domain.ModeStrict, fl)

	// Even with a garbage signature, a replay for a settled order is a
	// no-op, not an attack.
	d := g.Validate(context.Background(), domain.GatewayPaybox, "Mt=10050&Ref=ORD-123&Erreur=00000&Signature=DEADBEEF")
	if !d.IsIdempotentReplay {
		t.Fatalf("expected idempotent replay, got %+v", d)
	}
	if d.Reject || d.Accept {
		t.Fatalf("replay must be a no-op, got %+v", d)
	}
}

func TestValidate_AmountMismatch(t *testing.T) {
	g := newGate(t, domain.ModeStrict, unpaidOrder("ORD-123", "100.50"))
	d := g.Validate(context.Background(), domain.GatewayPaybox, "Mt=5000&Ref=ORD-123&Erreur=00000")
	if d.Report.AmountMatch.OK {
		t.Fatalf("expected amount mismatch: %+v", d.Report.AmountMatch)
	}
	if !d.Reject {
		t.Fatalf("expected strict reject on amount mismatch, got %+v", d)
	}
}

func TestValidate_ZeroStoredAmountFails(t *testing.T) {
	g := newGate(t, domain.ModeStrict, unpaidOrder("ORD-123", "0"))
	d := g.Validate(context.Background(), domain.GatewayPaybox, "Mt=0&Ref=ORD-123&Erreur=00000")
	if d.Report.AmountMatch.OK {
		t.Fatalf("zero stored amount must fail the amount check")
	}
	if d.Report.AmountMatch.Detail != "stored amount is zero" {
		t.Fatalf("zero amount must be distinct from mismatch, got %q", d.Report.AmountMatch.Detail)
	}
}

// A correctly signed callback with a spoofed site ID is still rejected.
func TestValidate_MerchantIdentitySpoofingBlocked(t *testing.T) {
	g := newGate(t, domain.ModeStrict, unpaidOrder("ORD-123", "100.50"))
	// Signature over the receipt-order message, spoofed site included.
	sig := signAlphabetical(t, "Mt=10050&Ref=ORD-123&Erreur=00000&PBX_SITE=7777777")
	body := "Mt=10050&Ref=ORD-123&Erreur=00000&PBX_SITE=7777777&Signature=" + sig

	d := g.Validate(context.Background(), domain.GatewayPaybox, body)
	if !d.Report.Signature.Matched {
		t.Fatalf("precondition: signature should verify, got %+v", d.Report.Signature)
	}
	if d.Report.MerchantIdentity.OK {
		t.Fatalf("expected identity mismatch")
	}
	if !d.Reject {
		t.Fatalf("expected strict reject, got %+v", d)
	}
}

func TestValidate_IdentityAbsentFieldsIgnored(t *testing.T) {
	g := newGate(t, domain.ModeStrict, unpaidOrder("ORD-123", "100.50"))
	d := g.Validate(context.Background(), domain.GatewayPaybox, "Mt=10050&Ref=ORD-123&Erreur=00000")
	if !d.Report.MerchantIdentity.OK {
		t.Fatalf("absent identity fields must not fail the check: %+v", d.Report.MerchantIdentity)
	}
}

func TestValidate_UnknownOrderRejected(t *testing.T) {
	g := newGate(t, domain.ModeStrict, &fakeLedger{orders: map[string]domain.OrderSnapshot{}})
	d := g.Validate(context.Background(), domain.GatewayPaybox, "Mt=10050&Ref=ORD-999&Erreur=00000")
	if d.Report.OrderExists.OK {
		t.Fatalf("unknown order must fail existence check")
	}
	if !d.Reject {
		t.Fatalf("expected strict reject, got %+v", d)
	}
}

// A ledger that cannot be reached reports like an unknown order: cannot
// verify means cannot trust.
func TestValidate_LedgerFailureFailsClosed(t *testing.T) {
	g := newGate(t, domain.ModeStrict, &fakeLedger{err: errors.New("connection refused")})
	d := g.Validate(context.Background(), domain.GatewayPaybox, "Mt=10050&Ref=ORD-123&Erreur=00000")
	if d.Report.OrderExists.OK || d.Accept {
		t.Fatalf("ledger failure must fail closed, got %+v", d)
	}
}

func TestValidate_ProviderErrorCodeRecorded(t *testing.T) {
	g := newGate(t, domain.ModeStrict, unpaidOrder("ORD-123", "100.50"))
	d := g.Validate(context.Background(), domain.GatewayPaybox, "Mt=10050&Ref=ORD-123&Erreur=00114")
	if d.Report.ProviderCode.OK {
		t.Fatalf("non-success provider code must fail the check")
	}
	if d.Report.ProviderCode.Detail != "provider code 00114" {
		t.Fatalf("offending code must be recorded, got %q", d.Report.ProviderCode.Detail)
	}
}

func TestValidate_CompositeReferenceNormalized(t *testing.T) {
	g := newGate(t, domain.ModeStrict, unpaidOrder("1699999999", "100.50"))
	d := g.Validate(context.Background(), domain.GatewayPaybox, "Mt=10050&Ref=CMD-1699999999-42&Erreur=00000")
	if d.Report.CanonicalRef != "1699999999" {
		t.Fatalf("expected canonical ref 1699999999, got %q", d.Report.CanonicalRef)
	}
	if !d.Accept {
		t.Fatalf("expected accept after normalization, got %+v", d)
	}
}

func TestValidate_GarbageInputNeverPanics(t *testing.T) {
	g := newGate(t, domain.ModeStrict, &fakeLedger{orders: map[string]domain.OrderSnapshot{}})
	for _, body := range []string{"", "&&&", "%%%", "a", "====", "Signature=x"} {
		d := g.Validate(context.Background(), domain.GatewayPaybox, body)
		if d.Accept {
			t.Fatalf("garbage input %q must not be accepted", body)
		}
		if d.Report.CorrelationID == "" {
			t.Fatalf("every decision carries a correlation ID")
		}
	}
}

// Two validations of the same input agree on every check outcome.
func TestValidate_DeterministicAcrossRuns(t *testing.T) {
	g := newGate(t, domain.ModeStrict, unpaidOrder("ORD-123", "100.50"))
	body := "Mt=10050&Ref=ORD-123&Erreur=00000"

	a := g.Validate(context.Background(), domain.GatewayPaybox, body)
	b := g.Validate(context.Background(), domain.GatewayPaybox, body)

	if a.Accept != b.Accept || a.Reject != b.Reject ||
		a.Report.AllCriticalChecksOK != b.Report.AllCriticalChecksOK ||
		a.Report.AmountMatch != b.Report.AmountMatch ||
		a.Report.Signature.Matched != b.Report.Signature.Matched {
		t.Fatalf("validation not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestValidate_SystemPayFamily(t *testing.T) {
	signer := signature.NewSystemPaySigner("certif123", "", domain.SignatureMethodSHA1)
	params := map[string]string{
		"vads_amount":   "10050",
		"vads_order_id": "123",
		"vads_result":   "00",
		"vads_site_id":  "12345678",
	}
	sig, err := signer.Sign(params)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	g := newGate(t, domain.ModeStrict, unpaidOrder("123", "100.50"))
	body := "vads_amount=10050&vads_order_id=123&vads_result=00&vads_site_id=12345678&signature=" + sig
	d := g.Validate(context.Background(), domain.GatewaySystemPay, body)
	if !d.Accept {
		t.Fatalf("expected accept, got %+v", d)
	}
	if d.Report.Signature.MatchedStrategy != "sha1-certificate" {
		t.Fatalf("unexpected strategy: %+v", d.Report.Signature)
	}
}
