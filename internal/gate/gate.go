// Package gate decides whether to trust an unauthenticated bank-gateway
// notification. It is a per-request decision pipeline: six independent
// checks, all computed regardless of earlier failures so the audit report
// stays complete, reduced to a single accept/reject/no-op decision under
// the configured enforcement mode.
package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/pieces-auto/paygate/domain"
	"github.com/pieces-auto/paygate/internal/formcodec"
	"github.com/pieces-auto/paygate/internal/ledger"
	"github.com/pieces-auto/paygate/internal/money"
	"github.com/pieces-auto/paygate/internal/replay"
	"github.com/pieces-auto/paygate/internal/signature"
	"github.com/segmentio/ksuid"
)

// Config is the immutable per-process gate configuration.
type Config struct {
	Mode domain.EnforcementMode

	PayboxSigner      *signature.PayboxSigner
	PayboxIdentity    domain.MerchantIdentity
	PayboxSuccessCode string

	SystemPaySigner      *signature.SystemPaySigner
	SystemPaySiteID      string
	SystemPaySuccessCode string
}

type Gate struct {
	cfg    Config
	ledger ledger.OrderLedger
	seen   *replay.Cache
}

// New builds a gate. The replay cache may be nil; it only enriches audit
// detail and never participates in the decision.
func New(cfg Config, ol ledger.OrderLedger, seen *replay.Cache) *Gate {
	return &Gate{cfg: cfg, ledger: ol, seen: seen}
}

// Validate runs the full pipeline on one raw notification body. It never
// returns an error: garbage input degrades to failing sub-checks, and the
// caller always gets a structured decision to act on and log.
func (g *Gate) Validate(ctx context.Context, family domain.GatewayFamily, rawBody string) domain.GateDecision {
	pairs := formcodec.Decode(rawBody)
	params := formcodec.ToMap(pairs)
	cb := domain.NormalizeCallback(family, params)

	report := domain.ValidationReport{
		CorrelationID:  ksuid.New().String(),
		Gateway:        family,
		Timestamp:      time.Now().UTC(),
		OrderReference: cb.OrderReference,
		CanonicalRef:   ledger.NormalizeOrderReference(cb.OrderReference),
		AuthCode:       cb.AuthCode,
	}

	report.Signature = g.checkSignature(family, pairs, params, cb)
	report.MerchantIdentity = g.checkMerchantIdentity(family, cb)

	// The ledger lookup is the only I/O in the pipeline; everything above
	// ran without waiting on it.
	snapshot, lookupErr := g.lookupOrder(ctx, report.CanonicalRef)
	report.OrderExists = checkOrderExists(report.CanonicalRef, lookupErr)
	report.AmountMatch = checkAmountMatch(cb, snapshot, lookupErr == nil)
	report.ProviderCode = g.checkProviderCode(family, cb)
	report.IdempotentReplay = g.checkIdempotency(ctx, family, cb, snapshot, lookupErr == nil)

	signatureOK := !report.Signature.Present || report.Signature.Matched
	report.AllCriticalChecksOK = signatureOK &&
		report.MerchantIdentity.OK &&
		report.OrderExists.OK &&
		report.AmountMatch.OK &&
		report.ProviderCode.OK

	return g.decide(report)
}

// decide applies the enforcement mode.
//
// Strict accepts only when every critical check passed; it rejects a
// non-idempotent callback whose signature is present but invalid, or whose
// identity/order/amount/provider checks failed. An absent signature alone
// never rejects: older integrations never signed at all.
//
// Shadow still computes and logs the full report but enforces only the
// pre-signature acceptance criteria (order exists, amount matches, provider
// reports success), so a new rule can be watched against live traffic
// before it can block real money.
func (g *Gate) decide(report domain.ValidationReport) domain.GateDecision {
	d := domain.GateDecision{Mode: g.cfg.Mode, Report: report}

	if report.IdempotentReplay.OK {
		d.IsIdempotentReplay = true
		return d
	}

	if g.cfg.Mode == domain.ModeStrict {
		d.Accept = report.AllCriticalChecksOK
		d.Reject = !report.AllCriticalChecksOK
		return d
	}

	d.Accept = report.OrderExists.OK && report.AmountMatch.OK && report.ProviderCode.OK
	return d
}

func (g *Gate) checkSignature(family domain.GatewayFamily, pairs []formcodec.Pair, params map[string]string, cb domain.CallbackParameters) domain.SignatureCheckResult {
	if !cb.SignaturePresent || cb.Signature == "" {
		return domain.SignatureCheckResult{Present: false}
	}
	if family == domain.GatewaySystemPay {
		if g.cfg.SystemPaySigner == nil {
			return domain.SignatureCheckResult{Present: true, FailureReason: "no signer configured"}
		}
		return signature.VerifySystemPay(g.cfg.SystemPaySigner, params, cb.Signature)
	}
	if g.cfg.PayboxSigner == nil {
		return domain.SignatureCheckResult{Present: true, FailureReason: "no signer configured"}
	}
	return signature.VerifyPaybox(g.cfg.PayboxSigner, pairs, params, cb.Signature)
}

// checkMerchantIdentity compares every identity field the callback carries
// against configuration. Absent fields do not count against the check;
// a present field with the wrong value is a hard mismatch.
func (g *Gate) checkMerchantIdentity(family domain.GatewayFamily, cb domain.CallbackParameters) domain.CheckResult {
	type fieldCheck struct {
		name     string
		got      string
		expected string
	}
	var fields []fieldCheck
	if family == domain.GatewaySystemPay {
		fields = []fieldCheck{{"site_id", cb.SiteID, g.cfg.SystemPaySiteID}}
	} else {
		fields = []fieldCheck{
			{"site", cb.SiteID, g.cfg.PayboxIdentity.SiteID},
			{"rank", cb.RankID, g.cfg.PayboxIdentity.RankID},
			{"login", cb.LoginID, g.cfg.PayboxIdentity.LoginID},
		}
	}
	for _, f := range fields {
		if f.got == "" || f.expected == "" {
			continue
		}
		if f.got != f.expected {
			return domain.CheckResult{OK: false, Detail: "mismatched " + f.name}
		}
	}
	return domain.CheckResult{OK: true}
}

func (g *Gate) lookupOrder(ctx context.Context, canonicalRef string) (domain.OrderSnapshot, error) {
	if canonicalRef == "" {
		return domain.OrderSnapshot{}, ledger.ErrOrderNotFound
	}
	return g.ledger.LookupOrder(ctx, canonicalRef)
}

func checkOrderExists(canonicalRef string, lookupErr error) domain.CheckResult {
	if canonicalRef == "" {
		return domain.CheckResult{OK: false, Detail: "no order reference"}
	}
	if lookupErr != nil {
		return domain.CheckResult{OK: false, Detail: "order not found"}
	}
	return domain.CheckResult{OK: true}
}

// checkAmountMatch compares integer minor units only. The stored decimal is
// converted with exact string arithmetic; a stored amount of zero is its
// own failure class, distinct from a mismatch, because an order with no
// price cannot legitimately be paid.
func checkAmountMatch(cb domain.CallbackParameters, snapshot domain.OrderSnapshot, orderFound bool) domain.CheckResult {
	if !orderFound {
		return domain.CheckResult{OK: false, Detail: "order unknown"}
	}
	storedMinor, err := money.ToMinorUnits(snapshot.AmountDue)
	if err != nil {
		return domain.CheckResult{OK: false, Detail: "stored amount unparseable"}
	}
	if storedMinor == 0 {
		return domain.CheckResult{OK: false, Detail: "stored amount is zero"}
	}
	if !cb.AmountPresent {
		return domain.CheckResult{OK: false, Detail: "callback amount missing"}
	}
	if cb.AmountMinor != storedMinor {
		return domain.CheckResult{
			OK:     false,
			Detail: fmt.Sprintf("callback %d != stored %d", cb.AmountMinor, storedMinor),
		}
	}
	return domain.CheckResult{OK: true}
}

func (g *Gate) checkProviderCode(family domain.GatewayFamily, cb domain.CallbackParameters) domain.CheckResult {
	success := g.cfg.PayboxSuccessCode
	if family == domain.GatewaySystemPay {
		success = g.cfg.SystemPaySuccessCode
	}
	if cb.ResultCode != success {
		return domain.CheckResult{OK: false, Detail: "provider code " + cb.ResultCode}
	}
	return domain.CheckResult{OK: true}
}

// checkIdempotency is informational: a repeated notification for an order
// already marked paid must never be punished as fraud. The replay cache
// adds first-seen detail for the audit trail when available.
func (g *Gate) checkIdempotency(ctx context.Context, family domain.GatewayFamily, cb domain.CallbackParameters, snapshot domain.OrderSnapshot, orderFound bool) domain.CheckResult {
	if !orderFound || !snapshot.IsPaid {
		if g.seen != nil {
			g.seen.Observe(ctx, family.String(), cb.AuthCode)
		}
		return domain.CheckResult{OK: false}
	}
	detail := "order already paid"
	if g.seen != nil {
		if before, firstSeen := g.seen.Observe(ctx, family.String(), cb.AuthCode); before && !firstSeen.IsZero() {
			detail = "order already paid; auth code first seen " + firstSeen.Format(time.RFC3339)
		}
	}
	return domain.CheckResult{OK: true, Detail: detail}
}
