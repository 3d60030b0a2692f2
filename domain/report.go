package domain

import "time"

// OrderSnapshot is the read-only projection of the authoritative order
// record the validation core needs: what the order costs and whether it has
// already been settled. Amounts are kept as the decimal string stored at
// order-creation time; conversion to minor units happens at comparison time.
type OrderSnapshot struct {
	Reference string
	// AmountDue is the canonical decimal amount, e.g. "100.50".
	AmountDue string
	IsPaid    bool
}

// SignatureCheckResult distinguishes an absent signature from a present but
// wrong one. Absence is tolerated for older integrations that never signed;
// wrongness never is.
type SignatureCheckResult struct {
	Present         bool     `json:"present"`
	Matched         bool     `json:"matched"`
	MatchedStrategy string   `json:"matched_strategy,omitempty"`
	TriedStrategies []string `json:"tried_strategies,omitempty"`
	FailureReason   string   `json:"failure_reason,omitempty"`
}

// CheckResult is one named sub-check of a validation report.
type CheckResult struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// ValidationReport aggregates every sub-check computed for one inbound
// notification. It is the unit of audit logging and what the gate reduces
// to a decision. All checks are always computed, even when an earlier one
// has already failed, so the audit trail stays complete.
type ValidationReport struct {
	CorrelationID string        `json:"correlation_id"`
	Gateway       GatewayFamily `json:"gateway"`
	Timestamp     time.Time     `json:"timestamp"`

	OrderReference string `json:"order_reference"`
	CanonicalRef   string `json:"canonical_ref"`
	AuthCode       string `json:"auth_code,omitempty"`

	Signature        SignatureCheckResult `json:"signature"`
	MerchantIdentity CheckResult          `json:"merchant_identity"`
	OrderExists      CheckResult          `json:"order_exists"`
	AmountMatch      CheckResult          `json:"amount_match"`
	ProviderCode     CheckResult          `json:"provider_code"`
	// IdempotentReplay is informational: a repeated notification for an
	// already-settled order is never treated as an attack.
	IdempotentReplay CheckResult `json:"idempotent_replay"`

	AllCriticalChecksOK bool `json:"all_critical_checks_ok"`
}

// GateDecision is the gate's verdict for one notification. Reject is only
// ever asserted under strict enforcement; shadow mode computes the same
// report but never blocks.
type GateDecision struct {
	Accept             bool             `json:"accept"`
	Reject             bool             `json:"reject"`
	IsIdempotentReplay bool             `json:"is_idempotent_replay"`
	Mode               EnforcementMode  `json:"mode"`
	Report             ValidationReport `json:"report"`
}
