package signature

import (
	"crypto/subtle"
	"sort"
	"strings"

	"github.com/pieces-auto/paygate/domain"
	"github.com/pieces-auto/paygate/internal/formcodec"
)

// strategy is one named candidate-signature computation. Strategies are
// tried in a fixed order; the verifier reports the first match and every
// name attempted, so audit logs show exactly which historical convention a
// caller still signs with.
type strategy struct {
	name    string
	compute func() (string, error)
}

// equalConstantTime compares a candidate digest against the received
// signature without leaking timing. Both sides are uppercased first; a
// length mismatch can never match and is rejected before the byte
// comparison, which only ever runs on equal-length buffers.
func equalConstantTime(candidate, received string) bool {
	a := []byte(strings.ToUpper(candidate))
	b := []byte(strings.ToUpper(received))
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

func runStrategies(strategies []strategy, received string) domain.SignatureCheckResult {
	result := domain.SignatureCheckResult{Present: true}
	var lastErr string
	for _, st := range strategies {
		result.TriedStrategies = append(result.TriedStrategies, st.name)
		candidate, err := st.compute()
		if err != nil {
			lastErr = st.name + ": " + err.Error()
			continue
		}
		if equalConstantTime(candidate, received) {
			result.Matched = true
			result.MatchedStrategy = st.name
			return result
		}
	}
	if lastErr != "" {
		result.FailureReason = lastErr
	} else {
		result.FailureReason = "no strategy matched"
	}
	return result
}

// VerifyPaybox checks a received Paybox-family signature against every
// historically valid construction of the signed message:
//
//  1. receipt order — the parameters exactly as they arrived on the wire,
//     signature-bearing keys excluded;
//  2. alphabetical order over the same keys;
//  3. the frozen canonical field list, when at least one of its fields is
//     present in the callback.
func VerifyPaybox(signer *PayboxSigner, pairs []formcodec.Pair, params map[string]string, received string) domain.SignatureCheckResult {
	if received == "" {
		return domain.SignatureCheckResult{Present: false}
	}

	excluded := make(map[string]bool)
	for _, k := range domain.SignatureFieldNames(domain.GatewayPaybox) {
		excluded[k] = true
	}

	signable := make([]formcodec.Pair, 0, len(pairs))
	for _, p := range pairs {
		if !excluded[p.Key] {
			signable = append(signable, p)
		}
	}

	strategies := []strategy{
		{
			name: "receipt-order",
			compute: func() (string, error) {
				return signer.Sign(BuildMessage(signable)), nil
			},
		},
		{
			name: "alphabetical",
			compute: func() (string, error) {
				sorted := make([]formcodec.Pair, len(signable))
				copy(sorted, signable)
				sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
				return signer.Sign(BuildMessage(sorted)), nil
			},
		},
	}

	canonical := make([]formcodec.Pair, 0, len(PayboxOrderedFields))
	for _, k := range PayboxOrderedFields {
		if v, ok := params[k]; ok {
			canonical = append(canonical, formcodec.Pair{Key: k, Value: v})
		}
	}
	if len(canonical) > 0 {
		strategies = append(strategies, strategy{
			name: "canonical-fields",
			compute: func() (string, error) {
				return signer.Sign(BuildMessage(canonical)), nil
			},
		})
	}

	return runStrategies(strategies, received)
}

// VerifySystemPay checks a received SystemPay-family signature against the
// legacy SHA-1 certificate digest and the keyed HMAC-SHA256, in that order.
// Only vads_* keys participate, sorted alphabetically; receipt order is
// irrelevant to this family.
func VerifySystemPay(signer *SystemPaySigner, params map[string]string, received string) domain.SignatureCheckResult {
	if received == "" {
		return domain.SignatureCheckResult{Present: false}
	}
	strategies := []strategy{
		{name: "sha1-certificate", compute: func() (string, error) { return signer.SignSHA1(params) }},
		{name: "hmac-sha256", compute: func() (string, error) { return signer.SignHMACSHA256(params) }},
	}
	return runStrategies(strategies, received)
}
