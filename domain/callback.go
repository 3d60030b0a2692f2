package domain

import "strconv"

// MerchantIdentity holds the account identifiers a legitimate callback from
// this merchant account is expected to echo back when it carries them at
// all. Absence of a field in a callback is not a mismatch; presence with a
// wrong value is.
type MerchantIdentity struct {
	SiteID  string
	RankID  string
	LoginID string
}

// CallbackParameters is the normalized view of one inbound notification,
// derived once from the decoded body and never mutated afterwards.
type CallbackParameters struct {
	OrderReference string
	// AmountMinor is the callback amount in minor currency units (cents).
	AmountMinor      int64
	AmountPresent    bool
	ResultCode       string
	AuthCode         string
	Signature        string
	SignaturePresent bool

	// Merchant identity fields as echoed by the gateway, empty when omitted.
	SiteID  string
	RankID  string
	LoginID string
}

// Field alias tables. Gateways renamed the same concepts across integration
// generations; normalization resolves every legacy spelling to one canonical
// field before validation. First present alias wins.
var (
	payboxAmountAliases    = []string{"PBX_TOTAL", "Mt", "montant", "amount"}
	payboxOrderRefAliases  = []string{"PBX_CMD", "Ref", "ref", "cmd"}
	payboxResultAliases    = []string{"Erreur", "erreur", "error"}
	payboxAuthAliases      = []string{"Auto", "autorisation", "PBX_AUTO"}
	payboxSiteAliases      = []string{"PBX_SITE", "site"}
	payboxRankAliases      = []string{"PBX_RANG", "rang"}
	payboxLoginAliases     = []string{"PBX_IDENTIFIANT", "identifiant"}
	payboxSignatureAliases = []string{"Signature", "K", "PBX_HMAC"}

	systemPayAmountAliases    = []string{"vads_amount"}
	systemPayOrderRefAliases  = []string{"vads_order_id"}
	systemPayResultAliases    = []string{"vads_result"}
	systemPayAuthAliases      = []string{"vads_auth_number"}
	systemPaySiteAliases      = []string{"vads_site_id"}
	systemPaySignatureAliases = []string{"signature"}
)

// SignatureFieldNames returns the keys that may carry the received
// signature for a gateway family. These keys never participate in signing.
func SignatureFieldNames(family GatewayFamily) []string {
	if family == GatewaySystemPay {
		return systemPaySignatureAliases
	}
	return payboxSignatureAliases
}

func firstPresent(params map[string]string, aliases []string) (string, bool) {
	for _, k := range aliases {
		if v, ok := params[k]; ok {
			return v, true
		}
	}
	return "", false
}

// NormalizeCallback resolves the gateway-specific and legacy field names of
// a decoded notification into CallbackParameters. Unparseable amounts leave
// AmountPresent false so the amount check fails rather than comparing zero.
func NormalizeCallback(family GatewayFamily, params map[string]string) CallbackParameters {
	var p CallbackParameters

	amountAliases := payboxAmountAliases
	orderAliases := payboxOrderRefAliases
	resultAliases := payboxResultAliases
	authAliases := payboxAuthAliases
	siteAliases := payboxSiteAliases
	rankAliases := payboxRankAliases
	loginAliases := payboxLoginAliases
	if family == GatewaySystemPay {
		amountAliases = systemPayAmountAliases
		orderAliases = systemPayOrderRefAliases
		resultAliases = systemPayResultAliases
		authAliases = systemPayAuthAliases
		siteAliases = systemPaySiteAliases
		rankAliases = nil
		loginAliases = nil
	}

	if raw, ok := firstPresent(params, amountAliases); ok {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			p.AmountMinor = n
			p.AmountPresent = true
		}
	}
	p.OrderReference, _ = firstPresent(params, orderAliases)
	p.ResultCode, _ = firstPresent(params, resultAliases)
	p.AuthCode, _ = firstPresent(params, authAliases)
	p.SiteID, _ = firstPresent(params, siteAliases)
	p.RankID, _ = firstPresent(params, rankAliases)
	p.LoginID, _ = firstPresent(params, loginAliases)
	p.Signature, p.SignaturePresent = firstPresent(params, SignatureFieldNames(family))

	return p
}
