// Package signature implements the signing conventions of the supported
// bank gateways and the multi-strategy verification of received callback
// signatures. Everything here is pure CPU work over the decoded parameters;
// no I/O, no state beyond the configured key material.
package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pieces-auto/paygate/domain"
	"github.com/pieces-auto/paygate/internal/formcodec"
)

// ErrNoKeyMaterial is returned when a signer cannot compute anything
// because its secret is missing or malformed. Signing must fail closed:
// a digest derived from empty or garbage key material must never exist,
// let alone validate.
var ErrNoKeyMaterial = errors.New("signature: missing or malformed key material")

// PayboxOrderedFields is the frozen field order the Paybox-family HMAC is
// computed over. It encodes a cryptographic contract with an external
// counterparty and must never be reordered; historical signatures depend on
// this exact sequence.
var PayboxOrderedFields = []string{
	"PBX_SITE",
	"PBX_RANG",
	"PBX_IDENTIFIANT",
	"PBX_TOTAL",
	"PBX_DEVISE",
	"PBX_CMD",
	"PBX_PORTEUR",
	"PBX_RETOUR",
	"PBX_HASH",
	"PBX_TIME",
}

// PayboxSigner computes the Paybox-family HMAC-SHA512. The shared secret is
// hex text representing raw key bytes; it is decoded once at construction.
type PayboxSigner struct {
	key []byte
}

// NewPayboxSigner decodes the hex secret into HMAC key bytes. An empty or
// non-hex secret is a configuration error, reported here so the process can
// refuse to start rather than sign with a broken key per request.
func NewPayboxSigner(hexSecret string) (*PayboxSigner, error) {
	if hexSecret == "" {
		return nil, ErrNoKeyMaterial
	}
	key, err := hex.DecodeString(hexSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoKeyMaterial, err)
	}
	return &PayboxSigner{key: key}, nil
}

// Sign computes the uppercase-hex HMAC-SHA512 of message.
func (s *PayboxSigner) Sign(message string) string {
	mac := hmac.New(sha512.New, s.key)
	mac.Write([]byte(message))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// BuildMessage joins pairs as key=value segments separated by '&', in the
// order given. Values are the decoded bytes; the gateway signs decoded
// content, not the percent-encoded wire form.
func BuildMessage(pairs []formcodec.Pair) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

// SystemPaySigner computes SystemPay-family signatures over the sorted
// vads_* values. The legacy convention appends the certificate to the
// plaintext and takes a single SHA-1; the modern one keys an HMAC-SHA256
// with a dedicated key, falling back to the certificate when none is set.
type SystemPaySigner struct {
	certificate string
	hmacKey     string
	method      domain.SignatureMethod
}

func NewSystemPaySigner(certificate, hmacKey string, method domain.SignatureMethod) *SystemPaySigner {
	return &SystemPaySigner{certificate: certificate, hmacKey: hmacKey, method: method}
}

// vadsPayload concatenates the values of every vads_-prefixed parameter,
// sorted alphabetically by key, joined with '+'. Only vads_* keys
// participate in SystemPay signing.
func vadsPayload(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if strings.HasPrefix(k, "vads_") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = params[k]
	}
	return strings.Join(values, "+")
}

// SignSHA1 computes the legacy single-hash signature: the sorted value
// concatenation with the certificate appended after a final '+'.
func (s *SystemPaySigner) SignSHA1(params map[string]string) (string, error) {
	if s.certificate == "" {
		return "", ErrNoKeyMaterial
	}
	sum := sha1.Sum([]byte(vadsPayload(params) + "+" + s.certificate))
	return strings.ToUpper(hex.EncodeToString(sum[:])), nil
}

// SignHMACSHA256 computes the modern keyed signature over the same payload.
func (s *SystemPaySigner) SignHMACSHA256(params map[string]string) (string, error) {
	key := s.hmacKey
	if key == "" {
		key = s.certificate
	}
	if key == "" {
		return "", ErrNoKeyMaterial
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(vadsPayload(params)))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil))), nil
}

// Sign dispatches on the configured signature method.
func (s *SystemPaySigner) Sign(params map[string]string) (string, error) {
	if s.method == domain.SignatureMethodHMACSHA256 {
		return s.SignHMACSHA256(params)
	}
	return s.SignSHA1(params)
}
