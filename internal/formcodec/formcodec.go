// Package formcodec decodes form-urlencoded notification bodies while
// preserving receipt order. One historical signing convention signs values
// in the exact order they arrived, so the usual map-based parser cannot be
// used here.
package formcodec

import (
	"net/url"
	"strings"
)

// Pair is one decoded key/value in receipt order.
type Pair struct {
	Key   string
	Value string
}

// Decode parses a raw form-encoded string into its pairs, in the exact
// order they were received. A literal '+' is a space under form encoding
// and is translated before percent-decoding. A segment with no '=' yields
// an empty-string value. Undecodable segments keep their raw bytes rather
// than being dropped, so a partially garbled body still fails validation
// downstream instead of silently shrinking.
func Decode(raw string) []Pair {
	if raw == "" {
		return nil
	}
	segments := strings.Split(raw, "&")
	pairs := make([]Pair, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		key, value, _ := strings.Cut(seg, "=")
		pairs = append(pairs, Pair{Key: unescape(key), Value: unescape(value)})
	}
	return pairs
}

// ToMap collapses decoded pairs into a last-wins lookup map for field
// normalization. The ordered slice stays authoritative for signing.
func ToMap(pairs []Pair) map[string]string {
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		m[p.Key] = p.Value
	}
	return m
}

func unescape(s string) string {
	// QueryUnescape already maps '+' to space; spelled out here because the
	// space handling is a contract of this package, not an accident of the
	// helper chosen.
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return strings.ReplaceAll(s, "+", " ")
	}
	return decoded
}
