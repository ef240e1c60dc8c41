// Package token extracts claims from the opaque tokens the backend issues.
//
// The backend's token format is not fixed. Decode splits the token on "."
// and runs an ordered list of strategies over the segments: raw JSON objects
// first, then URL-safe base64 encoded JSON. The first payload carrying the
// sub, iat and exp claims wins. Signatures are not verified; the backend
// remains the authority and every request it receives carries the token.
package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Delimiter separates token segments.
const Delimiter = "."

// Strategy inspects the token segments and returns the first valid payload.
type Strategy func(segments []string) (Claims, bool)

// DefaultStrategies are tried in order by Decode.
var DefaultStrategies = []Strategy{DirectJSON, Base64JSON}

// Decode returns the claims carried by tok. It never panics; any token no
// strategy understands yields false.
func Decode(tok string) (Claims, bool) {
	return DecodeWith(tok, DefaultStrategies...)
}

// DecodeWith runs the given strategies in order.
func DecodeWith(tok string, strategies ...Strategy) (claims Claims, ok bool) {
	defer func() {
		if recover() != nil {
			claims, ok = nil, false
		}
	}()

	if tok == "" {
		return nil, false
	}

	segments := strings.Split(tok, Delimiter)
	for _, strategy := range strategies {
		if c, found := strategy(segments); found {
			return c, true
		}
	}
	return nil, false
}

// DirectJSON accepts segments that are literally a JSON object.
func DirectJSON(segments []string) (Claims, bool) {
	for _, seg := range segments {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		if c, ok := parseObject([]byte(seg)); ok && c.Valid() {
			return c, true
		}
	}
	return nil, false
}

// Base64JSON accepts segments holding base64 encoded JSON objects. Both the
// URL-safe and the standard alphabet are understood, with or without padding.
func Base64JSON(segments []string) (Claims, bool) {
	for _, seg := range segments {
		if strings.ContainsAny(seg, "{}") {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(toStdBase64(seg))
		if err != nil {
			continue
		}
		if c, ok := parseObject(raw); ok && c.Valid() {
			return c, true
		}
	}
	return nil, false
}

func toStdBase64(seg string) string {
	s := strings.NewReplacer("-", "+", "_", "/").Replace(seg)
	if pad := len(s) % 4; pad != 0 {
		s += strings.Repeat("=", 4-pad)
	}
	return s
}

func parseObject(data []byte) (Claims, bool) {
	var c Claims
	if err := json.Unmarshal(data, &c); err != nil || c == nil {
		return nil, false
	}
	return c, true
}
