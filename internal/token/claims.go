package token

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is a decoded token payload.
type Claims map[string]any

// Required claim names. A payload is accepted only when all three are truthy.
const (
	ClaimSubject   = "sub"
	ClaimIssuedAt  = "iat"
	ClaimExpiresAt = "exp"
)

// Valid reports whether the subject, issued-at and expiry claims are all set.
func (c Claims) Valid() bool {
	return truthy(c[ClaimSubject]) && truthy(c[ClaimIssuedAt]) && truthy(c[ClaimExpiresAt])
}

// String returns the first non-empty string claim among names.
func (c Claims) String(names ...string) string {
	for _, name := range names {
		if s, ok := c[name].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Subject returns the sub claim. Numeric subjects are formatted in
// decimal.
func (c Claims) Subject() string {
	switch v := c[ClaimSubject].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// ExpiresAt returns the exp claim as a time.
func (c Claims) ExpiresAt() (time.Time, bool) {
	exp, err := jwt.MapClaims(c).GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// IssuedAt returns the iat claim as a time.
func (c Claims) IssuedAt() (time.Time, bool) {
	iat, err := jwt.MapClaims(c).GetIssuedAt()
	if err != nil || iat == nil {
		return time.Time{}, false
	}
	return iat.Time, true
}

// Expired reports whether exp lies before now. Tokens without a readable
// expiry are not considered expired here; Valid already rejects them.
func (c Claims) Expired(now time.Time) bool {
	exp, ok := c.ExpiresAt()
	return ok && exp.Before(now)
}

// truthy follows JSON value truthiness: null, false, 0, NaN and "" are unset.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}
