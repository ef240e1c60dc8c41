package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func signedJWT(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key-at-least-32-bytes-long"))
	require.NoError(t, err)
	return tok
}

func TestDecode_SignedJWT(t *testing.T) {
	now := time.Now()
	tok := signedJWT(t, jwt.MapClaims{
		"sub":   "admin",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
		"role":  "ADMIN",
		"email": "admin@retail.test",
	})

	claims, ok := Decode(tok)
	require.True(t, ok)
	assert.Equal(t, "admin", claims.Subject())
	assert.Equal(t, "ADMIN", claims["role"])
	assert.Equal(t, "admin@retail.test", claims.String("email"))

	exp, ok := claims.ExpiresAt()
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Hour).Unix(), exp.Unix())
	assert.False(t, claims.Expired(now))
}

func TestDecode_DirectJSONSegmentsAnyOrder(t *testing.T) {
	header := mustJSON(t, map[string]any{"alg": "none", "typ": "JWT"})
	payload := mustJSON(t, map[string]any{"sub": "staff", "iat": 1700000000, "exp": 1900000000})
	meta := mustJSON(t, map[string]any{"sub": "decoy", "note": "missing times"})

	orders := [][]string{
		{header, payload, meta},
		{payload, header, meta},
		{header, meta, payload},
		{meta, payload, header},
	}

	for _, order := range orders {
		tok := strings.Join(order, ".")
		claims, ok := Decode(tok)
		require.True(t, ok, "token %s", tok)
		assert.Equal(t, "staff", claims.Subject())
		assert.Equal(t, float64(1900000000), claims[ClaimExpiresAt])
	}
}

func TestDecode_DirectJSONWinsOverBase64(t *testing.T) {
	direct := mustJSON(t, map[string]any{"sub": "direct", "iat": 1, "exp": 2})
	encoded := base64.RawURLEncoding.EncodeToString([]byte(mustJSON(t, map[string]any{"sub": "encoded", "iat": 1, "exp": 2})))

	claims, ok := Decode(encoded + "." + direct)
	require.True(t, ok)
	assert.Equal(t, "direct", claims.Subject())
}

func TestDecode_Base64Variants(t *testing.T) {
	payload := []byte(mustJSON(t, map[string]any{"sub": "viewer", "iat": 1700000000, "exp": 1900000000, "name": "??>>"}))

	tests := []struct {
		name    string
		segment string
	}{
		{"raw url", base64.RawURLEncoding.EncodeToString(payload)},
		{"padded url", base64.URLEncoding.EncodeToString(payload)},
		{"standard", base64.StdEncoding.EncodeToString(payload)},
		{"raw standard", base64.RawStdEncoding.EncodeToString(payload)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, ok := Decode("header." + tt.segment + ".signature")
			require.True(t, ok)
			assert.Equal(t, "viewer", claims.Subject())
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	noTimes := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"x"}`))
	zeroExp := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"x","iat":1,"exp":0}`))
	emptySub := `{"sub":"","iat":1,"exp":2}`
	array := base64.RawURLEncoding.EncodeToString([]byte(`[1,2,3]`))
	null := base64.RawURLEncoding.EncodeToString([]byte(`null`))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"random string", "d8f7a6s5d4f3"},
		{"dots only", "..."},
		{"broken json", `{"sub":"x","iat":1,`},
		{"json without required claims", noTimes + "." + noTimes},
		{"zero expiry", zeroExp},
		{"empty subject", emptySub},
		{"json array payload", array},
		{"json null payload", null},
		{"unicode noise", "☃.☃.☃"},
		{"braces inside base64", "eyJzdWIi{OiJ4In0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				claims, ok := Decode(tt.token)
				assert.False(t, ok)
				assert.Nil(t, claims)
			})
		})
	}
}

func TestDecodeWith_CustomStrategyOrder(t *testing.T) {
	direct := mustJSON(t, map[string]any{"sub": "direct", "iat": 1, "exp": 2})
	encoded := base64.RawURLEncoding.EncodeToString([]byte(mustJSON(t, map[string]any{"sub": "encoded", "iat": 1, "exp": 2})))
	tok := direct + "." + encoded

	claims, ok := DecodeWith(tok, Base64JSON, DirectJSON)
	require.True(t, ok)
	assert.Equal(t, "encoded", claims.Subject())

	_, ok = DecodeWith(tok)
	assert.False(t, ok, "no strategies decodes nothing")
}

func TestDecodeWith_PanickingStrategy(t *testing.T) {
	boom := func([]string) (Claims, bool) { panic("boom") }

	claims, ok := DecodeWith("a.b.c", boom)
	assert.False(t, ok)
	assert.Nil(t, claims)
}

func TestClaimsValidTruthiness(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		want   bool
	}{
		{"all set", Claims{"sub": "a", "iat": float64(1), "exp": float64(2)}, true},
		{"numeric subject", Claims{"sub": float64(7), "iat": float64(1), "exp": float64(2)}, true},
		{"false subject", Claims{"sub": false, "iat": float64(1), "exp": float64(2)}, false},
		{"null exp", Claims{"sub": "a", "iat": float64(1), "exp": nil}, false},
		{"missing iat", Claims{"sub": "a", "exp": float64(2)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.claims.Valid())
		})
	}
}

func TestClaimsExpired(t *testing.T) {
	now := time.Unix(1800000000, 0)

	assert.True(t, Claims{"exp": float64(1700000000)}.Expired(now))
	assert.False(t, Claims{"exp": float64(1900000000)}.Expired(now))
	assert.False(t, Claims{"exp": "soon"}.Expired(now))
}

func TestClaimsSubject(t *testing.T) {
	tests := []struct {
		name string
		sub  any
		want string
	}{
		{"string", "jane", "jane"},
		{"float", float64(42), "42"},
		{"large float", float64(1234567890123), "1234567890123"},
		{"int", 7, "7"},
		{"json number", json.Number("99"), "99"},
		{"bool", true, ""},
		{"missing", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Claims{"sub": tt.sub}.Subject())
		})
	}
}
