package session

import (
	"bytes"
	"encoding/json"
)

// tokenFields are probed in order on the login response.
var tokenFields = []string{"token", "access_token", "accessToken", "jwt"}

// ExtractToken locates the token in a login response body. It returns the
// token and, when the body is a JSON object, the decoded object for role
// resolution.
//
// Probe order: the top level token fields, the body itself being a string
// (a JSON string or bare text), then data.token.
func ExtractToken(body []byte) (string, map[string]any, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", nil, false
	}

	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		// Not JSON at all: the body is the token.
		return string(trimmed), nil, true
	}

	switch v := decoded.(type) {
	case string:
		return v, nil, v != ""
	case map[string]any:
		for _, field := range tokenFields {
			if s, ok := v[field].(string); ok && s != "" {
				return s, v, true
			}
		}
		if data, ok := v["data"].(map[string]any); ok {
			if s, ok := data["token"].(string); ok && s != "" {
				return s, v, true
			}
		}
		return "", v, false
	default:
		return "", nil, false
	}
}
