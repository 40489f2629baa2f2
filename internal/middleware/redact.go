package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"
)

const redactedValue = "***"

// MaxCapturedBody bounds the body stored with an HTTP log entry.
const MaxCapturedBody = 4096

// RedactBody masks credential fields of a JSON body and truncates it.
// Bodies that are not JSON are kept as text, truncated.
func RedactBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	out := body
	if redacted, ok := redactJSON(body); ok {
		out = redacted
	} else if looksLikeJSON(body) {
		// Cut off or malformed JSON still gets its credential values masked.
		out = sensitivePair.ReplaceAll(body, []byte(`${1}"`+redactedValue+`"`))
	}
	return truncate(string(out), MaxCapturedBody)
}

// RedactHeaders flattens headers to one value per key and masks credentials.
func RedactHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for key, vals := range h {
		if isSensitiveKey(key) {
			out[key] = redactedValue
			continue
		}
		out[key] = strings.Join(vals, ", ")
	}
	return out
}

// truncate cuts at a rune boundary at or before max bytes.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func redactJSON(body []byte) ([]byte, bool) {
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, false
	}
	redactValue(&data)
	out, err := json.Marshal(data)
	if err != nil {
		return nil, false
	}
	return out, true
}

func redactValue(v *interface{}) {
	switch raw := (*v).(type) {
	case map[string]interface{}:
		for key, val := range raw {
			if isSensitiveKey(key) {
				raw[key] = redactedValue
				continue
			}
			vv := val
			redactValue(&vv)
			raw[key] = vv
		}
	case []interface{}:
		for i, val := range raw {
			vv := val
			redactValue(&vv)
			raw[i] = vv
		}
	}
}

var sensitiveKeys = []string{
	"authorization",
	"proxy-authorization",
	"cookie",
	"set-cookie",
	"x-api-key",
	"x-admin-key",
	"api_key",
	"api_secret",
	"password",
	"passphrase",
	"secret",
	"token",
	"access_token",
	"refresh_token",
	"private_key",
}

// sensitivePair matches `"key": "value` for a credential key, including a
// value string that was cut off.
var sensitivePair = func() *regexp.Regexp {
	quoted := make([]string, len(sensitiveKeys))
	for i, k := range sensitiveKeys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`(?i)("(?:` + strings.Join(quoted, "|") + `)"\s*:\s*)"(?:[^"\\]|\\.)*"?`)
}()

func isSensitiveKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, k := range sensitiveKeys {
		if k == key {
			return true
		}
	}
	return false
}
