// Package logging provides the debug tracing shared by the native connector
// client, the manifest resolver and the tray. Output goes through the
// standard logger, which the CLI points at stderr because stdout may carry
// native messaging frames.
package logging

import (
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

const maxPayloadLog = 2048

var debugEnabled atomic.Bool

// EnableDebug turns on verbose debug logging.
func EnableDebug() {
	debugEnabled.Store(true)
	log.Printf("[DEBUG] debug logging enabled")
}

// DebugEnabled reports whether debug logging is active.
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// Debugf emits a formatted debug log message when debugging is enabled.
func Debugf(format string, args ...any) {
	if !DebugEnabled() {
		return
	}
	log.Printf("[DEBUG] "+format, args...)
}

// LogNativeMessage traces one direction of a native messaging exchange.
// direction is "-->" for requests and "<--" for responses.
func LogNativeMessage(callID, direction string, payload []byte) {
	if !DebugEnabled() {
		return
	}
	log.Printf("[DEBUG] native %s %s %s", shortID(callID), direction, describePayload(payload))
}

// LogHTTPRequest emits details about an outbound HTTP request when debugging
// is enabled. Credentials in headers and query parameters are masked.
func LogHTTPRequest(req *http.Request) {
	if !DebugEnabled() || req == nil {
		return
	}

	target := sanitizeURL(req.URL)
	if target == "" {
		target = "<unknown>"
	}

	log.Printf("[DEBUG] HTTP request %s %s", req.Method, target)
	if len(req.Header) > 0 {
		log.Printf("[DEBUG] --> request headers: %s", formatHeaders(req.Header))
	}
}

// LogHTTPResponse emits details about an inbound HTTP response when
// debugging is enabled.
func LogHTTPResponse(resp *http.Response, body []byte) {
	if !DebugEnabled() || resp == nil {
		return
	}

	target := "<unknown>"
	if resp.Request != nil {
		target = sanitizeURL(resp.Request.URL)
	}

	log.Printf("[DEBUG] HTTP response %s for %s", resp.Status, target)
	if len(resp.Header) > 0 {
		log.Printf("[DEBUG] <-- response headers: %s", formatHeaders(resp.Header))
	}
	if len(body) > 0 {
		log.Printf("[DEBUG] <-- response payload %s", describePayload(body))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatHeaders(headers http.Header) string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})

	var b strings.Builder
	for idx, name := range names {
		if idx > 0 {
			b.WriteString(", ")
		}
		values := make([]string, len(headers[name]))
		for i, value := range headers[name] {
			values[i] = sanitizeSensitiveValue(name, value)
		}
		b.WriteString(name)
		b.WriteString(": [")
		b.WriteString(strings.Join(values, ", "))
		b.WriteString("]")
	}
	return b.String()
}

func describePayload(body []byte) string {
	truncated := ""
	if len(body) > maxPayloadLog {
		truncated = " (truncated)"
		body = body[:maxPayloadLog]
	}
	if utf8.Valid(body) {
		return fmt.Sprintf("(utf-8, %d bytes)%s: %s", len(body), truncated, string(body))
	}
	return fmt.Sprintf("(base64, %d bytes)%s: %s", len(body), truncated, base64.StdEncoding.EncodeToString(body))
}

func sanitizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	clone := *u
	if clone.RawQuery != "" {
		query := clone.Query()
		sanitized := false
		for key, values := range query {
			if isSensitiveKey(key) {
				sanitized = true
				for idx, value := range values {
					query[key][idx] = MaskIdentifier(value)
				}
			}
		}
		if sanitized {
			clone.RawQuery = query.Encode()
		}
	}

	if clone.User != nil {
		if password, ok := clone.User.Password(); ok {
			clone.User = url.UserPassword(clone.User.Username(), MaskIdentifier(password))
		}
	}

	return clone.String()
}

func isSensitiveKey(name string) bool {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "authorization"),
		strings.Contains(lower, "cookie"),
		strings.Contains(lower, "secret"),
		strings.Contains(lower, "token"),
		strings.Contains(lower, "key"):
		return true
	default:
		return false
	}
}

func sanitizeSensitiveValue(name, value string) string {
	if value == "" || !isSensitiveKey(name) {
		return value
	}
	return MaskIdentifier(value)
}

// MaskIdentifier obscures a value leaving only the last four characters visible.
func MaskIdentifier(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(trimmed)-4) + trimmed[len(trimmed)-4:]
}
