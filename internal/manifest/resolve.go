// Package manifest fetches web app manifests and validates the start URL and
// scope a site declares against the document that referenced the manifest.
package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/example/pwabridge/internal/logging"
)

const maxBodySize = 4 << 20

// Resolver fetches and validates manifests.
type Resolver struct {
	client *http.Client
}

// NewResolver returns a Resolver using client, or http.DefaultClient when
// client is nil.
func NewResolver(client *http.Client) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &Resolver{client: client}
}

// rawManifest keeps members as raw JSON so a member of the wrong type can be
// ignored instead of failing the whole manifest.
type rawManifest struct {
	StartURL    json.RawMessage `json:"start_url"`
	Scope       json.RawMessage `json:"scope"`
	Name        json.RawMessage `json:"name"`
	ShortName   json.RawMessage `json:"short_name"`
	Description json.RawMessage `json:"description"`
	Icons       json.RawMessage `json:"icons"`
}

// Resolve fetches manifestURL and returns the manifest with start_url and
// scope resolved against documentURL. Errors wrap ErrFetchFailed,
// ErrParseFailed or ErrScopeViolation.
func (r *Resolver) Resolve(ctx context.Context, manifestURL, documentURL string) (*Manifest, error) {
	body, finalURL, err := r.fetch(ctx, manifestURL, "application/manifest+json, application/json")
	if err != nil {
		return nil, err
	}

	raw, err := decodeManifest(body)
	if err != nil {
		return nil, err
	}
	startValue, err := urlMember(raw.StartURL, "start_url")
	if err != nil {
		return nil, err
	}
	scopeValue, err := urlMember(raw.Scope, "scope")
	if err != nil {
		return nil, err
	}

	document, err := parseAbsolute(documentURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid document URL: %v", ErrScopeViolation, err)
	}

	start := document
	if value, ok := present(startValue); ok {
		start, err = document.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid start_url %q: %v", ErrParseFailed, value, err)
		}
	}

	var scope *url.URL
	if value, ok := present(scopeValue); ok {
		scope, err = document.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid scope %q: %v", ErrParseFailed, value, err)
		}
	} else {
		scope = start.ResolveReference(&url.URL{Path: "."})
	}

	if err := checkScope(start, scope, document); err != nil {
		return nil, err
	}

	return &Manifest{
		StartURL:    canonical(start),
		Scope:       canonical(scope),
		Name:        textMember(raw.Name),
		ShortName:   textMember(raw.ShortName),
		Description: textMember(raw.Description),
		Icons:       resolveIcons(decodeIcons(raw.Icons), finalURL),
	}, nil
}

func decodeManifest(body []byte) (*rawManifest, error) {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return nil, fmt.Errorf("%w: manifest is not a JSON object", ErrParseFailed)
	}

	var raw rawManifest
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	return &raw, nil
}

// urlMember decodes start_url or scope. Absent and null members yield nil;
// any other non-string value is a parse failure.
func urlMember(raw json.RawMessage, member string) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("%w: %s is not a string", ErrParseFailed, member)
	}
	return &value, nil
}

// textMember decodes an informational string member, ignoring values of any
// other type.
func textMember(raw json.RawMessage) *string {
	if isNull(raw) {
		return nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		logging.Debugf("ignoring non-string manifest member %s", raw)
		return nil
	}
	return &value
}

// decodeIcons keeps every icon entry that decodes. A non-array member yields
// no icons.
func decodeIcons(raw json.RawMessage) []Icon {
	if isNull(raw) {
		return nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		logging.Debugf("ignoring non-array icons member: %v", err)
		return nil
	}

	icons := make([]Icon, 0, len(entries))
	for _, entry := range entries {
		var icon Icon
		if err := json.Unmarshal(entry, &icon); err != nil {
			logging.Debugf("skipping icon %s: %v", entry, err)
			continue
		}
		icons = append(icons, icon)
	}
	return icons
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// present reports whether an optional member carries a usable value. Absent,
// null and blank members all fall back to their defaults.
func present(value *string) (string, bool) {
	if value == nil {
		return "", false
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

func checkScope(start, scope, document *url.URL) error {
	startOrigin := origin(start)
	if startOrigin == "" || startOrigin != origin(document) {
		return fmt.Errorf("%w: start and document origin mismatch", ErrScopeViolation)
	}
	if startOrigin != origin(scope) || !strings.HasPrefix(pathOf(start), pathOf(scope)) {
		return fmt.Errorf("%w: start URL outside scope", ErrScopeViolation)
	}
	return nil
}

// canonical serialises an http(s) URL the way browsers do: lowercase scheme
// and host, no default port, and "/" for an empty path.
func canonical(u *url.URL) string {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)

	host := strings.ToLower(c.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := c.Port(); port != "" && port != defaultPort(c.Scheme) {
		host += ":" + port
	}
	c.Host = host

	if c.Opaque == "" && c.Path == "" {
		c.Path = "/"
		c.RawPath = ""
	}
	return c.String()
}

func defaultPort(scheme string) string {
	switch scheme {
	case "http":
		return "80"
	case "https":
		return "443"
	default:
		return ""
	}
}

// origin returns the serialised origin of an http(s) URL. Other schemes have
// opaque origins and yield "", which never matches.
func origin(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	port := defaultPort(scheme)
	if port == "" {
		return ""
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	if p := u.Port(); p != "" && p != port {
		host = net.JoinHostPort(host, p)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return scheme + "://" + host
}

func pathOf(u *url.URL) string {
	if p := u.EscapedPath(); p != "" {
		return p
	}
	return "/"
}

func resolveIcons(icons []Icon, base *url.URL) []Icon {
	out := make([]Icon, 0, len(icons))
	for _, icon := range icons {
		src := strings.TrimSpace(icon.Src)
		if src == "" {
			continue
		}
		if base != nil {
			if resolved, err := base.Parse(src); err == nil {
				src = resolved.String()
			}
		}
		icon.Src = src
		out = append(out, icon)
	}
	return out
}

func parseAbsolute(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URL", raw)
	}
	return u, nil
}

// fetch performs a GET and returns the body and the final URL after
// redirects. Failures wrap ErrFetchFailed.
func (r *Resolver) fetch(ctx context.Context, target, accept string) ([]byte, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(target), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", accept)
	logging.LogHTTPRequest(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		logging.LogHTTPResponse(resp, snippet)
		return nil, nil, fmt.Errorf("%w: %s returned %d", ErrFetchFailed, req.URL.Redacted(), resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read body: %v", ErrFetchFailed, err)
	}
	if len(body) > maxBodySize {
		return nil, nil, fmt.Errorf("%w: body exceeds %d bytes", ErrFetchFailed, maxBodySize)
	}
	logging.LogHTTPResponse(resp, body)

	final := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL
	}
	return body, final, nil
}
