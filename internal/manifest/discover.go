package manifest

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Discover fetches documentURL and returns the absolute URL of the first
// <link rel="manifest"> it declares, resolved against the document base URL.
func (r *Resolver) Discover(ctx context.Context, documentURL string) (string, error) {
	body, final, err := r.fetch(ctx, documentURL, "text/html, application/xhtml+xml")
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: parse document: %v", ErrParseFailed, err)
	}

	href, ok := findManifestLink(doc)
	if !ok {
		return "", ErrNoManifestLink
	}

	base := final
	if baseHref, ok := findBaseHref(doc); ok {
		if resolved, err := final.Parse(baseHref); err == nil {
			base = resolved
		}
	}

	target, err := base.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: invalid manifest href %q: %v", ErrParseFailed, href, err)
	}
	return target.String(), nil
}

func findManifestLink(n *html.Node) (string, bool) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Link {
		if hasRel(attr(n, "rel"), "manifest") {
			if href := strings.TrimSpace(attr(n, "href")); href != "" {
				return href, true
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if href, ok := findManifestLink(c); ok {
			return href, true
		}
	}
	return "", false
}

func findBaseHref(n *html.Node) (string, bool) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Base {
		if href := strings.TrimSpace(attr(n, "href")); href != "" {
			return href, true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if href, ok := findBaseHref(c); ok {
			return href, true
		}
	}
	return "", false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func hasRel(rel, want string) bool {
	for _, token := range strings.Fields(rel) {
		if strings.EqualFold(token, want) {
			return true
		}
	}
	return false
}
