package protocol

import (
	"net/url"
	"strings"

	"github.com/example/pwabridge/internal/manifest"
)

// Site is an installed web app as stored by the connector.
type Site struct {
	ULID     string       `json:"ulid"`
	Profile  string       `json:"profile"`
	Config   SiteConfig   `json:"config"`
	Manifest SiteManifest `json:"manifest"`
}

// SiteConfig holds the user overrides recorded at install time.
type SiteConfig struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	StartURL    *string  `json:"start_url,omitempty"`
	DocumentURL string   `json:"document_url"`
	ManifestURL string   `json:"manifest_url"`
	Categories  []string `json:"categories,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// SiteManifest is the manifest snapshot the connector keeps for a site.
type SiteManifest struct {
	StartURL    string          `json:"start_url"`
	Scope       string          `json:"scope"`
	Name        *string         `json:"name,omitempty"`
	ShortName   *string         `json:"short_name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Icons       []manifest.Icon `json:"icons,omitempty"`
}

// Profile groups sites that share a browser profile.
type Profile struct {
	ULID        string   `json:"ulid"`
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Sites       []string `json:"sites"`
}

// DisplayName picks the user-configured name, then the manifest name, then
// the short name, and finally the start URL host.
func (s Site) DisplayName() string {
	for _, candidate := range []*string{s.Config.Name, s.Manifest.Name, s.Manifest.ShortName} {
		if candidate != nil && strings.TrimSpace(*candidate) != "" {
			return strings.TrimSpace(*candidate)
		}
	}
	if u, err := url.Parse(s.StartURL()); err == nil && u.Host != "" {
		return u.Host
	}
	return s.ULID
}

// StartURL returns the configured start URL override or the manifest's.
func (s Site) StartURL() string {
	if s.Config.StartURL != nil && strings.TrimSpace(*s.Config.StartURL) != "" {
		return strings.TrimSpace(*s.Config.StartURL)
	}
	return s.Manifest.StartURL
}

// Icons returns the manifest icons with src resolved against the manifest
// URL, so relative entries in older records are still fetchable.
func (s Site) Icons() []manifest.Icon {
	base, err := url.Parse(s.Config.ManifestURL)
	if err != nil || !base.IsAbs() {
		base = nil
	}

	out := make([]manifest.Icon, 0, len(s.Manifest.Icons))
	for _, icon := range s.Manifest.Icons {
		if base != nil {
			if resolved, err := base.Parse(icon.Src); err == nil {
				icon.Src = resolved.String()
			}
		}
		out = append(out, icon)
	}
	return out
}

// DisplayName returns the profile name or its ULID.
func (p Profile) DisplayName() string {
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		return strings.TrimSpace(*p.Name)
	}
	if p.ULID == "00000000000000000000000000" {
		return "Default"
	}
	return p.ULID
}
