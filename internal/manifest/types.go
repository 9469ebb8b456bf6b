package manifest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Purpose tokens recognised in an icon's purpose member.
const (
	PurposeAny        = "any"
	PurposeMaskable   = "maskable"
	PurposeMonochrome = "monochrome"
)

// Manifest is a fetched web app manifest whose start URL and scope have been
// resolved to absolute URLs and checked against the document origin.
type Manifest struct {
	StartURL    string  `json:"start_url"`
	Scope       string  `json:"scope"`
	Name        *string `json:"name,omitempty"`
	ShortName   *string `json:"short_name,omitempty"`
	Description *string `json:"description,omitempty"`
	Icons       []Icon  `json:"icons"`
}

// Icon is one entry of a manifest's icons member.
type Icon struct {
	Src     string `json:"src"`
	Sizes   Tokens `json:"sizes,omitempty"`
	Purpose Tokens `json:"purpose,omitempty"`
	Type    string `json:"type,omitempty"`
}

// Purposes returns the icon's purpose tokens, defaulting to "any" when the
// member is absent or blank.
func (i Icon) Purposes() []string {
	if len(i.Purpose) == 0 {
		return []string{PurposeAny}
	}
	return i.Purpose
}

// HasPurpose reports whether the icon declares purpose.
func (i Icon) HasPurpose(purpose string) bool {
	for _, token := range i.Purposes() {
		if strings.EqualFold(token, purpose) {
			return true
		}
	}
	return false
}

// Tokens is a whitespace separated manifest member such as "16x16 32x32" or
// "any maskable". Stored records sometimes carry the tokens as a JSON array,
// so both forms decode.
type Tokens []string

// UnmarshalJSON accepts a space separated string, an array of strings or null.
func (t *Tokens) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*t = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode token list: %w", err)
		}
		out := make(Tokens, 0, len(list))
		for _, item := range list {
			out = append(out, strings.Fields(item)...)
		}
		*t = out
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode tokens: %w", err)
	}
	*t = ParseTokens(raw)
	return nil
}

// MarshalJSON writes the tokens back in manifest form.
func (t Tokens) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.Join(t, " "))
}

// ParseTokens splits a manifest member on any whitespace.
func ParseTokens(raw string) Tokens {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}
	return Tokens(fields)
}
