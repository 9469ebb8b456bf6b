// Package version compares semantic versions of the bridge and the native
// connector.
package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Parse parses a semantic version string. A leading "v" is accepted.
func Parse(raw string) (*semver.Version, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("empty version")
	}
	v, err := semver.NewVersion(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse version %q: %w", raw, err)
	}
	return v, nil
}

// Compare returns -1, 0 or 1 when a is lower than, equal to or greater than b.
func Compare(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

// Greater reports whether a is strictly greater than b.
func Greater(a, b string) (bool, error) {
	cmp, err := Compare(a, b)
	if err != nil {
		return false, err
	}
	return cmp > 0, nil
}

// SatisfiesCaret reports whether candidate lies in the caret range anchored
// at base (^base): same left-most non-zero component and not lower than base.
func SatisfiesCaret(candidate, base string) (bool, error) {
	vc, err := Parse(candidate)
	if err != nil {
		return false, err
	}
	vb, err := Parse(base)
	if err != nil {
		return false, err
	}
	constraint, err := semver.NewConstraint("^" + vb.String())
	if err != nil {
		return false, fmt.Errorf("build caret range for %s: %w", vb, err)
	}
	return constraint.Check(vc), nil
}
