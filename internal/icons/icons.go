// Package icons picks a site icon of a suitable size from a manifest's icon
// list.
package icons

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/example/pwabridge/internal/manifest"
)

// AnySize is the size assigned to icons declaring sizes="any".
const AnySize = math.MaxInt

// RankedIcon pairs an icon with one of its declared sizes.
type RankedIcon struct {
	Icon manifest.Icon
	Size int
}

// Rank returns one entry per (icon, size token) for icons declaring purpose,
// sorted by ascending size. Entries of equal size keep their input order.
// An empty purpose selects "any".
func Rank(list []manifest.Icon, purpose string) []RankedIcon {
	if purpose == "" {
		purpose = manifest.PurposeAny
	}

	ranked := make([]RankedIcon, 0, len(list))
	for _, icon := range list {
		if !icon.HasPurpose(purpose) {
			continue
		}
		for _, token := range icon.Sizes {
			if size, ok := parseSize(token); ok {
				ranked = append(ranked, RankedIcon{Icon: icon, Size: size})
			}
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Size < ranked[j].Size
	})
	return ranked
}

// Pick returns the src of the smallest icon at least minSize large, falling
// back to the largest icon. ok is false when ranked is empty.
func Pick(ranked []RankedIcon, minSize int) (src string, ok bool) {
	if len(ranked) == 0 {
		return "", false
	}
	for _, entry := range ranked {
		if entry.Size >= minSize {
			return entry.Icon.Src, true
		}
	}
	return ranked[len(ranked)-1].Icon.Src, true
}

// Select ranks list for purpose and picks for minSize.
func Select(list []manifest.Icon, purpose string, minSize int) (string, bool) {
	return Pick(Rank(list, purpose), minSize)
}

// parseSize accepts "any", a bare integer or a WxH pair. For pairs the
// larger dimension is used.
func parseSize(token string) (int, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "any" {
		return AnySize, true
	}

	width, height, isPair := strings.Cut(token, "x")
	w, err := strconv.Atoi(width)
	if err != nil || w <= 0 {
		return 0, false
	}
	if !isPair {
		return w, true
	}
	h, err := strconv.Atoi(height)
	if err != nil || h <= 0 {
		return 0, false
	}
	return max(w, h), true
}
