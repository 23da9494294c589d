package window

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/1broseidon/regionbar/internal/platform"
)

const (
	// DefaultBorderMargin is the invisible frame padding of border-corrected windows.
	DefaultBorderMargin = 8
	// DefaultCompactHeader is the header height hidden by compact mode.
	DefaultCompactHeader = 53
)

// Matcher decides from an executable path whether a window needs border
// correction. Patterns containing glob metacharacters are matched against the
// lower-cased base name; other patterns are case-insensitive substrings of the
// full path.
type Matcher struct {
	Include []string
	Exclude []string
}

// Match reports whether executable matches an include pattern and no exclude pattern.
func (m Matcher) Match(executable string) bool {
	if executable == "" {
		return false
	}
	full := strings.ToLower(executable)
	base := filepath.Base(full)

	included := false
	for _, p := range m.Include {
		if matchPattern(p, full, base) {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, p := range m.Exclude {
		if matchPattern(p, full, base) {
			return false
		}
	}
	return true
}

// ValidatePattern reports a malformed glob.
func ValidatePattern(pattern string) error {
	if !isGlob(pattern) {
		return nil
	}
	if _, err := path.Match(strings.ToLower(pattern), ""); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return nil
}

func matchPattern(pattern, full, base string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return false
	}
	if isGlob(pattern) {
		ok, err := path.Match(pattern, base)
		return err == nil && ok
	}
	return strings.Contains(full, pattern)
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

// Corrections holds the geometry adjustments applied at resize time.
type Corrections struct {
	BorderMargin  int
	CompactHeader int
	Border        Matcher
}

// DefaultCorrections returns the margins and patterns used when nothing is configured.
func DefaultCorrections() Corrections {
	return Corrections{
		BorderMargin:  DefaultBorderMargin,
		CompactHeader: DefaultCompactHeader,
		Border:        Matcher{Include: []string{"chrome", "unity"}},
	}
}

// Apply returns r adjusted for the given flags. Border correction widens the
// window by the margin on both sides and extends it downwards; compact
// correction pulls the top edge up over the header. Both apply when both are set.
func (c Corrections) Apply(r platform.Rect, border, compact bool) platform.Rect {
	if border {
		b := c.BorderMargin
		r.X -= b
		r.Width += b * 2
		r.Height += b
	}
	if compact {
		r.Y -= c.CompactHeader
		r.Height += c.CompactHeader
	}
	return r
}
