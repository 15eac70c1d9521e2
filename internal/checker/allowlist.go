package checker

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"urlguard/internal/domain"
)

// Allowlist holds glob patterns matched against host+path of a canonical
// URL, e.g. "*.corp.example.com/**" or "intranet.example.com/public/*".
// '*' stays within one path segment (and so within the host); "**" spans
// segments.
type Allowlist struct {
	patterns []string
}

func NewAllowlist(patterns []string) (*Allowlist, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid allowlist pattern %q", p)
		}
	}
	return &Allowlist{patterns: append([]string(nil), patterns...)}, nil
}

// Match returns the first pattern that matches u, if any.
func (a *Allowlist) Match(u domain.CanonicalURL) (string, bool) {
	if a == nil {
		return "", false
	}
	subject := u.Host + u.Path
	for _, p := range a.patterns {
		if ok, _ := doublestar.Match(p, subject); ok {
			return p, true
		}
	}
	return "", false
}

func (a *Allowlist) Len() int {
	if a == nil {
		return 0
	}
	return len(a.patterns)
}
