package realm

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ScopeFallback decides how an LDAP search scope without a Search Guard
// equivalent is migrated.
type ScopeFallback string

const (
	// ScopeFallbackSub widens the scope to the whole subtree.
	ScopeFallbackSub ScopeFallback = "sub"
	// ScopeFallbackOne narrows the scope to the direct children of the base DN.
	ScopeFallbackOne ScopeFallback = "one"
	// ScopeFallbackOmit leaves the scope out of the output.
	ScopeFallbackOmit ScopeFallback = "omit"
)

// ScopeFallbacks lists the accepted policies.
var ScopeFallbacks = []ScopeFallback{ScopeFallbackSub, ScopeFallbackOne, ScopeFallbackOmit}

// ErrUnknownScopeFallback is returned by ParseScopeFallback.
var ErrUnknownScopeFallback = errors.New("unknown scope fallback")

// ParseScopeFallback returns the policy named s. An empty string selects the
// default.
func ParseScopeFallback(s string) (ScopeFallback, error) {
	if s == "" {
		return ScopeFallbackSub, nil
	}

	for _, f := range ScopeFallbacks {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}

	return "", errors.Wrapf(ErrUnknownScopeFallback, "%q", s)
}

// Options are the translation policies.
type Options struct {
	ScopeFallback ScopeFallback
}

// DefaultOptions returns the policies used when nothing is configured.
func DefaultOptions() Options {
	return Options{ScopeFallback: ScopeFallbackSub}
}
