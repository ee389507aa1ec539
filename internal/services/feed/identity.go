package feed

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"log"
	"net/url"
	"regexp"
	"strings"
)

// idPattern matches the 12-hex-char episode identifier
var idPattern = regexp.MustCompile(`^[a-f0-9]{12}$`)

// IsValidID reports whether s is a well-formed episode identifier
func IsValidID(s string) bool {
	return idPattern.MatchString(s)
}

// EpisodeID derives the stable identifier for an episode. The GUID is the
// preferred seed; the canonical enclosure URL is the fallback for feeds
// without GUIDs. Identifiers are the first 12 lowercase hex chars of the
// SHA-1 of the seed, which doubles as the installed filename stem.
func EpisodeID(guid, canonicalURL string) string {
	seed := strings.TrimSpace(guid)
	if seed == "" {
		seed = canonicalURL
	}
	sum := sha1.Sum([]byte(seed))
	return hex.EncodeToString(sum[:])[:12]
}

// StripQueryFragment removes the query string and fragment from a URL.
// Tracking parameters churn between fetches; stripping them keeps the
// canonical form stable.
func StripQueryFragment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		// Not parseable; strip textually
		if idx := strings.IndexAny(rawURL, "?#"); idx >= 0 {
			return rawURL[:idx]
		}
		return rawURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// URLResolver follows a redirect chain to its terminal URL
type URLResolver interface {
	ResolveFinalURL(ctx context.Context, rawURL string) (string, error)
}

// Identity canonicalizes enclosure URLs for identifier derivation
type Identity struct {
	resolver URLResolver
}

// NewIdentity creates an Identity backed by the given resolver
func NewIdentity(resolver URLResolver) *Identity {
	return &Identity{resolver: resolver}
}

// CanonicalURL resolves rawURL through redirects and strips query and
// fragment. Resolution failure is not fatal: the stripped original URL is
// canonical enough, it just may miss CDN aliasing.
func (i *Identity) CanonicalURL(ctx context.Context, rawURL string) string {
	if i.resolver != nil {
		final, err := i.resolver.ResolveFinalURL(ctx, rawURL)
		if err == nil {
			return StripQueryFragment(final)
		}
		log.Printf("[WARN] Redirect resolution failed for %s: %v", rawURL, err)
	}
	return StripQueryFragment(rawURL)
}
