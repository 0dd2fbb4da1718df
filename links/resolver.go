package links

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	absoluteURIRe = regexp.MustCompile(`(?i)^(https?|ftp)://`)
	// at least two characters so windows drive letters are not mistaken
	schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]+:`)
)

// Policy adjusts resolution for documents rendered inside a mail
// application rather than loaded from a real location.
type Policy struct {
	// MailContext turns special handling on.
	MailContext bool
	// LocalAssetRoot is a directory relative links of in-memory documents are
	// rooted under when MailContext is set.
	LocalAssetRoot string
}

// Base is what relative references are resolved against: either an origin
// URI, a local file path or nothing at all for in-memory documents.
type Base struct {
	uri  *url.URL
	path string
}

// NewBase interprets s as absolute URI when it looks like one, otherwise as
// local file path. Empty s denotes in-memory document.
func NewBase(s string) (Base, error) {
	if absoluteURIRe.MatchString(s) {
		u, err := url.Parse(s)
		if err != nil {
			return Base{}, fmt.Errorf("unable to parse base %q: %w", s, err)
		}
		return Base{uri: u}, nil
	}
	return Base{path: s}, nil
}

// URLBase makes base out of already parsed origin URI.
func URLBase(u *url.URL) Base {
	return Base{uri: u}
}

// IsRemote reports whether base is an origin URI.
func (b Base) IsRemote() bool {
	return b.uri != nil
}

// IsMemory reports whether base denotes in-memory document.
func (b Base) IsMemory() bool {
	return b.uri == nil && b.path == ""
}

// URL returns origin URI or nil.
func (b Base) URL() *url.URL {
	return b.uri
}

func (b Base) String() string {
	if b.uri != nil {
		return b.uri.String()
	}
	return b.path
}

// IsAbsoluteURI reports whether s starts with http(s):// or ftp://.
func IsAbsoluteURI(s string) bool {
	return absoluteURIRe.MatchString(s)
}

// Resolver turns relative references into absolute URLs or file paths.
type Resolver struct {
	policy Policy
	log    *zap.Logger
}

func NewResolver(policy Policy, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{policy: policy, log: log.Named("links")}
}

// Policy returns resolution policy in effect.
func (r *Resolver) Policy() Policy {
	return r.policy
}

// Resolve merges ref with base. URI bases produce canonical absolute URIs,
// file bases produce absolute file paths relative to the directory of the
// base file. mailto: references are returned unchanged.
func (r *Resolver) Resolve(ref string, base Base) (string, error) {
	if hasScheme(ref, "mailto") {
		return ref, nil
	}

	var (
		res string
		err error
	)
	switch {
	case IsAbsoluteURI(ref):
		res, err = Canonicalize(ref)
	case base.uri != nil:
		res, err = r.resolveURI(ref, base.uri)
	case schemeRe.MatchString(ref):
		// data:, cid: and friends have no file system meaning
		return ref, nil
	case base.path == "" && r.policy.MailContext && r.policy.LocalAssetRoot != "":
		res, err = filepath.Abs(filepath.Join(r.policy.LocalAssetRoot, filepath.FromSlash(ref)))
	case base.path == "":
		res, err = filepath.Abs(filepath.FromSlash(ref))
	default:
		res, err = filepath.Abs(filepath.Join(filepath.Dir(base.path), filepath.FromSlash(ref)))
	}
	if err != nil {
		return "", err
	}
	if r.policy.MailContext {
		res = stripStylesheetQuery(res)
	}
	return res, nil
}

func (r *Resolver) resolveURI(ref string, base *url.URL) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("unable to parse reference %q: %w", ref, err)
	}
	merged := base.ResolveReference(u)
	canonicalizeURL(merged)
	return merged.String(), nil
}

// stripStylesheetQuery drops cache busting query from stylesheet references.
func stripStylesheetQuery(ref string) string {
	path, query, found := strings.Cut(ref, "?")
	if !found || query == "" || !strings.HasSuffix(strings.ToLower(path), ".css") {
		return ref
	}
	return path
}

func hasScheme(ref, scheme string) bool {
	return len(ref) > len(scheme) && ref[len(scheme)] == ':' && strings.EqualFold(ref[:len(scheme)], scheme)
}
