package links

import (
	"fmt"
	"net/url"
	"strings"
)

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
	"ftp":   "21",
}

// Canonicalize normalizes scheme and host, drops default port and removes
// dot segments from the path. A ".." which cannot be resolved (at the root of
// the path) stays. Canonicalize is idempotent.
func Canonicalize(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("unable to canonicalize %q: %w", uri, err)
	}
	canonicalizeURL(u)
	return u.String(), nil
}

func canonicalizeURL(u *url.URL) {
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Opaque != "" {
		return
	}
	u.Host = strings.ToLower(u.Host)
	if port := u.Port(); port != "" && defaultPorts[u.Scheme] == port {
		u.Host = strings.TrimSuffix(u.Host, ":"+port)
	}

	escaped := u.EscapedPath()
	clean := cleanPath(escaped)
	if clean == escaped {
		return
	}
	if p, err := url.PathUnescape(clean); err == nil {
		u.Path, u.RawPath = p, clean
	}
}

// cleanPath repeats dot segment removal until path does not change.
func cleanPath(p string) string {
	for {
		next := p
		for strings.Contains(next, "/./") {
			next = strings.ReplaceAll(next, "/./", "/")
		}
		next = collapseParents(next)
		if strings.HasSuffix(next, "/.") {
			next = strings.TrimSuffix(next, ".")
		}
		if next == p {
			return p
		}
		p = next
	}
}

// collapseParents removes every "segment/../" pair, segment being neither
// empty nor "..". Trailing "segment/.." leaves directory path with trailing
// slash.
func collapseParents(p string) string {
	segs := strings.Split(p, "/")
	for {
		collapsed := false
		for i := 1; i < len(segs); i++ {
			if segs[i] != ".." || segs[i-1] == "" || segs[i-1] == ".." {
				continue
			}
			if i == len(segs)-1 {
				segs = append(segs[:i-1], "")
			} else {
				segs = append(segs[:i-1], segs[i+1:]...)
			}
			collapsed = true
			break
		}
		if !collapsed {
			return strings.Join(segs, "/")
		}
	}
}
