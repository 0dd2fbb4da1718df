package links

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// cssURLRe matches url(...) references in CSS text with optional quotes.
var cssURLRe = regexp.MustCompile(`(?i)url\(\s*(?:"([^"]*)"|'([^']*)'|([^'"\s)]*))\s*\)`)

// Attributes holding references subject to conversion.
var Attributes = []string{"href", "src", "background"}

// ConvertDocument makes references in href, src and background attributes of
// every element and url() references in style attributes absolute. Anchors
// additionally get query appended. Values which look like template
// placeholders or fragment links are left alone, so are values which could
// not be resolved, each of those is reported in returned error.
func (r *Resolver) ConvertDocument(doc *goquery.Document, base Base, query string) error {
	var errs error

	query = strings.TrimPrefix(query, "?")
	for _, attr := range Attributes {
		doc.Find("[" + attr + "]").Each(func(_ int, s *goquery.Selection) {
			link, _ := s.Attr(attr)
			if skipLink(link) {
				return
			}
			merged, err := r.convertLink(strings.TrimSpace(link), base)
			if err != nil {
				r.log.Debug("Unable to resolve link", zap.String("attr", attr), zap.String("link", link), zap.Error(err))
				errs = multierr.Append(errs, err)
				return
			}
			if query != "" && goquery.NodeName(s) == "a" {
				merged = appendQuery(merged, query)
			}
			s.SetAttr(attr, merged)
		})
	}

	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		converted, err := r.ConvertURLs(style, base)
		errs = multierr.Append(errs, err)
		s.SetAttr("style", converted)
	})
	return errs
}

// convertLink resolves link, retrying with unsafe characters escaped.
func (r *Resolver) convertLink(link string, base Base) (string, error) {
	merged, err := r.convertOnce(link, base)
	if err == nil {
		return merged, nil
	}
	if merged, err2 := r.convertOnce(escapeUnsafe(link), base); err2 == nil {
		return merged, nil
	}
	return "", err
}

func (r *Resolver) convertOnce(link string, base Base) (string, error) {
	if strings.HasPrefix(strings.ToLower(link), "http") {
		u, err := url.Parse(link)
		if err != nil {
			return "", fmt.Errorf("unable to parse link %q: %w", link, err)
		}
		return u.String(), nil
	}
	return r.Resolve(link, base)
}

// ConvertURLs rewrites every url() reference in CSS text against base,
// keeping original quoting. Unresolvable references stay untouched.
func (r *Resolver) ConvertURLs(text string, base Base) (string, error) {
	var errs error
	out := cssURLRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := cssURLRe.FindStringSubmatch(m)
		quote, ref := "", sub[3]
		switch {
		case sub[1] != "":
			quote, ref = `"`, sub[1]
		case sub[2] != "":
			quote, ref = `'`, sub[2]
		}
		if ref == "" || skipLink(ref) || hasScheme(ref, "data") {
			return m
		}
		resolved, err := r.convertLink(ref, base)
		if err != nil {
			errs = multierr.Append(errs, err)
			return m
		}
		return "url(" + quote + resolved + quote + ")"
	})
	return out, errs
}

// skipLink recognizes empty values, template placeholders and fragments.
func skipLink(link string) bool {
	link = strings.TrimSpace(link)
	if link == "" {
		return true
	}
	switch link[0] {
	case '{', '[', '<', '#':
		return true
	}
	return false
}

// appendQuery merges query into http(s) link query string.
func appendQuery(link, query string) string {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return link
	}
	if u.RawQuery == "" {
		u.RawQuery = query
	} else {
		u.RawQuery += "&" + query
	}
	return u.String()
}

// escapeUnsafe percent-encodes characters never valid in URI and stray
// percent signs, leaving reserved characters alone.
func escapeUnsafe(s string) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			sb.WriteByte(c)
		case c <= ' ' || c >= 0x7f || strings.IndexByte(`"<>\^`+"`"+`{|}%`, c) >= 0:
			sb.WriteByte('%')
			sb.WriteByte(hex[c>>4])
			sb.WriteByte(hex[c&15])
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
