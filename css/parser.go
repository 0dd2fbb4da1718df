package css

import (
	"fmt"
	"regexp"
	"strings"

	dcss "github.com/aymerick/douceur/css"
	dparser "github.com/aymerick/douceur/parser"
	"go.uber.org/zap"
)

var (
	importRe     = regexp.MustCompile(`(?is)^(?:url\(\s*['"]?([^'")]*)['"]?\s*\)|['"]([^'"]*)['"])\s*(.*)$`)
	emptyDeclsRe = regexp.MustCompile(`([;{])(\s*;)+`)
)

// Parser parses CSS stylesheets into flat rule streams.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. Rules are returned in source
// order. @media blocks restricted to screen, handheld or all media types are
// flattened into the stream, @charset is dropped and every other @-rule is
// kept verbatim. When the text is malformed everything parsed before the
// offending fragment is returned together with an error.
func (p *Parser) Parse(text, source string) (*Stylesheet, error) {
	sheet := &Stylesheet{}

	p.log.Debug("Parsing CSS", zap.String("source", source), zap.Int("bytes", len(text)))

	// douceur gives up on empty declarations, and returns nothing at all on
	// error unless rules are requested directly
	text = emptyDeclsRe.ReplaceAllString(strings.TrimPrefix(text, "\uFEFF"), "$1")
	rules, err := dparser.NewParser(text).ParseRules()
	for _, r := range rules {
		p.collect(sheet, r)
	}
	if err != nil {
		p.log.Debug("CSS parse error", zap.String("source", source), zap.Error(err))
		return sheet, fmt.Errorf("unable to parse stylesheet %s: %w", source, err)
	}
	return sheet, nil
}

func (p *Parser) collect(sheet *Stylesheet, r *dcss.Rule) {
	if r.Kind == dcss.QualifiedRule {
		decls := fromDouceur(r.Declarations)
		for _, sel := range r.Selectors {
			if sel == "" {
				continue
			}
			sheet.Rules = append(sheet.Rules, Rule{
				Selector:     sel,
				Declarations: decls,
				Specificity:  Specificity(sel),
			})
		}
		return
	}

	name := strings.ToLower(r.Name)
	switch {
	case name == "@charset":
		return
	case name == "@import":
		target, media := importTarget(r.Prelude)
		if target == "" {
			p.log.Debug("Ignoring @import without target", zap.String("prelude", r.Prelude))
			return
		}
		if !MediaMatches(media) {
			p.log.Debug("Ignoring @import for other media", zap.String("url", target), zap.String("media", media))
			return
		}
		sheet.Imports = append(sheet.Imports, target)
	case name == "@media" && MediaTypesOnly(r.Prelude):
		for _, nested := range r.Rules {
			p.collect(sheet, nested)
		}
	default:
		p.log.Debug("Keeping @-rule", zap.String("rule", r.Name), zap.String("prelude", r.Prelude))
		sheet.Rules = append(sheet.Rules, Rule{
			Selector: strings.TrimSpace(r.Name + " " + r.Prelude),
			Body:     atRuleBody(r),
		})
	}
}

func fromDouceur(in []*dcss.Declaration) []Declaration {
	out := make([]Declaration, 0, len(in))
	for _, d := range in {
		prop := strings.ToLower(strings.TrimSpace(d.Property))
		if prop == "" {
			continue
		}
		out = append(out, Declaration{Property: prop, Value: strings.TrimSpace(d.Value), Important: d.Important})
	}
	return out
}

// atRuleBody renders the content of an @-rule block on a single line.
func atRuleBody(r *dcss.Rule) string {
	if !r.EmbedsRules() {
		return Serialize(fromDouceur(r.Declarations))
	}
	parts := make([]string, 0, len(r.Rules))
	for _, nested := range r.Rules {
		var head string
		if nested.Kind == dcss.QualifiedRule {
			head = strings.Join(nested.Selectors, ", ")
		} else {
			head = strings.TrimSpace(nested.Name + " " + nested.Prelude)
		}
		parts = append(parts, head+" { "+atRuleBody(nested)+" }")
	}
	return strings.Join(parts, " ")
}

// importTarget splits @import prelude into target and media list.
// Handles: "url"; url("url"); url(url); with optional trailing media.
func importTarget(prelude string) (string, string) {
	m := importRe.FindStringSubmatch(strings.TrimSpace(prelude))
	if m == nil {
		return "", ""
	}
	target := m[1]
	if target == "" {
		target = m[2]
	}
	return strings.TrimSpace(target), strings.TrimSpace(m[3])
}
