package inline

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"premail/css"
	"premail/links"
)

// pending holds declaration blocks collected for every matched element until
// they are folded. Elements are kept in order of first match.
type pending struct {
	blocks map[*html.Node][]css.Block
	order  []*html.Node
}

func newPending() *pending {
	return &pending{blocks: make(map[*html.Node][]css.Block)}
}

func (p *pending) add(n *html.Node, b css.Block) {
	if _, ok := p.blocks[n]; !ok {
		p.order = append(p.order, n)
	}
	p.blocks[n] = append(p.blocks[n], b)
}

// Merger inlines CSS rules into style attributes of matching elements.
type Merger struct {
	resolver *links.Resolver
	base     links.Base
	log      *zap.Logger
}

// NewMerger creates merger. When base is remote url() references in
// declarations are made absolute against it.
func NewMerger(resolver *links.Resolver, base links.Base, log *zap.Logger) *Merger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Merger{resolver: resolver, base: base, log: log.Named("merger")}
}

// Merge partitions rules, folds mergable ones together with already present
// style attributes into final inline styles and appends unmergable rules to
// document head as a single <style> element. Rules with selectors which
// could not be compiled are skipped and reported in returned error.
func (m *Merger) Merge(d *Document, rules []css.Rule) error {
	var errs error

	mergable, unmergable := css.Partition(rules)
	p := newPending()

	for _, n := range cascadia.QueryAll(d.doc.Nodes[0], cascadia.Selector(hasStyle)) {
		style := attr(n, "style")
		decls, err := css.ParseDeclarations(style)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("malformed style attribute %q: %w", style, err))
		}
		if len(decls) > 0 {
			p.add(n, css.Block{Specificity: css.InlineSpecificity, Order: -1, Declarations: decls})
		}
	}

	for i, r := range mergable {
		sel, err := cascadia.Parse(r.Selector)
		if err != nil {
			m.log.Debug("Skipping rule", zap.String("selector", r.Selector), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("unable to compile selector %q: %w", r.Selector, err))
			continue
		}
		decls := r.Declarations
		if m.base.IsRemote() {
			decls, err = m.absoluteURLs(decls)
			errs = multierr.Append(errs, err)
		}
		for _, n := range cascadia.QueryAll(d.doc.Nodes[0], sel) {
			p.add(n, css.Block{Specificity: r.Specificity, Order: i, Declarations: decls})
		}
	}

	for _, n := range p.order {
		style := css.Serialize(css.Fold(p.blocks[n]))
		// html.Render writes single quotes in attribute values as &#39;
		setAttr(n, "style", strings.ReplaceAll(style, `"`, "'"))
	}

	if unmergable.Len() > 0 {
		d.head().AppendHtml("\n<style type=\"text/css\">\n" + unmergable.String() + "</style>\n")
	}

	m.log.Debug("Styles merged",
		zap.Int("rules", len(mergable)),
		zap.Int("elements", len(p.order)),
		zap.Int("unmergable", unmergable.Len()))
	return errs
}

// absoluteURLs returns copy of declarations with url() references resolved.
func (m *Merger) absoluteURLs(decls []css.Declaration) ([]css.Declaration, error) {
	var errs error
	out := make([]css.Declaration, len(decls))
	for i, d := range decls {
		if strings.Contains(strings.ToLower(d.Value), "url(") {
			var err error
			d.Value, err = m.resolver.ConvertURLs(d.Value, m.base)
			errs = multierr.Append(errs, err)
		}
		out[i] = d
	}
	return out, errs
}

func hasStyle(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "style" {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
