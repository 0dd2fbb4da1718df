package compat

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"premail/common"
	"premail/css"
)

// Warning is a single compatibility problem found in the document.
type Warning struct {
	Message string
	Level   common.WarnLevel
	Clients []string
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s (%s)", strings.ToUpper(w.Level.String()), w.Message, strings.Join(w.Clients, ", "))
}

var propertyRe = regexp.MustCompile(`([\w-]+)\s*:`)

// Check scans document using built-in support table.
func Check(doc *goquery.Document, level common.WarnLevel) ([]Warning, error) {
	if !level.Enabled() {
		return nil, nil
	}
	t, err := Default()
	if err != nil {
		return nil, err
	}
	return t.Check(doc, level), nil
}

// Check reports style properties used in inline styles, attributes and
// elements with support tier at or above level. Document is not modified.
// Properties are reported in order of first appearance, attributes and
// elements in table order.
func (t *Table) Check(doc *goquery.Document, level common.WarnLevel) []Warning {
	if !level.Enabled() || doc == nil {
		return nil
	}

	var warnings []Warning
	for _, prop := range styleProperties(doc) {
		e, ok := t.properties[prop]
		if !ok || e.Support < level {
			continue
		}
		warnings = append(warnings, newWarning(e, "CSS property"))
	}

	for i := range t.Attributes {
		e := &t.Attributes[i]
		if e.Support >= level && doc.Find("[" + e.Name + "]").Length() > 0 {
			warnings = append(warnings, newWarning(e, "HTML attribute"))
		}
	}

	for i := range t.Elements {
		e := &t.Elements[i]
		if e.Support >= level && doc.Find(e.Name).Length() > 0 {
			warnings = append(warnings, newWarning(e, "HTML element"))
		}
	}
	return warnings
}

func newWarning(e *Entry, kind string) Warning {
	return Warning{
		Message: e.Name + " " + kind,
		Level:   e.Support,
		Clients: append([]string(nil), e.UnsupportedIn...),
	}
}

// styleProperties collects unique property names from all style attributes.
func styleProperties(doc *goquery.Document) []string {
	var (
		props []string
		seen  = make(map[string]bool)
	)
	add := func(name string) {
		name = strings.ToLower(name)
		if !seen[name] {
			seen[name] = true
			props = append(props, name)
		}
	}

	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		decls, err := css.ParseDeclarations(style)
		if err != nil {
			// tokenizer gave up on part of the text, fall back to plain scan
			for _, m := range propertyRe.FindAllStringSubmatch(style, -1) {
				add(m[1])
			}
			return
		}
		for _, d := range decls {
			add(d.Property)
		}
	})
	return props
}
