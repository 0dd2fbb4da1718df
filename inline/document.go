package inline

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"premail/links"
)

// Document owns parsed HTML tree, it is mutated in place by aggregation and
// merge.
type Document struct {
	doc  *goquery.Document
	base links.Base
}

// NewDocument parses source. Base is what stylesheet links found in the
// document are resolved against.
func NewDocument(source string, base links.Base) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("unable to parse document: %w", err)
	}
	return &Document{doc: doc, base: base}, nil
}

// Query gives access to underlying tree.
func (d *Document) Query() *goquery.Document {
	return d.doc
}

func (d *Document) Base() links.Base {
	return d.base
}

// IsLocal reports whether document came from local file system (or memory)
// rather than from remote origin.
func (d *Document) IsLocal() bool {
	return !d.base.IsRemote()
}

// Clone makes a deep copy of the document tree.
func (d *Document) Clone() *Document {
	cloned := d.doc.Selection.Clone()
	return &Document{doc: goquery.NewDocumentFromNode(cloned.Nodes[0]), base: d.base}
}

// HTML serializes the whole document.
func (d *Document) HTML() (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, d.doc.Nodes[0]); err != nil {
		return "", fmt.Errorf("unable to render document: %w", err)
	}
	return sb.String(), nil
}

// BodyHTML returns inner HTML of the <body> element, false when there is no
// body to speak of.
func (d *Document) BodyHTML() (string, bool) {
	body := d.doc.Find("body").First()
	if body.Length() == 0 {
		return "", false
	}
	s, err := body.Html()
	if err != nil {
		return "", false
	}
	return s, true
}

// Title returns trimmed text of the document <title>.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("head title").First().Text())
}

// head returns <head> element creating it when necessary.
func (d *Document) head() *goquery.Selection {
	head := d.doc.Find("head").First()
	if head.Length() > 0 {
		return head
	}
	htmlEl := d.doc.Find("html").First()
	if htmlEl.Length() == 0 {
		htmlEl = d.doc.Selection
	}
	htmlEl.PrependHtml("<head></head>")
	return d.doc.Find("head").First()
}
