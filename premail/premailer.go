// Package premail prepares HTML documents to be sent as e-mail bodies: it
// moves stylesheet rules into style attributes, makes links absolute,
// produces plain text alternative and reports features mail clients are
// known to handle poorly.
package premail

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"premail/common"
	"premail/compat"
	"premail/css"
	"premail/fetch"
	"premail/inline"
	"premail/links"
	"premail/text"
)

var (
	ErrEmptySource  = errors.New("empty source")
	ErrLoadDocument = errors.New("unable to load document")
)

// Premailer holds single loaded document. Its methods are not safe for
// concurrent use.
type Premailer struct {
	opts     options
	log      *zap.Logger
	resolver *links.Resolver

	doc      *inline.Document
	rules    []css.Rule
	linkBase links.Base
	diags    common.Diagnostics

	inlined     *inline.Document
	inlinedHTML string
	warnings    []compat.Warning
	checked     bool
}

// New loads document from local file or http(s) URL, collects its
// stylesheets and, when base is known, makes links absolute. Only failure to
// load the document itself is returned, everything else is recorded in
// Diagnostics.
func New(ctx context.Context, source string, opts ...Option) (*Premailer, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}

	p := newPremailer(opts)

	location := source
	if !links.IsAbsoluteURI(source) {
		abs, err := filepath.Abs(source)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadDocument, err)
		}
		location = abs
	}
	base, err := links.NewBase(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadDocument, err)
	}

	html, err := p.opts.loader.Document(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadDocument, err)
	}
	if err := p.init(ctx, html, base); err != nil {
		return nil, err
	}
	return p, nil
}

// NewFromString works as New for HTML already in memory. Relative
// stylesheet links are resolved according to the policy.
func NewFromString(ctx context.Context, html string, opts ...Option) (*Premailer, error) {
	p := newPremailer(opts)
	if err := p.init(ctx, html, links.Base{}); err != nil {
		return nil, err
	}
	return p, nil
}

func newPremailer(opts []Option) *Premailer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.loader == nil {
		o.loader = fetch.NewLoader(fetch.WithLogger(o.log))
	}
	return &Premailer{
		opts:     o,
		log:      o.log.Named("premail"),
		resolver: links.NewResolver(o.policy, o.log),
	}
}

func (p *Premailer) init(ctx context.Context, html string, base links.Base) error {
	doc, err := inline.NewDocument(html, base)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadDocument, err)
	}
	p.doc = doc

	switch {
	case base.IsRemote():
		p.linkBase = base
	case p.opts.baseURL != "":
		bu := p.opts.baseURL
		if !links.IsAbsoluteURI(bu) {
			bu = "http://" + bu
		}
		if p.linkBase, err = links.NewBase(bu); err != nil {
			return fmt.Errorf("invalid base url: %w", err)
		}
	}

	// stylesheets first, local documents keep reading them from disk
	// even when base url is set
	agg := inline.NewAggregator(p.opts.loader, p.resolver, p.opts.maxImportDepth, p.opts.log)
	if p.opts.recorder != nil {
		agg.SetRecorder(p.opts.recorder)
	}
	p.rules, err = agg.Aggregate(ctx, doc)
	p.record("Stylesheet problems", err)

	if p.linkBase.IsRemote() {
		err = p.resolver.ConvertDocument(doc.Query(), p.linkBase, p.opts.queryString)
		p.record("Link problems", err)
	}

	p.log.Debug("Document loaded",
		zap.Stringer("base", base),
		zap.Stringer("links", p.linkBase),
		zap.Int("rules", len(p.rules)))
	return nil
}

func (p *Premailer) record(msg string, err error) {
	if err == nil {
		return
	}
	p.log.Debug(msg, zap.Error(err))
	p.diags.Add(err)
}

// InlineHTML returns document with stylesheet rules merged into style
// attributes. Rules which cannot be inlined end up in a <style> element in
// document head. Result is computed once, loaded document is not changed.
func (p *Premailer) InlineHTML() (string, error) {
	if p.inlined != nil {
		return p.inlinedHTML, nil
	}

	doc := p.doc.Clone()
	merger := inline.NewMerger(p.resolver, p.linkBase, p.opts.log)
	p.record("Merge problems", merger.Merge(doc, p.rules))

	out, err := doc.HTML()
	if err != nil {
		return "", err
	}
	p.inlined, p.inlinedHTML = doc, out
	return out, nil
}

// PlainText renders document body as plain text.
func (p *Premailer) PlainText() string {
	src, ok := p.doc.BodyHTML()
	if !ok {
		p.log.Debug("Unable to isolate body, rendering whole document")
		src = p.String()
	}
	return text.Render(src, p.opts.lineLength)
}

// Warnings returns compatibility problems of the inlined document.
func (p *Premailer) Warnings() []compat.Warning {
	if p.checked {
		return p.warnings
	}
	p.checked = true

	if !p.opts.warnLevel.Enabled() {
		return nil
	}
	doc := p.doc
	if _, err := p.InlineHTML(); err == nil {
		doc = p.inlined
	}
	ws, err := compat.Check(doc.Query(), p.opts.warnLevel)
	p.record("Compatibility check failed", err)
	p.warnings = ws
	return ws
}

// Diagnostics returns all non-fatal problems recorded so far, nil if there
// were none.
func (p *Premailer) Diagnostics() error {
	return p.diags.Err()
}

// Title returns document title.
func (p *Premailer) Title() string {
	return p.doc.Title()
}

// String returns loaded document after stylesheet collection and link
// conversion, without merged styles.
func (p *Premailer) String() string {
	s, err := p.doc.HTML()
	if err != nil {
		p.log.Debug("Unable to render document", zap.Error(err))
	}
	return s
}
