package inline

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"premail/css"
	"premail/fetch"
	"premail/links"
)

// Recorder keeps stylesheets as they were loaded, debug report is one.
type Recorder interface {
	StoreStylesheet(location, text string) error
}

// Aggregator collects CSS rules from <style> elements and linked
// stylesheets of a document.
type Aggregator struct {
	loader   *fetch.Loader
	resolver *links.Resolver
	parser   *css.Parser
	maxDepth int
	recorder Recorder
	log      *zap.Logger
}

// NewAggregator creates aggregator, @import rules are followed maxDepth
// levels deep.
func NewAggregator(loader *fetch.Loader, resolver *links.Resolver, maxDepth int, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{
		loader:   loader,
		resolver: resolver,
		parser:   css.NewParser(log),
		maxDepth: maxDepth,
		log:      log.Named("aggregator"),
	}
}

// SetRecorder makes aggregator pass every loaded stylesheet to rec.
func (a *Aggregator) SetRecorder(rec Recorder) {
	a.recorder = rec
}

// Aggregate returns rules of all stylesheets in document order and removes
// processed <style> and <link rel="stylesheet"> elements. Links for other
// media are removed without being loaded. Stylesheets which could not be
// loaded or parsed contribute nothing, problems are reported in returned
// error.
func (a *Aggregator) Aggregate(ctx context.Context, d *Document) ([]css.Rule, error) {
	var (
		rules     []css.Rule
		errs      error
		processed []*html.Node
	)
	seen := make(map[string]bool)

	d.doc.Find("link, style").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "style":
			processed = append(processed, s.Nodes[0])
			r, err := a.parse(ctx, s.Text(), "<style>", d.base, 0, seen)
			rules, errs = append(rules, r...), multierr.Append(errs, err)

		case "link":
			if rel, _ := s.Attr("rel"); !strings.EqualFold(strings.TrimSpace(rel), "stylesheet") {
				return
			}
			processed = append(processed, s.Nodes[0])

			href, ok := s.Attr("href")
			if !ok || strings.TrimSpace(href) == "" {
				return
			}
			if media, ok := s.Attr("media"); ok && !css.MediaMatches(media) {
				a.log.Debug("Skipping stylesheet for other media", zap.String("href", href), zap.String("media", media))
				return
			}
			location, err := a.resolver.Resolve(strings.TrimSpace(href), d.base)
			if err != nil {
				errs = multierr.Append(errs, err)
				return
			}
			r, err := a.load(ctx, location, 0, seen)
			rules, errs = append(rules, r...), multierr.Append(errs, err)
		}
	})

	d.doc.FindNodes(processed...).Remove()

	a.log.Debug("Stylesheets aggregated", zap.Int("elements", len(processed)), zap.Int("rules", len(rules)))
	return rules, errs
}

// load reads stylesheet at location, each location is loaded once.
func (a *Aggregator) load(ctx context.Context, location string, depth int, seen map[string]bool) ([]css.Rule, error) {
	if seen[location] {
		return nil, nil
	}
	seen[location] = true

	text, err := a.loader.Stylesheet(ctx, location)
	if err != nil {
		a.log.Debug("Skipping stylesheet", zap.String("location", location), zap.Error(err))
		return nil, err
	}
	if a.recorder != nil {
		if rerr := a.recorder.StoreStylesheet(location, text); rerr != nil {
			a.log.Debug("Unable to record stylesheet", zap.String("location", location), zap.Error(rerr))
		}
	}

	base, err := links.NewBase(location)
	if err != nil {
		return nil, err
	}
	if base.IsRemote() {
		var cerr error
		text, cerr = a.resolver.ConvertURLs(text, base)
		err = multierr.Append(err, cerr)
	}
	rules, perr := a.parse(ctx, text, location, base, depth, seen)
	return rules, multierr.Append(err, perr)
}

// parse returns rules of imported stylesheets followed by rules of text.
func (a *Aggregator) parse(ctx context.Context, text, source string, base links.Base, depth int, seen map[string]bool) ([]css.Rule, error) {
	sheet, errs := a.parser.Parse(text, source)

	var rules []css.Rule
	for _, imp := range sheet.Imports {
		if depth >= a.maxDepth {
			a.log.Debug("Import depth exceeded", zap.String("source", source), zap.String("import", imp))
			continue
		}
		location, err := a.resolver.Resolve(imp, base)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		r, err := a.load(ctx, location, depth+1, seen)
		rules, errs = append(rules, r...), multierr.Append(errs, err)
	}
	return append(rules, sheet.Rules...), errs
}
