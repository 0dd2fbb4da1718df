package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"premail/common"
	"premail/compat"
	"premail/fetch"
	"premail/links"
	"premail/premail"
	"premail/state"
)

// Inline merges stylesheets of source document(s) into style attributes and
// writes results (optionally with plain text version) to destination.
func Inline(ctx context.Context, cmd *cli.Command) error {
	return run(ctx, cmd, common.ActionInline)
}

// Text writes plain text version of source document(s).
func Text(ctx context.Context, cmd *cli.Command) error {
	return run(ctx, cmd, common.ActionText)
}

// Check only reports compatibility problems of source document(s).
func Check(ctx context.Context, cmd *cli.Command) error {
	return run(ctx, cmd, common.ActionCheck)
}

func run(ctx context.Context, cmd *cli.Command, action common.Action) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named(action.String())

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if !links.IsAbsoluteURI(src) {
		if src, err = filepath.Abs(src); err != nil {
			return err
		}
	}

	var dst string
	if action != common.ActionCheck {
		dst = cmd.Args().Get(1)
		if len(dst) == 0 {
			if dst, err = os.Getwd(); err != nil {
				return fmt.Errorf("unable to get working directory: %w", err)
			}
		}
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
		if cmd.Args().Len() > 2 {
			log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
		}
		env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")
	} else if cmd.Args().Len() > 1 {
		log.Warn("Mailformed command line, check does not need destination", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	// command line takes precedence over configuration
	if cmd.IsSet("warn-level") {
		if level, err := common.ParseWarnLevel(cmd.String("warn-level")); err != nil {
			log.Warn("Unknown warning level requested, using configured", zap.Stringer("level", env.Cfg.Document.WarnLevel), zap.Error(err))
		} else {
			env.Cfg.Document.WarnLevel = level
		}
	}

	cs := env.Cfg.Document.Charset
	if cmd.IsSet("charset") {
		cs = cmd.String("charset")
	}
	if len(cs) > 0 {
		env.Charset, err = ianaindex.IANA.Encoding(cs)
		if err != nil || env.Charset == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cs), zap.Error(err))
			env.Charset = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.Charset)
			log.Debug("Forcefully decoding all input documents", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, action, log)
}

// process handles the core logic independently of CLI framework. Source could
// be a remote document, a single local file or a directory.
func process(ctx context.Context, src, dst string, action common.Action, log *zap.Logger) error {
	if links.IsAbsoluteURI(src) {
		return processDocument(ctx, src, src, dst, action, log)
	}

	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("input source was not found (%s): %w", src, err)
	}
	if fi.Mode().IsDir() {
		if err := processDir(ctx, src, dst, action, log); err != nil {
			return fmt.Errorf("unable to process directory: %w", err)
		}
		return nil
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("unexpected path mode for (%s)", src)
	}
	return processDocument(ctx, src, filepath.Base(src), dst, action, log)
}

func isHTMLFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// processDir walks directory tree finding html files and processes them in
// natural order.
func processDir(ctx context.Context, dir, dst string, action common.Action, log *zap.Logger) error {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if !isHTMLFile(path) {
			log.Debug("Skipping file, not recognized as html", zap.String("file", path))
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
		return nil
	}

	slices.SortFunc(files, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}
		return 0
	})

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processDocument(ctx, path, src, dst, action, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
	}
	return nil
}

// documentOptions translates configuration into processing options.
func documentOptions(env *state.LocalEnv, log *zap.Logger) []premail.Option {
	doc, fc := &env.Cfg.Document, &env.Cfg.Fetch

	loader := fetch.NewLoader(
		fetch.WithTimeout(fc.Timeout),
		fetch.WithUserAgent(fc.UserAgent),
		fetch.WithAuthorization(fc.Authorization.Reveal()),
		fetch.WithEncoding(env.Charset),
		fetch.WithLogger(log),
	)
	opts := []premail.Option{
		premail.WithWarnLevel(doc.WarnLevel),
		premail.WithLineLength(doc.LineLength),
		premail.WithLinkQueryString(doc.LinkQueryString),
		premail.WithBaseURL(doc.BaseURL),
		premail.WithMaxImportDepth(fc.MaxImportDepth),
		premail.WithPolicy(links.Policy{MailContext: doc.MailContext, LocalAssetRoot: doc.LocalAssetRoot}),
		premail.WithLoader(loader),
		premail.WithLogger(log),
	}
	if env.Rpt != nil {
		// stylesheets may change or disappear before report is looked at
		opts = append(opts, premail.WithRecorder(env.Rpt))
	}
	return opts
}

// processDocument processes single document. "location" is where document
// is loaded from, "src" is part of the source path (always including file
// name) relative to the original path, it determines output name. "dst" is
// the destination directory.
func processDocument(ctx context.Context, location, src, dst string, action common.Action, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputs []string

	log.Info("Processing document", zap.String("from", location))
	defer func(start time.Time) {
		// NOTE: one broken document should not stop the whole run
		if r := recover(); r != nil {
			log.Error("Processing ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("processing panic: %v", r)
		} else {
			log.Info("Processing document completed", zap.Duration("elapsed", time.Since(start)), zap.Strings("to", outputs))
		}
	}(time.Now())

	p, err := premail.New(ctx, location, documentOptions(env, log)...)
	if err != nil {
		return err
	}
	if env.Rpt != nil && !links.IsAbsoluteURI(location) {
		env.Rpt.Store("source/"+filepath.ToSlash(src), location)
	}

	switch action {
	case common.ActionCheck:
		ws := reportWarnings(p, log)
		log.Info("Document checked", zap.String("title", p.Title()), zap.Int("warnings", len(ws)))
	case common.ActionInline:
		reportWarnings(p, log)
		out, err := p.InlineHTML()
		if err != nil {
			return fmt.Errorf("unable to inline styles: %w", err)
		}
		name, err := writeOutput(p.Title(), src, dst, ".html", out, action, env)
		if err != nil {
			return err
		}
		outputs = append(outputs, name)
		if !env.Cfg.Document.PlainText {
			break
		}
		fallthrough
	case common.ActionText:
		name, err := writeOutput(p.Title(), src, dst, ".txt", p.PlainText(), action, env)
		if err != nil {
			return err
		}
		outputs = append(outputs, name)
	}

	if err := p.Diagnostics(); err != nil {
		log.Warn("Document processed with problems", zap.String("from", location), zap.Error(err))
	}

	// Store processing state for debugging
	if env.Rpt != nil {
		name := filepath.ToSlash(src)
		if links.IsAbsoluteURI(src) {
			name = sourceName(src)
		}
		env.Rpt.StoreData("debug/"+name+".txt", []byte(p.DebugString()))
	}
	return nil
}

// reportWarnings logs compatibility problems of inlined document.
func reportWarnings(p *premail.Premailer, log *zap.Logger) []compat.Warning {
	ws := p.Warnings()
	for _, w := range ws {
		log.Warn("Compatibility problem",
			zap.String("problem", w.Message), zap.Stringer("level", w.Level), zap.Strings("clients", w.Clients))
	}
	return ws
}

func writeOutput(title, src, dst, ext, content string, action common.Action, env *state.LocalEnv) (string, error) {
	outputName := buildOutputPath(title, src, dst, ext, action, env)

	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return "", fmt.Errorf("output file already exists: %s", outputName)
		}
		env.Log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return "", err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return "", fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := os.WriteFile(outputName, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("unable to write output: %w", err)
	}

	// Store result for debugging
	if env.Rpt != nil {
		rel, err := filepath.Rel(dst, outputName)
		if err != nil {
			rel = filepath.Base(outputName)
		}
		env.Rpt.Store("result/"+filepath.ToSlash(rel), outputName)
	}
	return outputName, nil
}
