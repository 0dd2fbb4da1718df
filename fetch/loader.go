// Package fetch loads documents and stylesheets from local files or over
// HTTP, decoding them to UTF-8.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"premail/links"
)

var cssCharsetRe = regexp.MustCompile(`^@charset\s+["']([^"']+)["']\s*;`)

// ErrStatus is returned when remote server responds with anything but 200.
var ErrStatus = errors.New("unexpected HTTP status")

// Loader reads resources, it is safe for sequential reuse.
type Loader struct {
	client        *http.Client
	userAgent     string
	authorization string
	encoding      encoding.Encoding
	log           *zap.Logger
}

type Option func(*Loader)

// WithTimeout bounds every remote request, zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.client.Timeout = d
	}
}

func WithUserAgent(ua string) Option {
	return func(l *Loader) {
		l.userAgent = ua
	}
}

// WithAuthorization sets Authorization header for remote requests.
func WithAuthorization(auth string) Option {
	return func(l *Loader) {
		l.authorization = auth
	}
}

// WithEncoding forces character set of loaded documents instead of detecting
// it.
func WithEncoding(enc encoding.Encoding) Option {
	return func(l *Loader) {
		l.encoding = enc
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		l.client = c
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) {
		l.log = log
	}
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{client: &http.Client{}, log: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.Named("fetch")
	return l
}

// Document loads HTML document. Character set is taken from forced
// encoding, HTTP headers, BOM or <meta> in that order, falling back to UTF-8
// detection.
func (l *Loader) Document(ctx context.Context, location string) (string, error) {
	data, contentType, err := l.read(ctx, location)
	if err != nil {
		return "", err
	}
	return l.decode(data, contentType, l.encoding)
}

// Stylesheet loads CSS text, @charset rule is honoured when transport does
// not specify character set.
func (l *Loader) Stylesheet(ctx context.Context, location string) (string, error) {
	data, contentType, err := l.read(ctx, location)
	if err != nil {
		return "", err
	}

	var enc encoding.Encoding
	if _, params, err := mime.ParseMediaType(contentType); err != nil || params["charset"] == "" {
		if m := cssCharsetRe.FindSubmatch(data); m != nil {
			enc, _ = charset.Lookup(string(m[1]))
		}
	}
	return l.decode(data, contentType, enc)
}

func (l *Loader) read(ctx context.Context, location string) ([]byte, string, error) {
	if links.IsAbsoluteURI(location) {
		return l.get(ctx, location)
	}

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	l.log.Debug("Reading file", zap.String("path", location))
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, "", fmt.Errorf("unable to read %s: %w", location, err)
	}
	return data, "", nil
}

func (l *Loader) get(ctx context.Context, location string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, "", fmt.Errorf("unable to prepare request for %s: %w", location, err)
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}
	if l.authorization != "" {
		req.Header.Set("Authorization", l.authorization)
	}

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("unable to fetch %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unable to fetch %s: %w: %s", location, ErrStatus, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("unable to read response from %s: %w", location, err)
	}

	l.log.Debug("Fetched", zap.String("url", location), zap.Int("bytes", len(data)), zap.Duration("elapsed", time.Since(start)))
	return data, resp.Header.Get("Content-Type"), nil
}

// decode converts data to UTF-8, enc when not nil takes precedence over
// detection.
func (l *Loader) decode(data []byte, contentType string, enc encoding.Encoding) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if enc == nil {
		var name string
		enc, name, _ = charset.DetermineEncoding(data, contentType)
		l.log.Debug("Detected character set", zap.String("charset", name))
	}
	if enc == encoding.Nop {
		return strings.TrimPrefix(string(data), "\uFEFF"), nil
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("unable to decode content: %w", err)
	}
	return string(bytes.TrimPrefix(out, []byte("\uFEFF"))), nil
}
