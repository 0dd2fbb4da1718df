package premail

import (
	"go.uber.org/zap"

	"premail/common"
	"premail/fetch"
	"premail/inline"
	"premail/links"
)

const (
	DefaultLineLength     = 65
	DefaultMaxImportDepth = 4
)

type options struct {
	warnLevel      common.WarnLevel
	lineLength     int
	queryString    string
	baseURL        string
	maxImportDepth int
	policy         links.Policy
	loader         *fetch.Loader
	recorder       inline.Recorder
	log            *zap.Logger
}

func defaultOptions() options {
	return options{
		warnLevel:      common.WarnLevelSafe,
		lineLength:     DefaultLineLength,
		maxImportDepth: DefaultMaxImportDepth,
		log:            zap.NewNop(),
	}
}

// Option changes processing of a single document.
type Option func(*options)

// WithWarnLevel sets lowest support tier reported by Warnings.
func WithWarnLevel(level common.WarnLevel) Option {
	return func(o *options) {
		o.warnLevel = level
	}
}

// WithLineLength sets plain text column width, non-positive values are
// ignored.
func WithLineLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.lineLength = n
		}
	}
}

// WithLinkQueryString sets query appended to every anchor link.
func WithLinkQueryString(query string) Option {
	return func(o *options) {
		o.queryString = query
	}
}

// WithBaseURL sets base relative links are made absolute against. Host
// without scheme is treated as http.
func WithBaseURL(base string) Option {
	return func(o *options) {
		o.baseURL = base
	}
}

func WithMaxImportDepth(depth int) Option {
	return func(o *options) {
		if depth >= 0 {
			o.maxImportDepth = depth
		}
	}
}

// WithPolicy sets link resolution policy.
func WithPolicy(policy links.Policy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// WithLoader sets loader used for documents and stylesheets.
func WithLoader(loader *fetch.Loader) Option {
	return func(o *options) {
		o.loader = loader
	}
}

// WithRecorder makes every loaded stylesheet to be passed to rec.
func WithRecorder(rec inline.Recorder) Option {
	return func(o *options) {
		o.recorder = rec
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}
