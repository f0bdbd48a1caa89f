package engine

import (
	"runtime"

	"github.com/rs/zerolog"

	"formmap/internal/choice"
)

// DefaultMaxIssues bounds the structural issues reported for one document.
const DefaultMaxIssues = 100

// DefaultSuggestions is the number of close codes named in an
// UnknownChoiceValue message.
const DefaultSuggestions = 3

type options struct {
	strict      bool
	mode        choice.Mode
	maxIssues   int
	logger      zerolog.Logger
	workers     int
	assertions  bool
	suggestions int
}

func defaultOptions() options {
	return options{
		mode:        choice.ModeExact,
		maxIssues:   DefaultMaxIssues,
		logger:      zerolog.Nop(),
		workers:     runtime.GOMAXPROCS(0),
		assertions:  true,
		suggestions: DefaultSuggestions,
	}
}

// Option configures an Engine.
type Option func(*options)

// WithStrict drops the document of any run that produced errors.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithNormalization sets how choice values are normalized after an exact
// lookup misses. The default is choice.ModeExact.
func WithNormalization(mode choice.Mode) Option {
	return func(o *options) { o.mode = mode }
}

// WithMaxIssues bounds the structural issues collected per document.
// Zero or less means unbounded.
func WithMaxIssues(n int) Option {
	return func(o *options) { o.maxIssues = n }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithWorkers sets the batch concurrency. Values below 1 mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}

		o.workers = n
	}
}

// WithAssertions enables or disables the map's output assertions.
func WithAssertions(enabled bool) Option {
	return func(o *options) { o.assertions = enabled }
}

// WithSuggestions sets how many close codes an unknown choice value
// message names. Zero disables suggestions.
func WithSuggestions(n int) Option {
	return func(o *options) { o.suggestions = max(n, 0) }
}
