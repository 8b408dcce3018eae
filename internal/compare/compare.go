// Package compare contains the comparative analyses between the two
// recognition systems: paired statistics, hybrid best-case selection,
// error attribution, reliability and agreement.
//
// Every analysis is a pure function of its input batch. Empty or fully
// missing inputs produce a result whose InsufficientData field explains why,
// never an error.
package compare

import (
	"log/slog"

	"github.com/dysgair/capteval/internal/metrics"
	"github.com/dysgair/capteval/internal/model"
	"github.com/dysgair/capteval/internal/textproc"
)

// Comparator runs comparative analyses with shared display settings.
type Comparator struct {
	names   model.Names
	profile textproc.Profile
	logger  *slog.Logger
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithNames sets the system display names used in verdicts.
func WithNames(n model.Names) Option {
	return func(c *Comparator) { c.names = n }
}

// WithProfile sets the language profile used to find cluster-bearing targets.
func WithProfile(p textproc.Profile) Option {
	return func(c *Comparator) { c.profile = p }
}

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Comparator) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Comparator. Defaults are the built-in system names and the
// Welsh profile.
func New(opts ...Option) *Comparator {
	c := &Comparator{
		names:   model.DefaultNames,
		profile: textproc.Welsh(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Names returns the configured system names.
func (c *Comparator) Names() model.Names {
	return c.names
}

// greater returns the name of system A when a > b and system B otherwise,
// so exact ties favor B.
func (c *Comparator) greater(a, b float64) string {
	if a > b {
		return c.names.A
	}
	return c.names.B
}

func collect(samples []model.Sample, pick func(model.Sample) *float64) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if v := pick(s); v != nil {
			out = append(out, metrics.SafeFloat(*v, 0))
		}
	}
	return out
}

func cerOf(src model.Source) func(model.Sample) *float64 {
	return func(s model.Sample) *float64 { return s.Variant(src).CER }
}

func werOf(src model.Source) func(model.Sample) *float64 {
	return func(s model.Sample) *float64 { return s.Variant(src).WER }
}
