package checker

import (
	"context"
	"errors"

	"urlguard/internal/domain"
	"urlguard/internal/logging"
	"urlguard/internal/metrics"
	"urlguard/internal/report"
)

// Lookup resolves expressions against the active blocklist.
type Lookup interface {
	Lookup(ctx context.Context, exprs []string) ([]domain.Verdict, error)
}

// Result is the outcome of a single Check.
type Result struct {
	ID          string
	Raw         string
	Canonical   domain.CanonicalURL
	Expressions []string
	Matches     []domain.Verdict // listed expressions, most specific first
	Blocked     bool
	Allowlisted bool
}

type Checker struct {
	lookup   Lookup
	canon    *domain.Canonicalizer
	allow    *Allowlist
	reporter report.Reporter
	metrics  *metrics.Metrics
}

type Option func(*Checker)

func WithOptions(opts domain.Options) Option {
	return func(c *Checker) { c.canon = domain.NewCanonicalizer(opts) }
}

func WithAllowlist(a *Allowlist) Option {
	return func(c *Checker) { c.allow = a }
}

func WithReporter(r report.Reporter) Option {
	return func(c *Checker) { c.reporter = r }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Checker) { c.metrics = m }
}

func New(lookup Lookup, opts ...Option) *Checker {
	c := &Checker{
		lookup:   lookup,
		canon:    domain.NewCanonicalizer(domain.Options{}),
		reporter: report.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Checker) Canonicalize(raw string) (domain.CanonicalURL, error) {
	u, err := c.canon.Canonicalize(raw)
	if err != nil {
		c.metrics.ObserveRejected(RejectReason(err))
	}
	return u, err
}

func (c *Checker) Expressions(raw string) (*domain.Generator, error) {
	u, err := c.Canonicalize(raw)
	if err != nil {
		return nil, err
	}
	gen, err := domain.NewGenerator(u)
	if err != nil {
		c.metrics.ObserveRejected(RejectReason(err))
		return nil, err
	}
	return gen, nil
}

// Check canonicalizes raw and looks up every expression. A URL that cannot
// be canonicalized, or whose host has a single label, returns an error and
// is never reported as clean.
func (c *Checker) Check(ctx context.Context, raw string) (Result, error) {
	gen, err := c.Expressions(raw)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Raw:         raw,
		Canonical:   gen.URL(),
		Expressions: gen.Values(),
	}

	if p, ok := c.allow.Match(res.Canonical); ok {
		res.Allowlisted = true
		logging.FromContext(ctx).Debug().Str("pattern", p).Str("url", res.Canonical.String()).Msg("allowlisted")
	} else {
		verdicts, err := c.lookup.Lookup(ctx, res.Expressions)
		if err != nil {
			return Result{}, err
		}
		for _, v := range verdicts {
			if v.Listed {
				res.Matches = append(res.Matches, v)
			}
		}
		res.Blocked = len(res.Matches) > 0
	}

	c.metrics.ObserveCheck(resultLabel(res))

	ev := report.NewEvent(raw, res.Canonical, res.Expressions, res.Matches, res.Allowlisted)
	res.ID = ev.ID
	if err := c.reporter.Report(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("id", ev.ID).Msg("report failed")
	}

	return res, nil
}

func resultLabel(r Result) string {
	switch {
	case r.Allowlisted:
		return metrics.ResultAllowlisted
	case r.Blocked:
		return metrics.ResultBlocked
	default:
		return metrics.ResultClean
	}
}

// RejectReason maps a canonicalization or generation error to a short label.
func RejectReason(err error) string {
	var mhe *domain.MalformedHostError
	switch {
	case errors.As(err, &mhe):
		return "malformed_host"
	case errors.Is(err, domain.ErrEmptyURL):
		return "empty_url"
	case errors.Is(err, domain.ErrUnsupportedScheme):
		return "unsupported_scheme"
	case errors.Is(err, domain.ErrInvalidHost):
		return "invalid_host"
	case errors.Is(err, domain.ErrInvalidPort):
		return "invalid_port"
	case errors.Is(err, domain.ErrDecodeLimit):
		return "decode_limit"
	default:
		return "invalid"
	}
}
