package report

import (
	"context"

	"github.com/rs/zerolog"
)

// LogReporter writes blocked checks at warn and the rest at debug.
type LogReporter struct {
	log zerolog.Logger
}

func NewLogReporter(log zerolog.Logger) *LogReporter {
	return &LogReporter{log: log.With().Str("component", "report").Logger()}
}

func (r *LogReporter) Report(_ context.Context, ev Event) error {
	e := r.log.Debug()
	if ev.Blocked {
		e = r.log.Warn()
	}

	e = e.Str("id", ev.ID).
		Str("canonical", ev.Canonical).
		Bool("blocked", ev.Blocked).
		Bool("allowlisted", ev.Allowlisted)
	if ev.RegistrableDomain != "" {
		e = e.Str("domain", ev.RegistrableDomain)
	}
	if len(ev.Matches) > 0 {
		e = e.Str("match", ev.Matches[0].Expression)
		if t := ev.Matches[0].Threat; t != nil {
			e = e.Str("category", t.Category)
		}
	}
	e.Msg("url checked")
	return nil
}
