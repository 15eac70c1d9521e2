package report

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"urlguard/internal/domain"
)

// Event is the record emitted for every completed check.
type Event struct {
	ID                string           `json:"id"`
	Raw               string           `json:"raw"`
	Canonical         string           `json:"canonical"`
	RegistrableDomain string           `json:"registrable_domain,omitempty"`
	Expressions       []string         `json:"expressions,omitempty"`
	Blocked           bool             `json:"blocked"`
	Allowlisted       bool             `json:"allowlisted"`
	Matches           []domain.Verdict `json:"matches,omitempty"`
	CheckedAt         time.Time        `json:"checked_at"`
}

// NewEvent stamps an id and time on a check outcome.
func NewEvent(raw string, u domain.CanonicalURL, exprs []string, matches []domain.Verdict, allowlisted bool) Event {
	return Event{
		ID:                uuid.NewString(),
		Raw:               raw,
		Canonical:         u.String(),
		RegistrableDomain: RegistrableDomain(u),
		Expressions:       exprs,
		Blocked:           len(matches) > 0,
		Allowlisted:       allowlisted,
		Matches:           matches,
		CheckedAt:         time.Now().UTC(),
	}
}

// RegistrableDomain returns eTLD+1 of the host, or "" for IPs and bare suffixes.
func RegistrableDomain(u domain.CanonicalURL) string {
	if u.IsIP() {
		return ""
	}
	d, err := publicsuffix.EffectiveTLDPlusOne(strings.TrimSuffix(u.Host, "."))
	if err != nil {
		return ""
	}
	return d
}

type Reporter interface {
	Report(ctx context.Context, ev Event) error
}

type nop struct{}

func (nop) Report(context.Context, Event) error { return nil }

// Nop discards events.
func Nop() Reporter { return nop{} }

type multi []Reporter

func (m multi) Report(ctx context.Context, ev Event) error {
	var errs []error
	for _, r := range m {
		if err := r.Report(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Multi fans an event out to every reporter; nil reporters are dropped.
func Multi(rs ...Reporter) Reporter {
	out := make(multi, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return Nop()
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}
