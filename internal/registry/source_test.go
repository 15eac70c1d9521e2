package registry

import (
	"context"
	"errors"
	"testing"

	"urlguard/internal/domain"
)

type staticSource struct {
	name    string
	entries []domain.Entry
	err     error
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) Entries(context.Context) ([]domain.Entry, error) {
	return s.entries, s.err
}

func TestSources_Union(t *testing.T) {
	srcs := Sources{
		staticSource{name: "a", entries: []domain.Entry{{URL: "evil.com", Active: true}}},
		staticSource{name: "b", entries: []domain.Entry{
			{URL: "phish.example.org/login", Active: true},
			{URL: "http://EVIL.com/", Active: true},
			{URL: "localhost", Active: true},
		}},
	}

	reg, err := srcs.FetchRegistry(context.Background())
	if err != nil {
		t.Fatalf("FetchRegistry: %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 listed expressions, got %d", reg.Len())
	}
	if reg.Skipped != 1 {
		t.Fatalf("expected 1 skipped entry, got %d", reg.Skipped)
	}
}

func TestSources_FailureFailsAll(t *testing.T) {
	boom := errors.New("unreachable")
	srcs := Sources{
		staticSource{name: "ok", entries: []domain.Entry{{URL: "evil.com", Active: true}}},
		staticSource{name: "feed", err: boom},
	}

	_, err := srcs.FetchRegistry(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

func TestSources_Empty(t *testing.T) {
	reg, err := Sources(nil).FetchRegistry(context.Background())
	if err != nil {
		t.Fatalf("FetchRegistry: %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", reg.Len())
	}
}
