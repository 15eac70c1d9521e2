package registry

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"urlguard/internal/domain"
	"urlguard/internal/logging"
)

// EntrySource yields raw blocklist entries.
type EntrySource interface {
	Name() string
	Entries(ctx context.Context) ([]domain.Entry, error)
}

// Sources fetches every source concurrently and compiles the union into a
// single registry. Any failing source fails the whole fetch, so a partial
// list never replaces a complete one.
type Sources []EntrySource

func (s Sources) FetchRegistry(ctx context.Context) (*domain.Registry, error) {
	results := make([][]domain.Entry, len(s))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range s {
		g.Go(func() error {
			entries, err := src.Entries(gctx)
			if err != nil {
				return fmt.Errorf("source %s: %w", src.Name(), err)
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	all := make([]domain.Entry, 0, total)
	for _, r := range results {
		all = append(all, r...)
	}

	reg := domain.NewRegistry(all)

	log := logging.FromContext(ctx)
	for i, src := range s {
		log.Debug().Str("source", src.Name()).Int("entries", len(results[i])).Msg("source fetched")
	}
	log.Info().
		Int("entries", total).
		Int("listed", reg.Len()).
		Int("skipped", reg.Skipped).
		Msg("registry built")

	return reg, nil
}
