package registry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"urlguard/internal/domain"
	"urlguard/internal/logging"
)

type Fetcher interface {
	FetchRegistry(ctx context.Context) (*domain.Registry, error)
}

type Config struct {
	Interval       time.Duration // base update interval
	InitialBackoff time.Duration // initial backoff delay
	MaxBackoff     time.Duration // maximum backoff delay
	Timeout        time.Duration // per-update deadline

	// Trigger requests an out-of-band update, e.g. after a list file changed.
	Trigger <-chan struct{}
	// OnUpdate is called after every attempt with the new registry or the error.
	OnUpdate func(reg *domain.Registry, err error)
}

// Start runs background registry updates until the context stops.
func Start(ctx context.Context, cfg Config, src Fetcher, holder *Holder) error {
	if cfg.Interval <= 0 {
		return nil // config should already be validated
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 30 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	log := logging.FromContext(ctx).With().Str("component", "registry").Logger()

	// Perform the first update immediately on startup
	if err := updateOnce(ctx, cfg, src, holder); err != nil {
		log.Error().Err(err).Msg("initial update failed")
	} else {
		log.Info().Int("entries", holder.Get().Len()).Msg("initial update succeeded")
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	var consecutiveFailures int

	for {
		select {
		case <-ctx.Done():
			log.Info().Err(ctx.Err()).Msg("updater stopped")
			return ctx.Err()

		case <-cfg.Trigger:
			if err := updateOnce(ctx, cfg, src, holder); err != nil {
				log.Warn().Err(err).Msg("triggered update failed, keeping previous registry")
				continue
			}
			log.Info().Int("entries", holder.Get().Len()).Msg("registry reloaded on trigger")

		case <-ticker.C:
			if err := updateOnce(ctx, cfg, src, holder); err != nil {
				consecutiveFailures++
				backoff := calcBackoff(cfg.InitialBackoff, cfg.MaxBackoff, consecutiveFailures)

				log.Warn().Err(err).
					Int("attempt", consecutiveFailures).
					Dur("backoff", backoff).
					Msg("update failed")

				timer := time.NewTimer(backoff)
				select {
				case <-ctx.Done():
					timer.Stop()
					log.Info().Err(ctx.Err()).Msg("updater stopped during backoff")
					return ctx.Err()
				case <-timer.C:
				}
				continue
			}

			if consecutiveFailures > 0 {
				log.Info().Int("failures", consecutiveFailures).Msg("update recovered")
			}
			consecutiveFailures = 0
		}
	}
}

func calcBackoff(initial, max time.Duration, failures int) time.Duration {
	pow := math.Pow(2, float64(failures-1))
	backoff := time.Duration(float64(initial) * pow)
	if backoff > max {
		backoff = max
	}

	// Add jitter to avoid synchronized retries
	jitterFrac := 0.2
	jitter := time.Duration(rand.Float64()*2*jitterFrac*float64(backoff)) -
		time.Duration(jitterFrac*float64(backoff))

	return backoff + jitter
}

// updateOnce fetches the registry and swaps it into the holder.
// On failure the previous registry stays active.
func updateOnce(ctx context.Context, cfg Config, src Fetcher, holder *Holder) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	reg, err := src.FetchRegistry(ctx)
	if err == nil {
		holder.Set(reg)
	}
	if cfg.OnUpdate != nil {
		cfg.OnUpdate(reg, err)
	}
	return err
}
