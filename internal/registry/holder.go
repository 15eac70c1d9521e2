package registry

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"urlguard/internal/domain"
)

// ErrNotReady is returned by Lookup before the first successful update.
var ErrNotReady = errors.New("registry not initialized")

type Holder struct {
	value atomic.Pointer[domain.Registry]
}

func NewHolder() *Holder {
	return &Holder{}
}

// Get returns the active registry, or nil before the first update.
func (h *Holder) Get() *domain.Registry {
	return h.value.Load()
}

func (h *Holder) Set(reg *domain.Registry) {
	h.value.Store(reg)
}

// Lookup checks exprs against the active registry.
func (h *Holder) Lookup(_ context.Context, exprs []string) ([]domain.Verdict, error) {
	reg := h.Get()
	if reg == nil {
		return nil, ErrNotReady
	}
	return reg.Lookup(exprs), nil
}

// Fresh reports whether a registry is loaded and was built within maxAge.
func (h *Holder) Fresh(maxAge time.Duration) bool {
	reg := h.Get()
	return reg != nil && time.Since(reg.UpdatedAt) <= maxAge
}
