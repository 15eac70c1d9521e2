package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"slices"
	"sort"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
)

const bloomFalsePositiveRate = 0.001

// Hash is the SHA-256 of an expression string.
type Hash [sha256.Size]byte

func HashExpression(expr string) Hash {
	return sha256.Sum256([]byte(expr))
}

// Prefix returns the leading 4 bytes, the unit stored in prefix lists.
func (h Hash) Prefix() uint32 {
	return binary.BigEndian.Uint32(h[:4])
}

// Registry is the in-memory form of a hash-prefix blocklist.
// Prefixes is consulted first; a prefix hit is confirmed against Threats,
// so prefix collisions never produce a match on their own.
type Registry struct {
	Prefixes  []uint32 // sorted, unique
	Threats   map[Hash]Threat
	Skipped   int // entries that could not be compiled
	UpdatedAt time.Time

	filter *bloom.BloomFilter
}

// NewRegistry compiles entries into a registry. Each active entry is keyed by
// the most specific expression of its canonical URL.
func NewRegistry(entries []Entry) *Registry {
	reg := &Registry{
		Threats:   make(map[Hash]Threat, len(entries)),
		UpdatedAt: time.Now(),
	}

	for _, e := range entries {
		if !e.Active {
			continue
		}
		key, err := EntryKey(e.URL)
		if err != nil {
			reg.Skipped++
			continue
		}
		h := HashExpression(key)
		if _, dup := reg.Threats[h]; !dup {
			reg.Prefixes = append(reg.Prefixes, h.Prefix())
		}
		reg.Threats[h] = e.Threat
	}

	slices.Sort(reg.Prefixes)
	reg.Prefixes = slices.Compact(reg.Prefixes)

	reg.filter = bloom.NewWithEstimates(uint(max(len(reg.Threats), 1)), bloomFalsePositiveRate)
	for h := range reg.Threats {
		reg.filter.Add(h[:])
	}
	return reg
}

// EntryKey returns the lookup key a blocklisted URL is stored under.
func EntryKey(raw string) (string, error) {
	gen, err := GenerateExpressions(raw)
	if err != nil {
		return "", err
	}
	return gen.At(0).String(), nil
}

// Len is the number of distinct listed expressions.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Threats)
}

// Lookup returns one verdict per expression, in the same order.
func (r *Registry) Lookup(exprs []string) []Verdict {
	out := make([]Verdict, len(exprs))
	for i, expr := range exprs {
		out[i].Expression = expr
		if t, ok := r.match(expr); ok {
			out[i].Listed = true
			out[i].Threat = &t
		}
	}
	return out
}

func (r *Registry) match(expr string) (Threat, bool) {
	if r == nil || len(r.Prefixes) == 0 {
		return Threat{}, false
	}

	h := HashExpression(expr)
	if r.filter != nil && !r.filter.Test(h[:]) {
		return Threat{}, false
	}

	p := h.Prefix()
	ps := r.Prefixes
	i := sort.Search(len(ps), func(i int) bool { return ps[i] >= p })
	if i == len(ps) || ps[i] != p {
		return Threat{}, false
	}

	t, ok := r.Threats[h]
	return t, ok
}
