package domain

import (
	"iter"
	"strings"
)

const (
	maxHostVariants = 5
	maxPathPrefixes = 3
)

// Expression is a host+path lookup key.
type Expression struct {
	host  string
	path  string
	value string
}

func NewExpression(host, path string) Expression {
	return Expression{host: host, path: path, value: host + path}
}

func (e Expression) Host() string   { return e.host }
func (e Expression) Path() string   { return e.path }
func (e Expression) String() string { return e.value }

// Generator enumerates the lookup expressions of one canonical URL.
// The host and path variants are computed once; iteration is index driven,
// so every walk yields the same sequence.
type Generator struct {
	url   CanonicalURL
	hosts []string
	paths []string
}

// GenerateExpressions canonicalizes raw with default options and builds
// its generator.
func GenerateExpressions(raw string) (*Generator, error) {
	u, err := Canonicalize(raw)
	if err != nil {
		return nil, err
	}
	return NewGenerator(u)
}

func NewGenerator(u CanonicalURL) (*Generator, error) {
	hosts, err := hostVariants(u.Host)
	if err != nil {
		return nil, err
	}
	return &Generator{
		url:   u,
		hosts: hosts,
		paths: pathVariants(u.Path, u.Query, u.HasQuery),
	}, nil
}

func (g *Generator) URL() CanonicalURL { return g.url }

func (g *Generator) Hosts() []string { return append([]string(nil), g.hosts...) }

func (g *Generator) Paths() []string { return append([]string(nil), g.paths...) }

func (g *Generator) Len() int { return len(g.hosts) * len(g.paths) }

// At returns the i-th expression: hosts are the outer loop, paths the inner.
func (g *Generator) At(i int) Expression {
	return NewExpression(g.hosts[i/len(g.paths)], g.paths[i%len(g.paths)])
}

// All yields expressions from most to least specific.
func (g *Generator) All() iter.Seq[Expression] {
	return func(yield func(Expression) bool) {
		for i := 0; i < g.Len(); i++ {
			if !yield(g.At(i)) {
				return
			}
		}
	}
}

// Values returns every expression string in order.
func (g *Generator) Values() []string {
	out := make([]string, 0, g.Len())
	for e := range g.All() {
		out = append(out, e.String())
	}
	return out
}

// hostVariants returns the full host followed by up to four shorter
// suffixes, the last being the top two labels. IP literals are never split.
func hostVariants(host string) ([]string, error) {
	if isIPLiteral(host) {
		return []string{host}, nil
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return nil, &MalformedHostError{Host: host}
	}

	variants := make([]string, 0, maxHostVariants)
	variants = append(variants, host)

	start := max(len(labels)-maxHostVariants, 1)
	for i := start; i < len(labels)-1; i++ {
		variants = append(variants, strings.Join(labels[i:], "."))
	}
	return variants, nil
}

// pathVariants returns path+query, path, up to three directory prefixes
// and finally "/".
func pathVariants(path, query string, hasQuery bool) []string {
	variants := make([]string, 0, maxPathPrefixes+3)
	if hasQuery {
		variants = append(variants, path+"?"+query)
	}
	variants = append(variants, path)

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > maxPathPrefixes {
		parts = parts[:maxPathPrefixes]
	}
	// Without a fourth '/', the last part is the leaf itself.
	if strings.Count(path, "/") < 4 {
		parts = parts[:len(parts)-1]
	}
	for ; len(parts) > 0; parts = parts[:len(parts)-1] {
		variants = appendUnique(variants, "/"+strings.Join(parts, "/")+"/")
	}

	if path != "/" {
		variants = appendUnique(variants, "/")
	}
	return variants
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
