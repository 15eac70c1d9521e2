package domain

// IsBlocked reports whether any expression of gen is listed in reg.
// Expressions are tried most specific first and the walk stops on the first hit.
func IsBlocked(reg *Registry, gen *Generator) bool {
	if reg == nil || gen == nil {
		return false
	}

	for e := range gen.All() {
		if _, ok := reg.match(e.String()); ok {
			return true
		}
	}
	return false
}

// Matches returns the listed verdicts for gen, in expression order.
func Matches(reg *Registry, gen *Generator) []Verdict {
	if reg == nil || gen == nil {
		return nil
	}

	var out []Verdict
	for _, v := range reg.Lookup(gen.Values()) {
		if v.Listed {
			out = append(out, v)
		}
	}
	return out
}
