package domain

import "strings"

const upperhex = "0123456789ABCDEF"

// unescape decodes %XX sequences until the string stops changing.
// More than maxPasses changing passes is an error.
func unescape(s string, maxPasses int) (string, error) {
	for pass := 0; ; pass++ {
		next := unescapeOnce(s)
		if next == s {
			return s, nil
		}
		if pass >= maxPasses {
			return "", ErrDecodeLimit
		}
		s = next
	}
}

// unescapeOnce decodes one level of %XX escapes. Malformed escapes
// are kept as literal text.
func unescapeOnce(s string) string {
	if strings.IndexByte(s, '%') < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' && i+2 < len(s) && ishex(s[i+1]) && ishex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// escape percent-encodes every byte outside printable ASCII, plus '%' and '#'.
func escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !isSafe(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isSafe(c byte) bool {
	return c > ' ' && c < 0x7f && c != '%' && c != '#'
}

func ishex(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
