package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultMaxDecodePasses bounds repeated percent-decoding.
const DefaultMaxDecodePasses = 10

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
	"ftp":   "21",
}

// Options tune host handling. The zero value is the documented default:
// fail-open on malformed bracketed hosts and lenient IDNA.
type Options struct {
	// StrictIPv6 rejects bracketed hosts that do not parse as an address
	// instead of passing them through verbatim.
	StrictIPv6 bool
	// StrictIDNA validates every hostname against the IDNA2008 lookup
	// profile (STD3 rules, hyphen checks).
	StrictIDNA bool
	// MaxDecodePasses caps percent-decoding; <= 0 means DefaultMaxDecodePasses.
	MaxDecodePasses int
}

// Canonicalizer turns raw URL strings into CanonicalURL values.
// It holds no mutable state and is safe for concurrent use.
type Canonicalizer struct {
	opts Options
}

func NewCanonicalizer(opts Options) *Canonicalizer {
	if opts.MaxDecodePasses <= 0 {
		opts.MaxDecodePasses = DefaultMaxDecodePasses
	}
	return &Canonicalizer{opts: opts}
}

var defaultCanonicalizer = NewCanonicalizer(Options{})

// Canonicalize uses the default options.
func Canonicalize(raw string) (CanonicalURL, error) {
	return defaultCanonicalizer.Canonicalize(raw)
}

// Canonicalize takes a raw URL as a user or a feed would supply it
// and converts it to a deterministic, canonical form.
func (c *Canonicalizer) Canonicalize(raw string) (CanonicalURL, error) {
	s := stripControl(raw)
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return CanonicalURL{}, parseErr(raw, ErrEmptyURL)
	}

	decoded, err := unescape(s, c.opts.MaxDecodePasses)
	if err != nil {
		return CanonicalURL{}, parseErr(raw, err)
	}
	s = escape(decoded)

	scheme, rest, ok := splitScheme(s)
	if !ok {
		if name, opaque := opaqueScheme(s); opaque {
			return CanonicalURL{}, parseErr(raw, fmt.Errorf("%w: %s", ErrUnsupportedScheme, name))
		}
		scheme, rest = "http", s
	}
	scheme = strings.ToLower(scheme)
	defPort, ok := defaultPorts[scheme]
	if !ok {
		return CanonicalURL{}, parseErr(raw, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme))
	}

	authority, tail := rest, ""
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		authority, tail = rest[:i], rest[i:]
	}

	p, query, hasQuery := tail, "", false
	if i := strings.IndexByte(tail, '?'); i >= 0 {
		p, query, hasQuery = tail[:i], tail[i+1:], true
	}

	hostPart, port, err := splitHostPort(authority)
	if err != nil {
		return CanonicalURL{}, parseErr(raw, err)
	}

	host, err := c.canonicalizeHost(hostPart)
	if err != nil {
		return CanonicalURL{}, parseErr(raw, err)
	}

	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n > 65535 {
			return CanonicalURL{}, parseErr(raw, fmt.Errorf("%w: %s", ErrInvalidPort, port))
		}
		port = strconv.Itoa(n)
		if port == defPort {
			port = ""
		}
	}

	return CanonicalURL{
		Scheme:   scheme,
		Host:     host,
		Port:     port,
		Path:     canonicalizePath(p),
		Query:    query,
		HasQuery: hasQuery,
	}, nil
}

// controlStripper works on bytes, so non-UTF-8 input survives untouched.
var controlStripper = strings.NewReplacer("\t", "", "\r", "", "\n", "")

func stripControl(s string) string {
	if !strings.ContainsAny(s, "\t\r\n") {
		return s
	}
	return controlStripper.Replace(s)
}

// splitScheme returns the scheme when s starts with "scheme://".
func splitScheme(s string) (scheme, rest string, ok bool) {
	i := strings.Index(s, "://")
	if i <= 0 {
		return "", s, false
	}
	for j := 0; j < i; j++ {
		c := s[j]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case j > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return "", s, false
		}
	}
	return s[:i], s[i+3:], true
}

// opaqueSchemes are schemes written without "//" that must not be
// mistaken for a host:port pair.
var opaqueSchemes = map[string]struct{}{
	"about": {}, "blob": {}, "data": {}, "file": {}, "javascript": {},
	"magnet": {}, "mailto": {}, "news": {}, "sms": {}, "tel": {},
	"urn": {}, "vbscript": {},
}

// opaqueScheme reports whether s starts with a known "scheme:" that has
// no "//" after it, such as "mailto:" or "javascript:".
func opaqueScheme(s string) (string, bool) {
	i := strings.IndexByte(s, ':')
	if i <= 0 {
		return "", false
	}
	name := strings.ToLower(s[:i])
	_, ok := opaqueSchemes[name]
	return name, ok
}

// splitHostPort drops userinfo and separates a trailing numeric port.
func splitHostPort(authority string) (host, port string, err error) {
	if at := strings.LastIndexByte(authority, '@'); at != -1 {
		authority = authority[at+1:]
	}

	host = authority
	if strings.HasPrefix(authority, "[") {
		end := strings.IndexByte(authority, ']')
		if end == -1 {
			return authority, "", nil
		}
		host = authority[:end+1]
		rest := authority[end+1:]
		switch {
		case rest == "":
			return host, "", nil
		case rest[0] != ':':
			return "", "", fmt.Errorf("%w: %q", ErrInvalidHost, authority)
		}
		port = rest[1:]
	} else if i := strings.LastIndexByte(authority, ':'); i != -1 {
		host, port = authority[:i], authority[i+1:]
	}

	for i := 0; i < len(port); i++ {
		if port[i] < '0' || port[i] > '9' {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidPort, port)
		}
	}
	return host, port, nil
}

// canonicalizePath resolves "." and ".." segments and drops empty ones.
// The input is already in escaped form.
func canonicalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}

	segments := make([]string, 0, strings.Count(p, "/"))
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "..":
			// Popping past the root is a no-op.
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		case ".", "":
		default:
			segments = append(segments, seg)
		}
	}

	out := "/" + strings.Join(segments, "/")
	if strings.HasSuffix(p, "/") && !strings.HasSuffix(out, "/") {
		out += "/"
	}
	return out
}
