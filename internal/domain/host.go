package domain

import (
	"fmt"
	"math/big"
	"net/netip"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
	"golang.org/x/text/encoding/charmap"
)

// Hosts are lowercased before these run, so the patterns are lower-case only.
var (
	possibleIPv4 = regexp.MustCompile(`^(?:0x[0-9a-f]+|[0-9.])+$`)
	badOctal     = regexp.MustCompile(`(?:^|\.)0\d*[89]`)
	hexComponent = regexp.MustCompile(`^0x([0-9a-f]+)$`)
	octComponent = regexp.MustCompile(`^0([0-7]+)$`)
	decComponent = regexp.MustCompile(`^([0-9]+)$`)
)

var (
	// lenientIDNA applies UTS #46 lookup mapping but tolerates non-LDH
	// ASCII such as '_' which shows up in real malicious hostnames.
	lenientIDNA = idna.New(
		idna.MapForLookup(),
		idna.Transitional(false),
		idna.StrictDomainName(false),
	)
	strictIDNA = idna.Lookup
)

var sixToFour = netip.MustParsePrefix("2002::/16")

// hostDelims may not appear in a hostname once it is decoded.
const hostDelims = ":/?#@[]\\"

// canonicalizeHost takes a host in escaped form (no port, no userinfo)
// and returns its canonical escaped form.
func (c *Canonicalizer) canonicalizeHost(host string) (string, error) {
	if host == "" {
		return "", fmt.Errorf("%w: empty host", ErrInvalidHost)
	}
	if host[0] == '[' {
		return c.canonicalizeIPv6(host)
	}

	raw := lowerASCII(unescapeOnce(host))
	raw = collapseDots(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty host", ErrInvalidHost)
	}

	if ip, ok := parseIPv4(raw); ok {
		return ip, nil
	}

	if strings.ContainsAny(raw, hostDelims) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHost, raw)
	}

	name, err := c.encodeHostname(raw)
	if err != nil {
		return "", err
	}

	// IDNA mapping can produce dots, digits and delimiters (U+3002,
	// full-width forms), so the ASCII result is normalized again.
	name = collapseDots(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty host", ErrInvalidHost)
	}
	if ip, ok := parseIPv4(name); ok {
		return ip, nil
	}
	if strings.ContainsAny(name, hostDelims) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHost, name)
	}
	return escape(name), nil
}

func (c *Canonicalizer) canonicalizeIPv6(host string) (string, error) {
	raw := unescapeOnce(host)
	if len(raw) > 2 && raw[len(raw)-1] == ']' {
		if addr, err := netip.ParseAddr(raw[1 : len(raw)-1]); err == nil {
			return escape(formatLiteral(addr)), nil
		}
	}

	if c.opts.StrictIPv6 {
		return "", fmt.Errorf("%w: bad IPv6 literal %q", ErrInvalidHost, raw)
	}
	// Unparseable literal: keep it verbatim.
	return host, nil
}

func formatLiteral(addr netip.Addr) string {
	switch {
	case addr.Is4():
		return addr.String()
	case addr.Is4In6():
		return addr.Unmap().String()
	case sixToFour.Contains(addr.WithZone("")):
		b := addr.As16()
		return netip.AddrFrom4([4]byte{b[2], b[3], b[4], b[5]}).String()
	default:
		return "[" + addr.String() + "]"
	}
}

// parseIPv4 interprets host as a numeric IPv4 address the way inet_aton
// does, with hex, octal and decimal components.
func parseIPv4(host string) (string, bool) {
	if !possibleIPv4.MatchString(host) {
		return "", false
	}
	parts := strings.Split(host, ".")
	if len(parts) > 4 {
		return "", false
	}

	// A single 08/09-style component disables octal for the whole host.
	allowOctal := !badOctal.MatchString(host)

	ip := make([]byte, 0, 4)
	for i, part := range parts {
		n, ok := parseIPComponent(part, allowOctal)
		if !ok {
			return "", false
		}

		if i < len(parts)-1 {
			ip = append(ip, lowByte(n))
			continue
		}

		// The last component fills every remaining byte.
		remaining := 4 - len(ip)
		if n.BitLen() > 8*remaining {
			return "", false
		}
		buf := make([]byte, remaining)
		n.FillBytes(buf)
		ip = append(ip, buf...)
	}

	return fmt.Sprintf("%d.%d.%d.%d", ip[0], ip[1], ip[2], ip[3]), true
}

func parseIPComponent(s string, allowOctal bool) (*big.Int, bool) {
	var digits string
	base := 10
	if m := hexComponent.FindStringSubmatch(s); m != nil {
		digits, base = m[1], 16
	} else if m := octComponent.FindStringSubmatch(s); m != nil && allowOctal {
		digits, base = m[1], 8
	} else if m := decComponent.FindStringSubmatch(s); m != nil {
		digits = m[1]
	} else {
		return nil, false
	}
	return new(big.Int).SetString(digits, base)
}

func lowByte(n *big.Int) byte {
	b := n.Bytes()
	if len(b) == 0 {
		return 0
	}
	return b[len(b)-1]
}

// encodeHostname converts a decoded, lowercased hostname to its ASCII form.
func (c *Canonicalizer) encodeHostname(raw string) (string, error) {
	if isASCII(raw) {
		if c.opts.StrictIDNA {
			if _, err := strictIDNA.ToASCII(raw); err != nil {
				return "", fmt.Errorf("%w: idna: %v", ErrInvalidHost, err)
			}
		}
		return raw, nil
	}

	if !utf8.ValidString(raw) {
		// Not UTF-8, so read the bytes as Latin-1.
		s, err := charmap.ISO8859_1.NewDecoder().String(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidHost, err)
		}
		raw = s
	}

	profile := lenientIDNA
	if c.opts.StrictIDNA {
		profile = strictIDNA
	}
	ascii, err := profile.ToASCII(raw)
	if err != nil {
		return "", fmt.Errorf("%w: idna: %v", ErrInvalidHost, err)
	}
	return lowerASCII(ascii), nil
}

// collapseDots strips leading and trailing dots and squeezes runs of dots.
func collapseDots(s string) string {
	s = strings.Trim(s, ".")
	if !strings.Contains(s, "..") {
		return s
	}
	labels := strings.Split(s, ".")
	out := labels[:0]
	for _, l := range labels {
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, ".")
}

// lowerASCII lowercases A-Z only and leaves every other byte untouched,
// including invalid UTF-8.
func lowerASCII(s string) string {
	i := 0
	for ; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			break
		}
	}
	if i == len(s) {
		return s
	}

	b := []byte(s)
	for ; i < len(b); i++ {
		if c := b[i]; c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// isIPLiteral reports whether a canonical host is an address rather than a name.
func isIPLiteral(host string) bool {
	if strings.HasPrefix(host, "[") {
		return true
	}
	addr, err := netip.ParseAddr(host)
	return err == nil && addr.Is4()
}
