package domain

import "time"

// CanonicalURL is the result of Canonicalize.
type CanonicalURL struct {
	Scheme   string // "http", "https" or "ftp"
	Host     string // hostname, dotted quad or bracketed IPv6
	Port     string // empty unless it differs from the scheme default
	Path     string // always starts with "/"
	Query    string // verbatim, without the leading '?'
	HasQuery bool   // the input carried a '?', possibly with an empty query
}

// HostPort returns the host with the non-default port appended, if any.
func (u CanonicalURL) HostPort() string {
	if u.Port == "" {
		return u.Host
	}
	return u.Host + ":" + u.Port
}

func (u CanonicalURL) String() string {
	s := u.Scheme + "://" + u.HostPort() + u.Path
	if u.HasQuery {
		s += "?" + u.Query
	}
	return s
}

// IsIP reports whether the host is an IP literal.
func (u CanonicalURL) IsIP() bool {
	return isIPLiteral(u.Host)
}

// Threat describes why an entry is on a blocklist.
type Threat struct {
	Category string    `json:"category" yaml:"category"`
	Reason   string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	Source   string    `json:"source,omitempty" yaml:"source,omitempty"`
	Added    time.Time `json:"added,omitempty" yaml:"added,omitempty"`
}

// Entry is one blocklist line before it is compiled into a Registry.
type Entry struct {
	URL    string
	Threat Threat
	Active bool
}

// Verdict is the lookup outcome for a single expression.
type Verdict struct {
	Expression string  `json:"expression"`
	Listed     bool    `json:"listed"`
	Threat     *Threat `json:"threat,omitempty"`
}
