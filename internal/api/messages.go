package api

import "urlguard/internal/domain"

type CheckRequest struct {
	URL string `json:"url"`
}

type CheckResponse struct {
	Raw         string           `json:"raw"`
	Canonical   string           `json:"canonical"`
	Expressions []string         `json:"expressions"`
	Blocked     bool             `json:"blocked"`
	Allowlisted bool             `json:"allowlisted"`
	Matches     []domain.Verdict `json:"matches,omitempty"`
}

type CanonicalizeRequest struct {
	URL string `json:"url"`
}

type CanonicalizeResponse struct {
	Canonical string `json:"canonical"`
	Scheme    string `json:"scheme"`
	Host      string `json:"host"`
	Port      string `json:"port,omitempty"`
	Path      string `json:"path"`
	Query     string `json:"query,omitempty"`
	HasQuery  bool   `json:"has_query"`
}

func NewCanonicalizeResponse(u domain.CanonicalURL) *CanonicalizeResponse {
	return &CanonicalizeResponse{
		Canonical: u.String(),
		Scheme:    u.Scheme,
		Host:      u.Host,
		Port:      u.Port,
		Path:      u.Path,
		Query:     u.Query,
		HasQuery:  u.HasQuery,
	}
}

type ExpressionsRequest struct {
	URL string `json:"url"`
}

type ExpressionsResponse struct {
	Canonical   string   `json:"canonical"`
	Hosts       []string `json:"hosts"`
	Paths       []string `json:"paths"`
	Expressions []string `json:"expressions"`
}

func NewExpressionsResponse(gen *domain.Generator) *ExpressionsResponse {
	return &ExpressionsResponse{
		Canonical:   gen.URL().String(),
		Hosts:       gen.Hosts(),
		Paths:       gen.Paths(),
		Expressions: gen.Values(),
	}
}
