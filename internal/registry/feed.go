package registry

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"urlguard/internal/domain"
	"urlguard/internal/logging"
)

// URLhaus CSV columns:
// id,dateadded,url,url_status,last_online,threat,tags,urlhaus_link,reporter
const (
	feedColDateAdded = 1
	feedColURL       = 2
	feedColStatus    = 3
	feedColThreat    = 5
	feedColTags      = 6
	feedMinColumns   = 6
)

const feedTimeLayout = "2006-01-02 15:04:05"

// FeedClient downloads a URLhaus-style CSV dump.
type FeedClient struct {
	url  string
	http *http.Client
}

func NewFeedClient(url string) *FeedClient {
	return &FeedClient{
		url: url,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *FeedClient) Name() string { return "urlhaus" }

func (c *FeedClient) Entries(ctx context.Context) ([]domain.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	return parseFeed(ctx, resp.Body)
}

func parseFeed(ctx context.Context, r io.Reader) ([]domain.Entry, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	entries := make([]domain.Entry, 0, 1024)

	var (
		skippedShort   int
		skippedEmpty   int
		skippedInvalid int
		offline        int
		samples        []string
	)

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read feed: %w", err)
		}
		if len(rec) < feedMinColumns {
			skippedShort++
			continue
		}

		raw := strings.TrimSpace(rec[feedColURL])
		if raw == "" {
			skippedEmpty++
			continue
		}
		if _, err := domain.EntryKey(raw); err != nil {
			skippedInvalid++
			continue
		}

		active := !strings.EqualFold(strings.TrimSpace(rec[feedColStatus]), "offline")
		if !active {
			offline++
		}

		added, _ := time.Parse(feedTimeLayout, strings.TrimSpace(rec[feedColDateAdded]))

		var tags string
		if len(rec) > feedColTags {
			tags = strings.TrimSpace(rec[feedColTags])
		}

		if len(samples) < 5 {
			samples = append(samples, raw)
		}

		entries = append(entries, domain.Entry{
			URL:    raw,
			Active: active,
			Threat: domain.Threat{
				Category: strings.TrimSpace(rec[feedColThreat]),
				Reason:   tags,
				Source:   "urlhaus",
				Added:    added,
			},
		})
	}

	logging.FromContext(ctx).Info().
		Int("entries", len(entries)).
		Int("offline", offline).
		Int("skipped_short", skippedShort).
		Int("skipped_empty", skippedEmpty).
		Int("skipped_invalid", skippedInvalid).
		Strs("samples", samples).
		Msg("feed parsed")

	return entries, nil
}
