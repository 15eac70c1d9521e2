package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

const sampleFeed = `################################################################
# abuse.ch URLhaus Database Dump (CSV)                         #
################################################################
#
# id,dateadded,url,url_status,last_online,threat,tags,urlhaus_link,reporter
"3191941","2024-09-12 10:15:07","http://198.51.100.7:33541/i","online","2024-09-12 10:15:07","malware_download","32-bit,elf,mips,Mozi","https://urlhaus.abuse.ch/url/3191941/","geenensp"
"3191940","2024-09-12 10:13:05","https://evil.example.com/payload.exe","offline","","malware_download","exe","https://urlhaus.abuse.ch/url/3191940/","abuse_ch"
"3191939","2024-09-12 10:11:02","","online","","malware_download","","https://urlhaus.abuse.ch/url/3191939/","abuse_ch"
"3191938","2024-09-12 10:10:00","http://localhost/x","online","","malware_download","","https://urlhaus.abuse.ch/url/3191938/","abuse_ch"
"short","row"
`

func TestParseFeed(t *testing.T) {
	entries, err := parseFeed(context.Background(), strings.NewReader(sampleFeed))
	if err != nil {
		t.Fatalf("parseFeed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.URL != "http://198.51.100.7:33541/i" || !first.Active {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if first.Threat.Category != "malware_download" || first.Threat.Reason != "32-bit,elf,mips,Mozi" {
		t.Fatalf("unexpected threat: %+v", first.Threat)
	}
	want := time.Date(2024, 9, 12, 10, 15, 7, 0, time.UTC)
	if !first.Threat.Added.Equal(want) {
		t.Fatalf("added = %s, want %s", first.Threat.Added, want)
	}

	if entries[1].Active {
		t.Fatal("offline entry must be inactive")
	}
}

func TestFeedClient_Entries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	entries, err := NewFeedClient(srv.URL).Entries(context.Background())
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestFeedClient_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := NewFeedClient(srv.URL).Entries(context.Background()); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func Test_URLhausReachable(t *testing.T) {
	if os.Getenv("URLGUARD_INTEGRATION") != "1" {
		t.Skip("integration test is disabled, set URLGUARD_INTEGRATION=1 to run")
	}

	feedURL := os.Getenv("URLGUARD_FEED_URL")
	if feedURL == "" {
		feedURL = "https://urlhaus.abuse.ch/downloads/csv_online/"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reg, err := Sources{NewFeedClient(feedURL)}.FetchRegistry(ctx)
	if err != nil {
		t.Fatalf("failed to fetch feed from %s: %v", feedURL, err)
	}

	if reg.Len() == 0 {
		t.Logf("warning: fetched registry with 0 entries from %s; maybe the feed format changed", feedURL)
	}
}
