package registry

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"urlguard/internal/domain"
)

const dateLayout = "2006-01-02"

var csvHeader = []string{"url", "category", "date_added", "reason", "status"}

// Record is one row of a local blocklist file.
type Record struct {
	URL       string `json:"url" yaml:"url"`
	Category  string `json:"category" yaml:"category"`
	DateAdded string `json:"date_added" yaml:"date_added"`
	Reason    string `json:"reason" yaml:"reason"`
	Status    bool   `json:"status" yaml:"status"`
}

func (r Record) entry(source string) domain.Entry {
	added, _ := time.Parse(dateLayout, r.DateAdded)
	return domain.Entry{
		URL:    r.URL,
		Active: r.Status,
		Threat: domain.Threat{
			Category: r.Category,
			Reason:   r.Reason,
			Source:   source,
			Added:    added,
		},
	}
}

// FileSource is a local blocklist stored as CSV, JSON or YAML, picked by
// file extension. Every operation re-reads the file, so edits made by other
// processes are never lost. A missing file is an empty list.
type FileSource struct {
	path string
	mu   sync.Mutex
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return "file:" + filepath.Base(s.path) }

func (s *FileSource) Path() string { return s.path }

func (s *FileSource) Entries(context.Context) ([]domain.Entry, error) {
	recs, err := s.Records()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Entry, len(recs))
	for i, r := range recs {
		out[i] = r.entry("local")
	}
	return out, nil
}

func (s *FileSource) Records() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Add appends url unless an entry with the same canonical key exists.
func (s *FileSource) Add(url, category, reason string) (bool, error) {
	key, err := domain.EntryKey(url)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.load()
	if err != nil {
		return false, err
	}
	if indexOf(recs, key) >= 0 {
		return false, nil
	}

	recs = append(recs, Record{
		URL:       url,
		Category:  category,
		DateAdded: time.Now().Format(dateLayout),
		Reason:    reason,
		Status:    true,
	})
	return true, s.save(recs)
}

// Remove deletes the entry matching url. It reports false if none matched.
func (s *FileSource) Remove(url string) (bool, error) {
	return s.update(url, func(recs []Record, i int) []Record {
		return append(recs[:i], recs[i+1:]...)
	})
}

// SetStatus enables or disables the entry matching url.
func (s *FileSource) SetStatus(url string, active bool) (bool, error) {
	return s.update(url, func(recs []Record, i int) []Record {
		recs[i].Status = active
		return recs
	})
}

func (s *FileSource) update(url string, fn func([]Record, int) []Record) (bool, error) {
	key, err := domain.EntryKey(url)
	if err != nil {
		key = url
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.load()
	if err != nil {
		return false, err
	}
	i := indexOf(recs, key)
	if i < 0 {
		return false, nil
	}
	return true, s.save(fn(recs, i))
}

// indexOf finds the record whose canonical key is key. Records that do not
// canonicalize are compared verbatim.
func indexOf(recs []Record, key string) int {
	for i, r := range recs {
		k, err := domain.EntryKey(r.URL)
		if err != nil {
			k = r.URL
		}
		if k == key {
			return i
		}
	}
	return -1
}

func (s *FileSource) format() (string, error) {
	switch ext := strings.ToLower(filepath.Ext(s.path)); ext {
	case ".csv":
		return "csv", nil
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("blocklist %s: unsupported format %q", s.path, ext)
	}
}

func (s *FileSource) load() ([]Record, error) {
	format, err := s.format()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read blocklist: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var recs []Record
	switch format {
	case "csv":
		recs, err = decodeCSV(bytes.NewReader(data))
	case "json":
		err = json.Unmarshal(data, &recs)
	case "yaml":
		err = yaml.Unmarshal(data, &recs)
	}
	if err != nil {
		return nil, fmt.Errorf("decode blocklist %s: %w", s.path, err)
	}
	return recs, nil
}

// save writes to a temp file in the same directory and renames it into place.
func (s *FileSource) save(recs []Record) error {
	format, err := s.format()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch format {
	case "csv":
		err = encodeCSV(&buf, recs)
	case "json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		err = enc.Encode(recs)
	case "yaml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		err = enc.Encode(recs)
		if err == nil {
			err = enc.Close()
		}
	}
	if err != nil {
		return fmt.Errorf("encode blocklist: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create blocklist dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".blocklist-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write blocklist: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write blocklist: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace blocklist: %w", err)
	}
	return nil
}

func decodeCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := col["url"]; !ok {
		return nil, errors.New("missing url column")
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var recs []Record
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return nil, err
		}
		url := field(rec, "url")
		if url == "" {
			continue
		}
		recs = append(recs, Record{
			URL:       url,
			Category:  field(rec, "category"),
			DateAdded: field(rec, "date_added"),
			Reason:    field(rec, "reason"),
			Status:    parseStatus(field(rec, "status")),
		})
	}
}

// parseStatus accepts 1/0 and true/false spellings; an empty cell is active.
func parseStatus(s string) bool {
	if s == "" {
		return true
	}
	v, err := strconv.ParseBool(s)
	return err == nil && v
}

func encodeCSV(w io.Writer, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range recs {
		status := "0"
		if r.Status {
			status = "1"
		}
		if err := cw.Write([]string{r.URL, r.Category, r.DateAdded, r.Reason, status}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
