package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ExportVersion is written into every export document.
const ExportVersion = "2.0"

// Format is an export file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format by file extension. Unknown extensions are JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ExportDocument is the structure written by Exporter and read by Importer.
type ExportDocument struct {
	Version    string            `json:"version" yaml:"version"`
	ExportedAt string            `json:"exported_at" yaml:"exported_at"`
	Entries    []ExportEntry     `json:"entries" yaml:"entries"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ExportEntry is a single cached translation.
type ExportEntry struct {
	Language  string `json:"lang" yaml:"lang"`
	Text      string `json:"text" yaml:"text"`
	Value     string `json:"value" yaml:"value"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
}

// Exporter provides cache export functionality.
type Exporter struct {
	cache *TranslationCache
	now   func() time.Time
}

// NewExporter creates a new cache exporter.
func NewExporter(cache *TranslationCache) *Exporter {
	return &Exporter{cache: cache, now: time.Now}
}

// Export writes the cache contents to w. Entries are sorted by language and
// source text so exports diff cleanly.
func (e *Exporter) Export(w io.Writer, format Format, metadata map[string]string) error {
	doc := ExportDocument{
		Version:    ExportVersion,
		ExportedAt: e.now().UTC().Format(time.RFC3339),
		Entries:    entriesOf(e.cache.Snapshot()),
		Metadata:   metadata,
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		return nil
	}
}

// ExportToFile exports the cache to a file, choosing the format by extension.
// The path is provided by the caller and is intentionally user-controlled.
func (e *Exporter) ExportToFile(path string, metadata map[string]string) error {
	f, err := os.Create(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	return e.Export(f, FormatFromPath(path), metadata)
}

func entriesOf(data Data) []ExportEntry {
	var entries []ExportEntry
	for lang, m := range data {
		for text, entry := range m {
			entries = append(entries, ExportEntry{
				Language:  lang,
				Text:      text,
				Value:     entry.Value,
				Timestamp: entry.Timestamp,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Language != entries[j].Language {
			return entries[i].Language < entries[j].Language
		}
		return entries[i].Text < entries[j].Text
	})
	return entries
}

// Importer provides cache import functionality.
type Importer struct {
	cache *TranslationCache
}

// NewImporter creates a new cache importer.
func NewImporter(cache *TranslationCache) *Importer {
	return &Importer{cache: cache}
}

// Import reads an export document from r and merges it into the cache. Entries
// that are expired, blank, or older than what the cache holds are skipped.
func (i *Importer) Import(r io.Reader, format Format) (*ImportResult, error) {
	var doc ExportDocument

	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding YAML: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding JSON: %w", err)
		}
	}

	data := make(Data)
	for _, entry := range doc.Entries {
		if entry.Language == "" {
			continue
		}
		if data[entry.Language] == nil {
			data[entry.Language] = make(map[string]Entry)
		}
		data[entry.Language][entry.Text] = Entry{Value: entry.Value, Timestamp: entry.Timestamp}
	}

	imported := i.cache.Merge(data)

	return &ImportResult{
		Version:  doc.Version,
		Metadata: doc.Metadata,
		Imported: imported,
		Skipped:  len(doc.Entries) - imported,
	}, nil
}

// ImportFromFile imports cache entries from a file, choosing the format by extension.
// The path is provided by the caller and is intentionally user-controlled.
func (i *Importer) ImportFromFile(path string) (*ImportResult, error) {
	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return i.Import(f, FormatFromPath(path))
}

// ImportResult contains statistics about the import operation.
type ImportResult struct {
	Version  string
	Metadata map[string]string
	Imported int
	Skipped  int
}
