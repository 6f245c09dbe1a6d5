package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"time"

	"giftpoints/custodian/pkg/store"
)

// Version is written into every manifest.
const Version = "1.0"

// fileTimeLayout formats the timestamp part of manifest file names.
const fileTimeLayout = "2006-01-02_15-04-05"

var namePattern = regexp.MustCompile(`^backup_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}(_\d+)?\.json$`)

// FileName returns the manifest file name for a backup taken at t.
func FileName(t time.Time) string {
	return "backup_" + t.Format(fileTimeLayout) + ".json"
}

// sequencedFileName names the seq-th extra backup taken within the same
// second as FileName(t).
func sequencedFileName(t time.Time, seq int) string {
	return "backup_" + t.Format(fileTimeLayout) + "_" + strconv.Itoa(seq) + ".json"
}

// ValidName reports whether name is a manifest file name. Paths never are.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Manifest is the serialized snapshot of the whole record store.
type Manifest struct {
	Timestamp   time.Time                  `json:"timestamp"`
	Version     string                     `json:"version"`
	Database    string                     `json:"database"`
	Collections map[string]CollectionEntry `json:"collections"`
	Metadata    Metadata                   `json:"metadata"`
}

// Metadata summarizes a manifest.
type Metadata struct {
	TotalCollections int     `json:"totalCollections"`
	TotalDocuments   int     `json:"totalDocuments"`
	FileSizeMB       float64 `json:"fileSizeMB"`
	BackupType       string  `json:"backupType"`
	Compressed       bool    `json:"compressed"`
}

// CollectionEntry holds either the records of a collection or the error that
// prevented reading them.
type CollectionEntry struct {
	Records []store.Document
	Error   string
}

// Failed reports whether the entry is an error marker.
func (e CollectionEntry) Failed() bool {
	return e.Error != ""
}

type errorMarker struct {
	Error string `json:"error"`
}

// MarshalJSON writes records as an array and failures as {"error": "..."}.
func (e CollectionEntry) MarshalJSON() ([]byte, error) {
	if e.Failed() {
		return json.Marshal(errorMarker{Error: e.Error})
	}
	if e.Records == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(e.Records)
}

// UnmarshalJSON accepts both forms written by MarshalJSON. Numbers are kept
// as json.Number so integer fields survive a restore unchanged.
func (e *CollectionEntry) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var marker errorMarker
		if err := json.Unmarshal(trimmed, &marker); err != nil {
			return err
		}
		if marker.Error == "" {
			marker.Error = "unknown error"
		}
		*e = CollectionEntry{Error: marker.Error}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var records []store.Document
	if err := dec.Decode(&records); err != nil {
		return err
	}
	*e = CollectionEntry{Records: records}
	return nil
}

// finalize fills the metadata counts and the encoded size, and returns the
// encoded manifest.
func (m *Manifest) finalize(pretty bool) ([]byte, error) {
	m.Metadata.TotalCollections = len(m.Collections)
	m.Metadata.TotalDocuments = 0
	for _, entry := range m.Collections {
		m.Metadata.TotalDocuments += len(entry.Records)
	}

	data, err := m.encode(pretty)
	if err != nil {
		return nil, err
	}
	m.Metadata.FileSizeMB = sizeMB(len(data))
	return m.encode(pretty)
}

func (m *Manifest) encode(pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(m, "", "  ")
	}
	return json.Marshal(m)
}

// sizeMB converts n bytes to megabytes rounded to two decimals.
func sizeMB(n int) float64 {
	return math.Round(float64(n)/(1024*1024)*100) / 100
}

// ReadManifest decodes a manifest.
func ReadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}
