// Package docstore holds ingested document records in insertion order.
package docstore

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/kaiwa/internal/models"
)

// Store is an ordered, append-only list of document records. A record's position is
// its identity and matches the ordinal of its vector in the index.
// Store is not safe for concurrent use; callers synchronize.
type Store struct {
	records []models.DocumentRecord
}

// New returns an empty store.
func New() *Store {
	return &Store{records: make([]models.DocumentRecord, 0)}
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Append adds a record at the end and returns its ordinal.
func (s *Store) Append(rec models.DocumentRecord) int {
	if rec.Metadata == nil {
		rec.Metadata = map[string]interface{}{}
	}
	s.records = append(s.records, rec)
	return len(s.records) - 1
}

// Get returns the record at ordinal i. ok is false when i is out of range.
func (s *Store) Get(i int) (models.DocumentRecord, bool) {
	if i < 0 || i >= len(s.records) {
		return models.DocumentRecord{}, false
	}
	return s.records[i], true
}

// Metadata returns the metadata of every record in ordinal order. The maps are the
// stored ones and must not be modified.
func (s *Store) Metadata() []map[string]interface{} {
	out := make([]map[string]interface{}, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.Metadata
	}
	return out
}

// WriteJSON writes the records as an indented JSON array of {content, metadata}.
func (s *Store) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return nil
}

// ReadJSON decodes a record list written by WriteJSON.
func ReadJSON(r io.Reader) (*Store, error) {
	var records []models.DocumentRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	s := New()
	for _, rec := range records {
		s.Append(rec)
	}
	return s, nil
}
