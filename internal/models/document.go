// Package models defines core data structures for documents, conversations, and API payloads.
package models

import (
	"fmt"
	"strings"
)

// DocumentRecord is an ingested document. Its identity is its ordinal position in the
// document store, which always equals the position of its vector in the vector index.
type DocumentRecord struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

// IngestRequest is the input for adding a document to the store.
type IngestRequest struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Validate rejects blank content and normalizes a nil metadata map to an empty one.
func (r *IngestRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return NewError(ErrInvalidRequest, "ingest", fmt.Errorf("content cannot be empty"))
	}
	if r.Metadata == nil {
		r.Metadata = map[string]interface{}{}
	}
	return nil
}

// IngestResponse is returned after a document has been indexed and persisted.
type IngestResponse struct {
	Status    string `json:"status"`
	TotalDocs int    `json:"total_docs"`
}

// StatusIndexed is the IngestResponse status for a successful ingest.
const StatusIndexed = "indexed"
