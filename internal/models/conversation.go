package models

import "fmt"

// Role tags a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Turn is one role-tagged message in a conversation. Turns are append-only and
// their order is the conversation's chronology.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// DefaultTopK is the number of context snippets retrieved when the caller does not say.
const DefaultTopK = 4

// AskRequest is a user query against a session.
// Pointer fields distinguish "not provided" from zero values in JSON.
type AskRequest struct {
	Query      string  `json:"query"`
	SessionID  *string `json:"session_id,omitempty"`
	AllowTools *bool   `json:"allow_tools,omitempty"`
	TopK       *int    `json:"top_k,omitempty"`
}

// Validate ensures the request has a query and a non-negative top_k.
func (r *AskRequest) Validate() error {
	if r.Query == "" {
		return NewError(ErrInvalidRequest, "ask", fmt.Errorf("query cannot be empty"))
	}
	if r.TopK != nil && *r.TopK < 0 {
		return NewError(ErrInvalidRequest, "ask", fmt.Errorf("top_k must be >= 0, got %d", *r.TopK))
	}
	return nil
}

// AllowToolsOrDefault returns whether retrieval is enabled; defaults to true when unset.
func (r *AskRequest) AllowToolsOrDefault() bool {
	if r.AllowTools != nil {
		return *r.AllowTools
	}
	return true
}

// TopKOrDefault returns the requested top_k, or def when unset.
func (r *AskRequest) TopKOrDefault(def int) int {
	if r.TopK != nil {
		return *r.TopK
	}
	return def
}

// Session returns the caller-supplied session id, or "" when absent.
func (r *AskRequest) Session() string {
	if r.SessionID != nil {
		return *r.SessionID
	}
	return ""
}

// AskResponse is the engine's answer to an AskRequest.
type AskResponse struct {
	SessionID       string `json:"session_id"`
	Answer          string `json:"answer"`
	ContextDocsUsed int    `json:"context_docs_used"`
}

// SessionHistory is the full turn list of a session.
type SessionHistory struct {
	SessionID string `json:"session_id"`
	Turns     []Turn `json:"turns"`
}
