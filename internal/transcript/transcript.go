// Package transcript keeps chat transcripts on disk, one JSON file per conversation.
// A file holds a list of [role, content] pairs; its name doubles as the session id.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/hyperjump/kaiwa/internal/models"
)

const (
	ext        = ".json"
	nameLayout = "20060102_150405"
)

// Store reads and writes transcripts under Dir.
type Store struct {
	Dir string
}

// NewStore creates dir if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// NewName returns the file name for a conversation started at t.
func NewName(t time.Time) string {
	return t.Format(nameLayout) + ext
}

// List returns transcript names, newest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ext) {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Load reads a transcript. A missing file is an empty transcript.
func (s *Store) Load(name string) ([]models.Turn, error) {
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return []models.Turn{}, nil
	}
	if err != nil {
		return nil, err
	}
	var pairs [][2]string
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", name, err)
	}
	turns := make([]models.Turn, 0, len(pairs))
	for _, p := range pairs {
		turns = append(turns, models.Turn{Role: models.Role(p[0]), Content: p[1]})
	}
	return turns, nil
}

// Save overwrites a transcript.
func (s *Store) Save(name string, turns []models.Turn) error {
	pairs := make([][2]string, 0, len(turns))
	for _, t := range turns {
		pairs = append(pairs, [2]string{string(t.Role), t.Content})
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pairs); err != nil {
		return err
	}
	return os.WriteFile(s.path(name), buf.Bytes(), 0644)
}

func (s *Store) path(name string) string {
	return filepath.Join(s.Dir, filepath.Base(name))
}

var recallPattern = regexp.MustCompile(`(?i)\b(previous|past)\s+(messages|questions|conversation|chats?)\b`)

// IsHistoryRecall reports whether query asks to see the conversation so far.
// Such queries are answered locally from the transcript.
func IsHistoryRecall(query string) bool {
	return recallPattern.MatchString(query)
}

// NoHistoryMessage is the recall answer for a conversation without prior exchanges.
const NoHistoryMessage = "You haven't had any previous messages yet!"

// RecallSummary renders prior user/assistant exchanges, pairing the n-th user turn with
// the n-th assistant turn. Unanswered questions are left out.
func RecallSummary(prior []models.Turn) string {
	var users, assistants []string
	for _, t := range prior {
		switch t.Role {
		case models.RoleUser:
			users = append(users, t.Content)
		case models.RoleAssistant:
			assistants = append(assistants, t.Content)
		}
	}
	n := len(users)
	if len(assistants) < n {
		n = len(assistants)
	}
	if n == 0 {
		return NoHistoryMessage
	}
	blocks := make([]string, n)
	for i := 0; i < n; i++ {
		blocks[i] = fmt.Sprintf("**You:** %s\n\n**Agent:** %s", users[i], assistants[i])
	}
	return "Here's your conversation so far:\n\n" + strings.Join(blocks, "\n\n")
}
