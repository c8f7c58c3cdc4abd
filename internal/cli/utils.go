// Package cli provides output helpers for the kaiwa command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kaiwa/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text", "json" or "" (text).
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAnswer writes an ask response in the given format.
func WriteAnswer(w io.Writer, resp *models.AskResponse, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, resp)
	}
	fmt.Fprintf(w, "%s\n\n", resp.Answer)
	fmt.Fprintf(w, "session: %s | context docs: %d\n", resp.SessionID, resp.ContextDocsUsed)
	return nil
}

// WriteStats writes server statistics in the given format.
func WriteStats(w io.Writer, stats *models.StatsResponse, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, stats)
	}
	fmt.Fprintf(w, "Documents:        %d\n", stats.Documents)
	fmt.Fprintf(w, "Vectors:          %d\n", stats.Vectors)
	fmt.Fprintf(w, "Sessions:         %d\n", stats.Sessions)
	fmt.Fprintf(w, "Dimensions:       %d\n", stats.Dimensions)
	if stats.EmbeddingModel != "" {
		fmt.Fprintf(w, "Embedding model:  %s\n", stats.EmbeddingModel)
	}
	if stats.ChatModel != "" {
		fmt.Fprintf(w, "Chat model:       %s\n", stats.ChatModel)
	}
	fmt.Fprintf(w, "History turns:    %d\n", stats.HistoryTurns)
	if stats.DiskUsageBytes > 0 {
		fmt.Fprintf(w, "Disk usage:       %s\n", FormatBytes(stats.DiskUsageBytes))
	}
	return nil
}

// WriteHistory writes a transcript, one turn per block.
func WriteHistory(w io.Writer, turns []models.Turn) {
	for _, t := range turns {
		fmt.Fprintf(w, "[%s] %s\n", t.Role, t.Content)
	}
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
