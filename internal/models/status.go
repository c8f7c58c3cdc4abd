package models

// StatusResponse is the liveness probe payload.
type StatusResponse struct {
	Status string `json:"status"`
}

// StatsResponse reports store sizes and the active configuration.
type StatsResponse struct {
	Documents      int    `json:"documents"`
	Vectors        int    `json:"vectors"`
	Sessions       int    `json:"sessions"`
	Dimensions     int    `json:"embedding_dimensions"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	ChatModel      string `json:"chat_model,omitempty"`
	HistoryTurns   int    `json:"history_turns"`
	DiskUsageBytes int64  `json:"disk_usage_bytes,omitempty"`
}
