package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/kaiwa/internal/config"
	"github.com/hyperjump/kaiwa/internal/models"
	"github.com/hyperjump/kaiwa/internal/server"
	"github.com/hyperjump/kaiwa/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testConfig = `embedding:
  provider: mock
  dimensions: 32
chat:
  provider: mock
  history_turns: 4
transcripts:
  dir: ./conversations
storage:
  data_dir: ./data
`

func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig+extra), 0644))
	return path
}

func loadTestConfig(t *testing.T, path string) *config.Config {
	t.Helper()
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

// startBackend runs a server built the same way serve does and points the CLI at it.
func startBackend(t *testing.T) *config.Config {
	t.Helper()
	path := writeTestConfig(t, "")
	cfg := loadTestConfig(t, path)
	components, err := initializeComponents(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(components.Close)
	srv := httptest.NewServer(server.NewServer(components.Engine, &cfg.Server, zap.NewNop()).Handler())
	t.Cleanup(srv.Close)

	resetFlags()
	configPath = path
	serverURL = srv.URL
	t.Cleanup(resetFlags)
	return cfg
}

func resetFlags() {
	configPath = defaultConfigPath
	serverURL = ""
	resetCommandFlags()
}

// resetCommandFlags restores flag variables that a previous Execute may have set,
// keeping the backend location.
func resetCommandFlags() {
	debugFlag = false
	outputFormat = "text"
	ingestContent, ingestTitle = "", ""
	localMode = false
	askSession, askTopK, askNoTools = "", -1, false
	chatConversation, chatList = "", false
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetCommandFlags()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := run(t, "", "version")
	assert.NoError(t, err)
	assert.Contains(t, out, "kaiwa version test-version-1.0.0")
}

func TestLoadConfig_PrefersCwdConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 6060\n"), 0644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, used, err := loadConfig(defaultConfigPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), used)
	assert.Equal(t, 6060, cfg.Server.Port)
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	path := writeTestConfig(t, "")
	cfg, used, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, config.ProviderMock, cfg.Embedding.Provider)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "data"), cfg.Storage.DataDir)
}

func TestInitializeComponents_PersistsAcrossRestart(t *testing.T) {
	cfg := loadTestConfig(t, writeTestConfig(t, ""))
	ctx := context.Background()

	first, err := initializeComponents(cfg, zap.NewNop())
	require.NoError(t, err)
	_, err = first.Engine.Ingest(ctx, &models.IngestRequest{Content: "Chargebacks reverse a card payment."})
	require.NoError(t, err)
	first.Close()

	second, err := initializeComponents(cfg, zap.NewNop())
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, 1, second.Retriever.Count())

	topK := 1
	resp, err := second.Engine.Ask(ctx, &models.AskRequest{Query: "What reverses a card payment?", TopK: &topK})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ContextDocsUsed)
}

func TestInitializeComponents_SQLiteSessions(t *testing.T) {
	cfg := loadTestConfig(t, writeTestConfig(t, "  sessions_database_path: ./sessions.db\n"))
	ctx := context.Background()

	c, err := initializeComponents(cfg, zap.NewNop())
	require.NoError(t, err)
	resp, err := c.Engine.Ask(ctx, &models.AskRequest{Query: "hello"})
	require.NoError(t, err)
	c.Close()

	c, err = initializeComponents(cfg, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()
	hist, err := c.Engine.History(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.Len(t, hist.Turns, 2)
}

func TestInitializeComponents_DimensionMismatch(t *testing.T) {
	path := writeTestConfig(t, "")
	cfg := loadTestConfig(t, path)
	c, err := initializeComponents(cfg, zap.NewNop())
	require.NoError(t, err)
	_, err = c.Engine.Ingest(context.Background(), &models.IngestRequest{Content: "doc"})
	require.NoError(t, err)
	c.Close()

	cfg.Embedding.Dimensions = 64
	_, err = initializeComponents(cfg, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestIngestAndAskCommands(t *testing.T) {
	startBackend(t)

	out, err := run(t, "", "ingest", "--content", "Fintech fraud detection uses anomaly scoring.", "--title", "fraud")
	require.NoError(t, err)
	assert.Contains(t, out, "1 documents total")

	doc := filepath.Join(t.TempDir(), "kyc.md")
	require.NoError(t, os.WriteFile(doc, []byte("KYC means know your customer."), 0644))
	out, err = run(t, "", "ingest", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "Ingested "+doc)

	out, err = run(t, "", "ask", "--output", "json", "--top-k", "1", "How", "is", "fraud", "detected?")
	require.NoError(t, err)
	var resp models.AskResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.ContextDocsUsed)
	assert.Contains(t, resp.Answer, "You asked: How is fraud detected?")

	out, err = run(t, "", "ask", "--session", resp.SessionID, "--no-context", "thanks")
	require.NoError(t, err)
	assert.Contains(t, out, "session: "+resp.SessionID)
	assert.Contains(t, out, "context docs: 0")
}

func TestIngestCmd_RequiresInput(t *testing.T) {
	startBackend(t)
	_, err := run(t, "", "ingest")
	assert.Error(t, err)
}

func TestStatusCmd(t *testing.T) {
	startBackend(t)
	_, err := run(t, "", "ingest", "--content", "doc")
	require.NoError(t, err)

	out, err := run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "kaiwa backend running")
	assert.Contains(t, out, "Documents:        1")

	_, err = run(t, "", "status", "--output", "yaml")
	assert.Error(t, err)
}

func TestChatCmd_SavesTranscriptAndRecalls(t *testing.T) {
	cfg := startBackend(t)

	out, err := run(t, "hello\n\nshow my previous messages\n/exit\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "You asked: hello")
	assert.Contains(t, out, "**You:** hello")

	store := &transcript.Store{Dir: cfg.Transcripts.Dir}
	names, err := store.List()
	require.NoError(t, err)
	require.Len(t, names, 1)
	turns, err := store.Load(names[0])
	require.NoError(t, err)
	require.Len(t, turns, 4)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, "show my previous messages", turns[2].Content)

	out, err = run(t, "", "chat", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "4 messages")
}

func TestChatCmd_ResumeContinuesSession(t *testing.T) {
	startBackend(t)
	_, err := run(t, "first question\n", "chat", "--conversation", "20250101_000000")
	require.NoError(t, err)

	out, err := run(t, "/history\n/exit\n", "chat", "--conversation", "20250101_000000")
	require.NoError(t, err)
	assert.Contains(t, out, "(2 earlier messages)")
	assert.Contains(t, out, "[user] first question")
}

func TestLocalMode_IngestThenAsk(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)
	configPath = writeTestConfig(t, "")

	out, err := run(t, "", "ingest", "--local", "--content", "Wire transfers above the limit need review.")
	require.NoError(t, err)
	assert.Contains(t, out, "1 documents total")

	out, err = run(t, "", "ask", "--local", "--top-k", "1", "which", "wire", "transfers", "need", "review?")
	require.NoError(t, err)
	assert.Contains(t, out, "context docs: 1")
	assert.Contains(t, out, "Wire transfers above the limit need review.")
}
