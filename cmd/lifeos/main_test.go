// ABOUTME: Tests for the lifeos CLI subcommands against a temporary SQLite database
// ABOUTME: Drives the cobra root command with captured output

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/lifeos/internal/auth"
	"github.com/2389/lifeos/internal/config"
	"github.com/2389/lifeos/internal/snapshot"
)

func init() {
	color.NoColor = true
}

type cli struct {
	configPath string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LIFEOS_DB_PATH", filepath.Join(dir, "lifeos.db"))
	t.Setenv("LIFEOS_CONFIG", "")
	c := &cli{configPath: filepath.Join(dir, "lifeos.yaml")}
	c.mustRun(t, "init")
	return c
}

func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(append([]string{"--config", c.configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := c.run(t, args...)
	require.NoError(t, err, "lifeos %s", strings.Join(args, " "))
	return out
}

func TestInitWritesLoadableConfig(t *testing.T) {
	c := newCLI(t)

	cfg, err := config.Load(c.configPath)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(cfg.Auth.JWTSecret), auth.MinSecretLength)

	info, err := os.Stat(c.configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = c.run(t, "init")
	assert.ErrorContains(t, err, "already exists")

	c.mustRun(t, "init", "--force")
}

func TestAddBookAndStatus(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun(t, "add-book", "--title", "Deep Work", "--theme", "Focus")
	assert.Contains(t, out, `Added "Deep Work"`)

	_, err := c.run(t, "add-book", "--theme", "no title")
	assert.ErrorContains(t, err, "title is required")

	c.mustRun(t, "add-person", "--name", "Ana", "--role", "Mentor")
	_, err = c.run(t, "add-person")
	assert.ErrorContains(t, err, "name is required")

	out = c.mustRun(t, "status")
	assert.Contains(t, out, "Stored: ")
	assert.Contains(t, out, " bytes, updated ")
	assert.Contains(t, out, "Books:  1")
	assert.Contains(t, out, "People: 1")
	assert.Contains(t, out, "daily")
	assert.Contains(t, out, "0%")
}

func TestExportImportRoundTrip(t *testing.T) {
	c := newCLI(t)
	c.mustRun(t, "add-book", "--title", "Deep Work")

	out := c.mustRun(t, "export")
	var snap snapshot.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.Len(t, snap.Reading, 1)
	assert.Equal(t, "Deep Work", snap.Reading[0].Title)

	doc := filepath.Join(t.TempDir(), "snap.json")
	require.NoError(t, os.WriteFile(doc, []byte(`{"version":1,"weekly":{"monday":"plan"},"reading":[{"title":"Other","theme":"","takeaways":"","insights":"","dateAdded":"2026-01-02T00:00:00Z"}]}`), 0600))

	out = c.mustRun(t, "import", doc)
	assert.Contains(t, out, "weekly")
	assert.Contains(t, out, "14%")

	out = c.mustRun(t, "export")
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.Len(t, snap.Reading, 1, "import replaces rather than merges")
	assert.Equal(t, "Other", snap.Reading[0].Title)
	assert.Equal(t, "plan", snap.Weekly["monday"])
}

func TestImportRejectsInvalidDocument(t *testing.T) {
	c := newCLI(t)
	doc := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(doc, []byte(`{"reading":[{"theme":"no title"}]}`), 0600))

	_, err := c.run(t, "import", doc)
	var verr *snapshot.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestTokenIsVerifiable(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun(t, "token", "--subject", "phone")
	cfg, err := config.Load(c.configPath)
	require.NoError(t, err)

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	require.NoError(t, err)
	sub, err := verifier.Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "phone", sub)
}

func TestHealth(t *testing.T) {
	var ready atomic.Bool
	ready.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health/ready" || !ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("snapshot not loaded"))
			return
		}
		_, _ = w.Write([]byte("ready (0 cached assets)"))
	}))
	defer srv.Close()

	var out bytes.Buffer
	a := &app{out: &out}
	require.NoError(t, a.runHealth(context.Background(), srv.URL))
	assert.Equal(t, "ready (0 cached assets)\n", out.String())

	ready.Store(false)
	err := a.runHealth(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "status 503")
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"key":"value"`)

	buf.Reset()
	logger = setupLogger(config.LoggingConfig{Level: "debug"}, &buf)
	logger.With("component", "tracker").WithGroup("save").Debug("saved", "size", 12)
	out = buf.String()
	assert.Contains(t, out, "DBG saved")
	assert.Contains(t, out, "component=tracker")
	assert.Contains(t, out, "save.size=12")
}

func TestOpenTrackerTagsComponentOnce(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "lifeos.db")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a := &app{}
	tr, st, err := a.openTracker(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, tr.Save(context.Background()).Err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.LessOrEqual(t, strings.Count(line, "component=tracker"), 1, line)
	}
	assert.Contains(t, buf.String(), "component=tracker")
}

func TestStatusBeforeFirstSave(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun(t, "status")
	assert.Contains(t, out, "Stored: nothing saved yet")
}
