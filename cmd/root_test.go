package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/airdate/internal/schedule"
)

// testEnv isolates HOME and the working directory and writes a config
// pointing storage at a temp directory.
type testEnv struct {
	dir        string
	configPath string
}

func newTestEnv(t *testing.T, backend string) testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)

	storagePath := filepath.Join(dir, "data")
	if backend == "sqlite" {
		storagePath = filepath.Join(dir, "data", "airdate.db")
	}
	configPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`# test config
storage:
  backend: %s
  path: %s
  key: test-state
history:
  max_size: 20
`, backend, storagePath)
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))
	return testEnv{dir: dir, configPath: configPath}
}

func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(bytes.NewReader(nil))
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func (e testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestAddAndList_PersistAcrossRuns(t *testing.T) {
	env := newTestEnv(t, "file")

	out := env.mustRun(t, "add", "Severance", "--network", "Apple TV+", "--day", "friday", "--time", "9:00pm", "--episodes", "10")
	require.Contains(t, out, "Added Severance")
	env.mustRun(t, "add", "Andor", "--day", "tue", "--time", "18:00")

	out = env.mustRun(t, "list")
	require.Contains(t, out, "Severance")
	require.Contains(t, out, "Friday")
	require.Contains(t, out, "21:00")
	require.Contains(t, out, "Andor")
	require.Less(t, bytes.Index([]byte(out), []byte("Andor")), bytes.Index([]byte(out), []byte("Severance")),
		"Tuesday lists before Friday")

	require.FileExists(t, filepath.Join(env.dir, "data", "test-state.json"))
}

func TestList_Filters(t *testing.T) {
	env := newTestEnv(t, "file")
	env.mustRun(t, "add", "Severance", "--day", "fri")
	env.mustRun(t, "add", "Andor", "--day", "tue", "--status", "watching")

	out := env.mustRun(t, "list", "--day", "fri")
	require.Contains(t, out, "Severance")
	require.NotContains(t, out, "Andor")

	out = env.mustRun(t, "list", "--status", "watching")
	require.Contains(t, out, "Andor")
	require.NotContains(t, out, "Severance")

	out = env.mustRun(t, "list", "--query", "zzz")
	require.Contains(t, out, "No shows.")

	_, err := env.run(t, "list", "--status", "binging")
	require.ErrorContains(t, err, "unknown status")

	_, err = env.run(t, "list", "--day", "someday")
	require.ErrorContains(t, err, "unknown day")
}

func TestAdd_Validation(t *testing.T) {
	env := newTestEnv(t, "file")

	_, err := env.run(t, "add", "Severance", "--time", "25:99")
	var verr *schedule.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = env.run(t, "add")
	require.Error(t, err, "title is required")
}

func TestWatchAndRemove(t *testing.T) {
	env := newTestEnv(t, "file")
	env.mustRun(t, "add", "Mini", "--episodes", "2")

	require.Contains(t, env.mustRun(t, "watch", "mini"), "Mini now at S1E1/2")
	out := env.mustRun(t, "watch", "Mini")
	require.Contains(t, out, "S1E2/2 (completed)")

	_, err := env.run(t, "watch", "Mini")
	require.ErrorIs(t, err, schedule.ErrAlreadyCompleted)

	require.Contains(t, env.mustRun(t, "rm", "Mini"), "Removed Mini")
	_, err = env.run(t, "remove", "Mini")
	require.ErrorIs(t, err, schedule.ErrShowNotFound)
}

func TestEphemeral_DoesNotPersist(t *testing.T) {
	env := newTestEnv(t, "file")

	env.mustRun(t, "--ephemeral", "add", "Severance")
	require.Contains(t, env.mustRun(t, "list"), "No shows.")
	require.NoFileExists(t, filepath.Join(env.dir, "data", "test-state.json"))
}

func TestSQLiteBackend(t *testing.T) {
	env := newTestEnv(t, "sqlite")

	env.mustRun(t, "add", "Shogun", "--network", "FX")
	require.Contains(t, env.mustRun(t, "list"), "Shogun")
	require.FileExists(t, filepath.Join(env.dir, "data", "airdate.db"))
}

func TestImport_MergeAndDryRun(t *testing.T) {
	env := newTestEnv(t, "file")
	env.mustRun(t, "add", "Severance", "--episodes", "10")

	file := filepath.Join(env.dir, "shows.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"shows": [
		{"title": "severance", "day": "fri", "episode": 3, "total_episodes": 10, "status": "watching"},
		{"title": "Arcane", "day": "sat"}
	]}`), 0o600))

	out := env.mustRun(t, "import", file, "--dry-run")
	require.Contains(t, out, "Would import 1 added, 1 updated, 2 total")
	require.Contains(t, out, `"title": "Arcane"`)
	require.NotContains(t, env.mustRun(t, "list"), "Arcane", "dry run saves nothing")

	out = env.mustRun(t, "import", file)
	require.Contains(t, out, "Imported 1 added, 1 updated, 2 total")

	out = env.mustRun(t, "list")
	require.Contains(t, out, "Arcane")
	require.Contains(t, out, "S1E3/10")
}

func TestImport_Errors(t *testing.T) {
	env := newTestEnv(t, "file")

	_, err := env.run(t, "import", filepath.Join(env.dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(env.dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`"just a string"`), 0o600))
	_, err = env.run(t, "import", bad)
	require.ErrorContains(t, err, "parsing")
}

func TestExport_RoundTrip(t *testing.T) {
	env := newTestEnv(t, "file")
	env.mustRun(t, "add", "Severance", "--day", "fri")
	env.mustRun(t, "add", "Andor")

	out := env.mustRun(t, "export")
	var doc exportDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Shows, 2)

	yamlPath := filepath.Join(env.dir, "shows.yaml")
	env.mustRun(t, "export", "--format", "yaml", "-o", yamlPath)
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	var ydoc map[string][]map[string]any
	require.NoError(t, yaml.Unmarshal(data, &ydoc))
	require.Len(t, ydoc["shows"], 2)

	// JSON export feeds straight back into import.
	jsonPath := filepath.Join(env.dir, "shows.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(out), 0o600))
	require.Contains(t, env.mustRun(t, "import", jsonPath), "0 added, 2 updated, 2 total")

	_, err = env.run(t, "export", "--format", "xml")
	require.ErrorContains(t, err, "format must be")
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, "file")
	env.mustRun(t, "add", "Mini", "--episodes", "4", "--status", "watching")
	env.mustRun(t, "watch", "Mini")

	out := env.mustRun(t, "stats")
	require.Contains(t, out, "Shows:              1")
	require.Contains(t, out, "watching:")
	require.Contains(t, out, "Episodes watched:   1")
	require.Contains(t, out, "Episodes remaining: 3")
}

func TestClear(t *testing.T) {
	env := newTestEnv(t, "file")
	env.mustRun(t, "add", "Severance")

	_, err := env.run(t, "clear")
	require.ErrorContains(t, err, "--yes")
	require.Contains(t, env.mustRun(t, "list"), "Severance")

	require.Contains(t, env.mustRun(t, "clear", "--yes"), "Cleared")
	require.Contains(t, env.mustRun(t, "list"), "No shows.")
}

func TestStorage_SwitchCopiesState(t *testing.T) {
	env := newTestEnv(t, "file")
	env.mustRun(t, "add", "Severance")

	dbPath := filepath.Join(env.dir, "moved.db")
	out := env.mustRun(t, "storage", "sqlite", "--path", dbPath)
	require.Contains(t, out, "Storage set to sqlite")

	data, err := os.ReadFile(env.configPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "backend: sqlite")
	require.Contains(t, string(data), "# test config", "comments survive")
	require.Contains(t, string(data), "max_size: 20", "other sections survive")

	require.FileExists(t, dbPath)
	require.Contains(t, env.mustRun(t, "list"), "Severance")

	_, err = env.run(t, "storage", "floppy")
	require.Error(t, err)
}

func TestInfo(t *testing.T) {
	env := newTestEnv(t, "file")

	out := env.mustRun(t, "info")
	require.Contains(t, out, "Backend:     file")
	require.Contains(t, out, "Key:         test-state")
	require.Contains(t, out, "Last saved:  never")
	require.Contains(t, out, "registered")

	env.mustRun(t, "add", "Severance")
	out = env.mustRun(t, "info")
	require.NotContains(t, out, "Last saved:  never")
	require.Contains(t, out, "History:     1 entries")
	require.Contains(t, out, "* ")
	require.Contains(t, out, "load")
	require.Contains(t, out, filepath.Join(env.dir, "data"))
}

func TestDebugLogToStderr(t *testing.T) {
	env := newTestEnv(t, "file")

	out := env.mustRun(t, "--debug", "--log-file", "-", "--log-level", "info", "list")
	require.Contains(t, out, "[INFO] [cli] state opened")
	require.NotContains(t, out, "[DEBUG]")

	out = env.mustRun(t, "list")
	require.NotContains(t, out, "state opened", "logging stops with the run")
}

func TestMissingConfigFile(t *testing.T) {
	env := newTestEnv(t, "file")
	env.configPath = filepath.Join(env.dir, "nope.yaml")

	_, err := env.run(t, "list")
	require.ErrorIs(t, err, os.ErrNotExist)
}
