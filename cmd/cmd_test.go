package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brk3/habitgrid/internal/calendar"
	"github.com/brk3/habitgrid/internal/config"
	"github.com/brk3/habitgrid/internal/server"
	"github.com/brk3/habitgrid/internal/storage/bolt"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.Execute()
	return buf.String(), err
}

// startBackend runs a real server over a temp database and points the CLI
// at it.
func startBackend(t *testing.T) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := bolt.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	srv, err := server.New(config.Default(), st)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	t.Setenv("HABITS_CONFIG", "")
	t.Setenv("HABITS_API_BASE", ts.URL)
}

func TestVersionCommand(t *testing.T) {
	startBackend(t)
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "Client Version: dev") || !strings.Contains(out, "Server Version: dev") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestHabitCommands(t *testing.T) {
	startBackend(t)

	if out, err := execute(t, "list"); err != nil || !strings.Contains(out, "No habits yet") {
		t.Fatalf("empty list: err=%v out=%s", err, out)
	}
	if out, err := execute(t, "add", "guitar"); err != nil || !strings.Contains(out, "Added guitar") {
		t.Fatalf("add: err=%v out=%s", err, out)
	}
	if out, err := execute(t, "rename", "guitar", "piano"); err != nil || !strings.Contains(out, "Renamed guitar to piano") {
		t.Fatalf("rename: err=%v out=%s", err, out)
	}
	out, err := execute(t, "list")
	if err != nil || !strings.Contains(out, "piano") {
		t.Fatalf("list: err=%v out=%s", err, out)
	}
	if out, err := execute(t, "delete", "piano"); err != nil || !strings.Contains(out, "Deleted piano") {
		t.Fatalf("delete: err=%v out=%s", err, out)
	}
	if _, err := execute(t, "delete", "piano"); err == nil {
		t.Fatal("deleting a missing habit should fail")
	}
}

func TestAdd_InvalidName(t *testing.T) {
	startBackend(t)
	if _, err := execute(t, "add", strings.Repeat("x", 65)); err == nil {
		t.Fatal("expected error for long habit name")
	}
}

func TestDoneAndHistory(t *testing.T) {
	startBackend(t)
	if _, err := execute(t, "add", "guitar"); err != nil {
		t.Fatal(err)
	}
	today := calendar.FormatDate(timeNow())

	out, err := execute(t, "done", "guitar")
	if err != nil {
		t.Fatalf("done: %v", err)
	}
	if !strings.Contains(out, "Marked guitar done on "+today) {
		t.Fatalf("unexpected done output:\n%s", out)
	}
	if !strings.Contains(out, "streak 1") || !strings.Contains(out, "1 done") {
		t.Fatalf("re-rendered grid does not include the new completion:\n%s", out)
	}

	if out, _ := execute(t, "done", "guitar", today); !strings.Contains(out, "already done") {
		t.Fatalf("second done:\n%s", out)
	}

	out, err = execute(t, "history", "guitar")
	if err != nil || strings.TrimSpace(out) != today {
		t.Fatalf("history: err=%v out=%q", err, out)
	}

	out, err = execute(t, "done", "--undo", "guitar")
	if err != nil || !strings.Contains(out, "Unmarked guitar") || !strings.Contains(out, "streak 0") {
		t.Fatalf("undo: err=%v out=%s", err, out)
	}
	if out, _ := execute(t, "done", "--undo", "guitar"); !strings.Contains(out, "was not done") {
		t.Fatalf("second undo:\n%s", out)
	}
	if out, _ := execute(t, "history", "guitar"); !strings.Contains(out, "no completions") {
		t.Fatalf("history after undo:\n%s", out)
	}
}

func TestDone_InvalidDate(t *testing.T) {
	startBackend(t)
	execute(t, "add", "guitar")
	if _, err := execute(t, "done", "guitar", "yesterday"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestGridCommand(t *testing.T) {
	startBackend(t)
	execute(t, "add", "guitar")
	execute(t, "done", "guitar")

	out, err := execute(t, "grid", "guitar", "--months", "0")
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	label := timeNow().Month().String()[:3]
	if !strings.Contains(out, label) || !strings.Contains(out, "■") {
		t.Fatalf("grid output missing month label or cells:\n%s", out)
	}
	if strings.Contains(out, unavailableMsg) {
		t.Fatalf("unexpected unavailable warning:\n%s", out)
	}
}

func TestRangeFlags_OverLimit(t *testing.T) {
	startBackend(t)
	execute(t, "add", "guitar")

	if _, err := execute(t, "grid", "guitar", "--months", "1000000000"); err == nil || !strings.Contains(err.Error(), "--months") {
		t.Fatalf("grid: expected --months limit error, got %v", err)
	}
	if _, err := execute(t, "stats", "--days", "1000000000000"); err == nil || !strings.Contains(err.Error(), "--days") {
		t.Fatalf("stats: expected --days limit error, got %v", err)
	}
}

func TestGridCommand_BackendDegraded(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/habits" {
			w.Write([]byte(`{"habits":[{"id":"h1","name":"guitar","user_id":"anonymous","created_at":"2024-01-01T00:00:00Z"}]}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"completion data unavailable"}`))
	}))
	t.Cleanup(ts.Close)
	t.Setenv("HABITS_CONFIG", "")
	t.Setenv("HABITS_API_BASE", ts.URL)

	out, err := execute(t, "grid", "guitar")
	if err != nil {
		t.Fatalf("grid should degrade, got error: %v", err)
	}
	if !strings.Contains(out, unavailableMsg) || !strings.Contains(out, "0 done") {
		t.Fatalf("expected degraded grid:\n%s", out)
	}

	out, err = execute(t, "stats")
	if err != nil {
		t.Fatalf("stats should degrade, got error: %v", err)
	}
	if !strings.Contains(out, unavailableMsg) {
		t.Fatalf("expected degraded stats:\n%s", out)
	}
}

func TestStatsCommand(t *testing.T) {
	startBackend(t)
	execute(t, "add", "guitar")
	execute(t, "done", "guitar")

	out, err := execute(t, "stats", "--days", "7")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{"Habits:  1", "Today:   1 done", "1 done / 0 missed"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestAPIKeyCreate_Local(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "keys.db")
	t.Setenv("HABITS_CONFIG", "")
	t.Setenv("HABITS_DB_PATH", dbPath)

	out, err := execute(t, "apikey", "create", "--user", "u1")
	if err != nil {
		t.Fatalf("apikey create: %v", err)
	}
	key := strings.TrimSpace(out)
	if !strings.HasPrefix(key, "hab_live_") {
		t.Fatalf("unexpected key %q", key)
	}

	st, err := bolt.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	hashes, err := st.ListAPIKeyHashes("u1")
	if err != nil || len(hashes) != 1 {
		t.Fatalf("got %d keys (err %v), want 1", len(hashes), err)
	}
}

func TestInvalidConfigFile(t *testing.T) {
	t.Setenv("HABITS_CONFIG", "")
	if _, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "list"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
