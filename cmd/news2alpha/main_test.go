package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/slowdive42/news2alpha/internal/config"
	"github.com/slowdive42/news2alpha/internal/pipeline"
	"github.com/slowdive42/news2alpha/internal/tabular"
)

// ── Helpers ──

type testEnv struct {
	dir    string
	config string
	spans  string
	logs   string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		dir:    dir,
		config: filepath.Join(dir, "config.yaml"),
		spans:  filepath.Join(dir, "spans.json"),
		logs:   filepath.Join(dir, "news2alpha.log"),
	}
	body := fmt.Sprintf(`news:
  from_date: "2024-01-01"
  to_date: "2024-01-02"
paths:
  data_dir: %q
tracing:
  enabled: true
  output: %q
logging:
  format: json
  output: %q
`, filepath.Join(dir, "data"), env.spans, env.logs)
	if err := os.WriteFile(env.config, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return &out, &errOut
}

// ── Shutdown ──

func TestExecuteFlushesSpansOnFailure(t *testing.T) {
	env := newTestEnv(t)
	_, errOut := captureOutput(t)

	err := execute([]string{"--config", env.config, "align"})
	if err == nil {
		t.Fatal("align without inputs should fail")
	}
	if len(cleanups) != 0 {
		t.Errorf("cleanups left after execute: %d", len(cleanups))
	}

	spans, readErr := os.ReadFile(env.spans)
	if readErr != nil {
		t.Fatalf("read spans: %v", readErr)
	}
	if !strings.Contains(string(spans), `"Name":"stage.align"`) {
		t.Errorf("failed stage span not flushed:\n%s", spans)
	}
	logs, _ := os.ReadFile(env.logs)
	if !strings.Contains(string(logs), "stage failed") {
		t.Errorf("log file missing stage failure:\n%s", logs)
	}

	// main prints the error; cobra must not print it as well.
	if errOut.Len() != 0 {
		t.Errorf("error printed by cobra: %q", errOut.String())
	}
}

func TestExecuteReportsConfigError(t *testing.T) {
	captureOutput(t)
	missing := filepath.Join(t.TempDir(), "absent.yaml")
	err := execute([]string{"--config", missing, "version"})
	if err == nil || !strings.Contains(err.Error(), "failed to load config") {
		t.Fatalf("got %v, want config load error", err)
	}
	if len(cleanups) != 0 {
		t.Errorf("cleanups left after execute: %d", len(cleanups))
	}
}

// ── Commands ──

func TestVersionCommand(t *testing.T) {
	env := newTestEnv(t)
	out, _ := captureOutput(t)
	if err := execute([]string{"--config", env.config, "version"}); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "news2alpha "+version) {
		t.Errorf("got %q", out.String())
	}
}

func TestPlotTextPrintsSummary(t *testing.T) {
	env := newTestEnv(t)
	out, _ := captureOutput(t)

	c, err := config.LoadFromFile(env.config)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	paths := pipeline.NewPaths(c)
	final := tabular.New("final.csv", "Date", "Open", "High", "Low", "Close", "Volume", "sentiment_mean", "news_count")
	final.Append("2024-01-01T00:00:00Z", "100", "110", "90", "101", "10", "0.5", "2")
	final.Append("2024-01-02T00:00:00Z", "101", "111", "91", "102", "10", "0", "0")
	if err := final.WriteFile(paths.Final); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Cleanup(func() { _ = plotCmd.Flags().Set("text", "false") })
	if err := execute([]string{"--config", env.config, "plot", "--text"}); err != nil {
		t.Fatalf("plot --text: %v", err)
	}
	for _, want := range []string{"BTCUSDT news sentiment vs price", "Market rows:      2", "Articles:         2"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, out.String())
		}
	}
	if _, err := os.Stat(paths.Report); !os.IsNotExist(err) {
		t.Errorf("plot --text should not write %s", paths.Report)
	}
}
