package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"webstatic/internal/config"
	"webstatic/internal/logging"
)

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("asset written", logging.String("path", "out.css"))
	out := buf.String()
	if strings.Contains(out, ".go:") {
		t.Fatalf("expected no source information in info logs, got %q", out)
	}
	if !strings.Contains(out, "INFO asset written path=out.css") {
		t.Fatalf("unexpected console line: %q", out)
	}
}

func TestConsoleLoggerIncludesSourceForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("stage finished")
	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected source information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerComponentPrefixAndQuoting(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "build")
	logger.Warn("stale file kept", logging.String("path", "has space.css"))

	out := buf.String()
	if !strings.Contains(out, "WARN build: stale file kept") {
		t.Fatalf("expected component prefix, got %q", out)
	}
	if !strings.Contains(out, `path="has space.css"`) {
		t.Fatalf("expected quoted value, got %q", out)
	}
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("built", logging.Int("bytes", 12))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["msg"] != "built" || record["level"] != "info" {
		t.Fatalf("unexpected record: %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
}

func TestConsoleLoggerColor(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Writer: &buf, Color: true})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Error("build failed")
	if !strings.Contains(buf.String(), "\x1b[31mERROR\x1b[0m build failed") {
		t.Fatalf("expected colored level, got %q", buf.String())
	}
	if logging.IsTerminal(&buf) {
		t.Fatal("buffer reported as terminal")
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	var buf bytes.Buffer
	logger, closeLog, err := logging.NewFromConfig(&cfg, &buf)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")
	if err := closeLog(); err != nil {
		t.Fatalf("close log file: %v", err)
	}
	if err := closeLog(); err == nil {
		t.Fatal("expected second close to report the file already closed")
	}

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "webstatic.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello") || !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected record in both outputs, file=%q stream=%q", content, buf.String())
	}
}

func TestNewFromConfigWithoutLogDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = ""

	var buf bytes.Buffer
	logger, closeLog, err := logging.NewFromConfig(&cfg, &buf)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")
	if err := closeLog(); err != nil {
		t.Fatalf("close without log file: %v", err)
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected record on stream, got %q", buf.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	if logging.FromContext(context.Background()) == nil {
		t.Fatal("expected no-op logger when context carries none")
	}
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.FromContext(logging.IntoContext(context.Background(), logger)).Info("carried")
	if !strings.Contains(buf.String(), "carried") {
		t.Fatalf("expected record from context logger, got %q", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := logging.WithRunID(context.Background(), "run-1")
	ctx = logging.WithBundle(ctx, "site-css")
	ctx = logging.WithStage(ctx, "output")

	logging.WithContext(ctx, logging.NewComponentLogger(logger, "build")).Info("stage completed", logging.String("path", "a.css"))
	out := buf.String()
	if !strings.Contains(out, "INFO build[site-css/output]: stage completed path=a.css") {
		t.Fatalf("expected scope prefix, got %q", out)
	}
	if strings.Contains(out, "run_id") {
		t.Fatalf("console output should omit run ids, got %q", out)
	}

	buf.Reset()
	jsonLogger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WithContext(ctx, jsonLogger).Info("stage completed")
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["run_id"] != "run-1" || record["bundle"] != "site-css" || record["stage"] != "output" {
		t.Fatalf("expected context fields in json record, got %v", record)
	}

	if stage, ok := logging.StageFromContext(logging.WithStage(context.Background(), "")); ok {
		t.Fatalf("expected blank stage to be ignored, got %q", stage)
	}
}
