package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oukeidos/walldisplay/internal/apperrors"
	"github.com/oukeidos/walldisplay/internal/cleanup"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestFlagDefaults(t *testing.T) {
	cmd := newRootCmd()
	cases := map[string]string{
		"dir":       "menu-data",
		"config":    "config.json",
		"debug":     "false",
		"log-level": "info",
		"log-file":  "",
	}
	for name, want := range cases {
		f := cmd.PersistentFlags().Lookup(name)
		if f == nil {
			t.Fatalf("flag --%s missing", name)
		}
		if f.DefValue != want {
			t.Errorf("--%s default = %q, want %q", name, f.DefValue, want)
		}
	}
	if f := cmd.Flags().Lookup("windowed"); f == nil || f.DefValue != "false" {
		t.Fatalf("--windowed flag = %+v", f)
	}
}

func TestCheck_MissingMenuFails(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCommand(t, "check", "--dir", dir, "--config", filepath.Join(dir, "none.json"))
	if err == nil {
		t.Fatalf("expected error for a missing menu file")
	}
	if !apperrors.IsFatal(err) {
		t.Fatalf("error %v is not a start-up error", err)
	}
}

func TestCheck_NoEnabledCategoriesFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "menu.data"), "1:eventos:0:Eventos:\n")
	_, err := executeCommand(t, "check", "--dir", dir, "--config", filepath.Join(dir, "none.json"))
	if err == nil || !apperrors.IsFatal(err) {
		t.Fatalf("error = %v, want start-up error", err)
	}
}

func TestCheck_Summary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "menu.data"),
		"# id:dir:enabled:name:desc\n1:eventos:1:Eventos:\n2:avisos:0:Avisos:x\n3:menu:1:Menu:Daily specials\n")
	writeFile(t, filepath.Join(dir, "eventos", "01.jpg"), "x")
	writeFile(t, filepath.Join(dir, "eventos", "02.png"), "x")
	writeFile(t, filepath.Join(dir, "eventos", "notes.txt"), "x")
	cfgPath := filepath.Join(dir, "config.toml")
	writeFile(t, cfgPath, "[window]\nfps = 500\n")

	out, err := executeCommand(t, "check", "--dir", dir, "--config", cfgPath)
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, out)
	}
	for _, want := range []string{
		"Categories (2 enabled)",
		"[1] Eventos (eventos): 2 images",
		"[3] Menu (menu): 0 images  (empty)",
		"fps: 120",
		"Total images: 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Avisos") {
		t.Errorf("disabled category listed:\n%s", out)
	}
}

func TestCheck_WritesLogFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "menu.data"), "1:eventos:1:Eventos:\n")
	logPath := filepath.Join(dir, "run.jsonl")

	if _, err := executeCommand(t, "check", "--dir", dir, "--config", filepath.Join(dir, "none.json"), "--log-file", logPath); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if err := cleanup.RunAll(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"Menu loaded"`) || !strings.Contains(string(data), `"session"`) {
		t.Fatalf("log file = %s", data)
	}
}

func TestCheck_LogLevelFiltersRecords(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "menu.data"), "1:eventos:1:Eventos:\n")
	logPath := filepath.Join(dir, "run.jsonl")

	if _, err := executeCommand(t, "check", "--dir", dir, "--config", filepath.Join(dir, "none.json"),
		"--log-level", "warn", "--log-file", logPath); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if err := cleanup.RunAll(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), `"level":"INFO"`) {
		t.Fatalf("info records written at warn level: %s", data)
	}
}

func TestReportError_ShowsSafeMessage(t *testing.T) {
	cause := errors.New("open /srv/menu-data/menu.data: permission denied")
	err := fmt.Errorf("prepare: %w", apperrors.Startup("menu file is unreadable", cause))

	buf := &bytes.Buffer{}
	reportError(buf, err)
	got := buf.String()
	if got != "Error: menu file is unreadable\n" {
		t.Fatalf("reportError() wrote %q", got)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "walldisplay ") {
		t.Fatalf("output = %q", out)
	}
}

func TestRootRejectsPositionalArgs(t *testing.T) {
	if _, err := executeCommand(t, "--windowed", "photos"); err == nil {
		t.Fatalf("expected an error for a positional argument")
	}
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kiosk.yaml")

	out, err := executeCommand(t, "init-config", "--config", path)
	if err != nil {
		t.Fatalf("init-config failed: %v", err)
	}
	if !strings.Contains(out, "Wrote "+path) {
		t.Fatalf("output = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(data), "menuWidth: 205") {
		t.Fatalf("written config = %s (%v)", data, err)
	}

	if _, err := executeCommand(t, "init-config", "--config", path); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if _, err := executeCommand(t, "init-config", "--config", path, "--force"); err != nil {
		t.Fatalf("init-config --force failed: %v", err)
	}
}
