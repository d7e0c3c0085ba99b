package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"epasset/internal/frames"
)

// writeTestConfig creates an isolated configuration so commands never touch
// the invoking user's directories.
func writeTestConfig(t *testing.T, historyEnabled bool) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`[paths]
log_dir = %q
history_path = %q

[history]
enabled = %t
`, filepath.Join(dir, "logs"), filepath.Join(dir, "history.db"), historyEnabled)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestParseCrop(t *testing.T) {
	crop, err := parseCrop("10, 20, 300,400")
	if err != nil {
		t.Fatalf("parseCrop: %v", err)
	}
	want := frames.CropBox{X: 10, Y: 20, Width: 300, Height: 400}
	if crop != want {
		t.Fatalf("crop = %+v, want %+v", crop, want)
	}

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "1,2,3,4,5"} {
		if _, err := parseCrop(bad); err == nil {
			t.Errorf("parseCrop(%q) accepted", bad)
		}
	}
}

func TestBuildMetadata(t *testing.T) {
	flags := &exportFlags{
		name:        "Channel",
		description: "A test channel",
		meta:        []string{"author=someone", "revision=3"},
	}
	metadata, err := buildMetadata(flags)
	if err != nil {
		t.Fatalf("buildMetadata: %v", err)
	}
	if len(metadata) != 4 {
		t.Fatalf("metadata = %v", metadata)
	}
	if metadata["name"] != "Channel" || metadata["revision"] != "3" {
		t.Fatalf("metadata = %v", metadata)
	}

	flags = &exportFlags{meta: []string{"missing-separator"}}
	if _, err := buildMetadata(flags); err == nil {
		t.Error("malformed meta entry accepted")
	}

	empty, err := buildMetadata(&exportFlags{})
	if err != nil {
		t.Fatalf("buildMetadata: %v", err)
	}
	if empty != nil {
		t.Fatalf("empty flags produced metadata %v", empty)
	}
}

func TestExportRequiresInputs(t *testing.T) {
	cfgPath := writeTestConfig(t, false)
	_, err := runCommand(t, "--config", cfgPath, "export", "--out", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "nothing to export") {
		t.Fatalf("error = %v, want nothing-to-export", err)
	}
}

func TestMigrateCommand(t *testing.T) {
	cfgPath := writeTestConfig(t, false)
	srcRoot := t.TempDir()
	dstRoot := filepath.Join(t.TempDir(), "converted")

	folder := filepath.Join(srcRoot, "asset-one")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(folder, "epconfig.txt"), []byte("1 ffaabbcc"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(folder, "loop.mp4"), []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}

	output, err := runCommand(t, "--config", cfgPath, "migrate", srcRoot, dstRoot)
	if err != nil {
		t.Fatalf("migrate: %v\n%s", err, output)
	}
	if !strings.Contains(output, "1/1 folders succeeded") {
		t.Fatalf("output missing summary:\n%s", output)
	}
	if _, err := os.Stat(filepath.Join(dstRoot, "asset-one", "epconfig.json")); err != nil {
		t.Fatalf("converted config missing: %v", err)
	}
}

func TestMigrateCommandEmptySource(t *testing.T) {
	cfgPath := writeTestConfig(t, false)
	output, err := runCommand(t, "--config", cfgPath, "migrate", t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(output, "no legacy asset folders found") {
		t.Fatalf("output = %q", output)
	}
}

func TestHistoryCommandRecordsMigrations(t *testing.T) {
	cfgPath := writeTestConfig(t, true)
	srcRoot := t.TempDir()
	folder := filepath.Join(srcRoot, "asset")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, content := range map[string]string{"epconfig.txt": "0", "loop.mp4": "v"} {
		if err := os.WriteFile(filepath.Join(folder, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if _, err := runCommand(t, "--config", cfgPath, "migrate", srcRoot, filepath.Join(t.TempDir(), "out")); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	output, err := runCommand(t, "--config", cfgPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(output, "migration") || !strings.Contains(output, "completed") {
		t.Fatalf("history output:\n%s", output)
	}
}

func TestHistoryDisabled(t *testing.T) {
	cfgPath := writeTestConfig(t, false)
	_, err := runCommand(t, "--config", cfgPath, "history")
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("error = %v, want history-disabled", err)
	}
}
