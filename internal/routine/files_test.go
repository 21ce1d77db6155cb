package routine

import (
	"os"
	"path/filepath"
	"testing"
)

const routineYAML = `name: fan_control
description: Fan on when warm
steps:
  - command: read
    device: temp
    as: temp
  - if: "{temp.value} > 25"
    then:
      command: activate
      device: fan
    else:
      command: deactivate
      device: fan
`

func writeRoutine(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeRoutine(t, t.TempDir(), "fan.yaml", routineYAML)

	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if f.Name != "fan_control" || len(f.Steps) != 2 {
		t.Fatalf("unexpected file: %+v", f)
	}

	// Nested branch mappings must decode as map[string]any so the
	// engine treats YAML and JSON steps identically.
	branch, ok := f.Steps[1]["then"].(map[string]any)
	if !ok {
		t.Fatalf("then branch has type %T", f.Steps[1]["then"])
	}
	if branch["command"] != "activate" {
		t.Fatalf("unexpected branch: %+v", branch)
	}
}

func TestLoadFileNumbersMatchJSON(t *testing.T) {
	path := writeRoutine(t, t.TempDir(), "blink.yaml", `name: blink
steps:
  - command: blink
    device: light
    times: 5
`)

	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	// YAML integers normalize to float64, the JSON number type.
	if v, ok := f.Steps[0]["times"].(float64); !ok || v != 5 {
		t.Fatalf("times has type %T value %v", f.Steps[0]["times"], f.Steps[0]["times"])
	}
}

func TestLoadFileValidation(t *testing.T) {
	dir := t.TempDir()

	noName := writeRoutine(t, dir, "noname.yaml", "steps:\n  - command: read\n")
	if _, err := LoadFile(noName); err == nil {
		t.Fatal("expected error for missing name")
	}

	noSteps := writeRoutine(t, dir, "nosteps.yaml", "name: empty\n")
	if _, err := LoadFile(noSteps); err == nil {
		t.Fatal("expected error for missing steps")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeRoutine(t, dir, "b.yaml", "name: beta\nsteps:\n  - command: read\n")
	writeRoutine(t, dir, "a.yml", "name: alpha\nsteps:\n  - command: read\n")
	writeRoutine(t, dir, "ignored.txt", "not a routine")

	files, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(files) != 2 || files[0].Name != "alpha" || files[1].Name != "beta" {
		t.Fatalf("unexpected files: %+v", files)
	}
}

func TestLoadDirMissing(t *testing.T) {
	files, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if files != nil {
		t.Fatalf("expected no files, got %+v", files)
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	s := newTestStore(t, nil)
	dir := t.TempDir()

	path := writeRoutine(t, dir, "fan.yaml", routineYAML)
	f, err := s.Import(path)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if f.Name != "fan_control" {
		t.Fatalf("unexpected import: %+v", f)
	}

	out := filepath.Join(dir, "exported.yaml")
	if err := s.Export("fan_control", out); err != nil {
		t.Fatalf("Export: %v", err)
	}

	back, err := LoadFile(out)
	if err != nil {
		t.Fatalf("LoadFile exported: %v", err)
	}
	if back.Name != "fan_control" || back.Description != "Fan on when warm" || len(back.Steps) != 2 {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestImportDirsFirstHitWins(t *testing.T) {
	s := newTestStore(t, nil)

	first := t.TempDir()
	second := t.TempDir()
	writeRoutine(t, first, "r.yaml", "name: shared\ndescription: from first\nsteps:\n  - command: read\n")
	writeRoutine(t, second, "r.yaml", "name: shared\ndescription: from second\nsteps:\n  - command: read\n")
	writeRoutine(t, second, "only.yaml", "name: only_second\nsteps:\n  - command: read\n")

	names, err := s.ImportDirs([]string{first, second})
	if err != nil {
		t.Fatalf("ImportDirs: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 imports, got %v", names)
	}

	r, err := s.Load("shared")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Description != "from first" {
		t.Fatalf("expected first directory to win, got %q", r.Description)
	}
}
