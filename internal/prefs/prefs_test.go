package prefs

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != defaultTheme || p.LastBoard != "" {
		t.Fatalf("prefs = %+v, want defaults", p)
	}
}

func TestLoad_ReadsDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "chanwatch")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	body := "theme = \"Slate\"\nlast_board = \"/g/\"\nrecent_boards = [\"g\", \"v\"]\n"
	if err := os.WriteFile(filepath.Join(dir, "prefs.toml"), []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != "Slate" || p.LastBoard != "g" {
		t.Fatalf("prefs = %+v, want Slate and g", p)
	}
	if !slices.Equal(p.Recent, []string{"g", "v"}) {
		t.Fatalf("Recent = %v", p.Recent)
	}
}

func TestSave_RoundTripsThroughNewDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "prefs.toml")

	p := Prefs{Theme: "Paper"}
	p.Remember("g")
	if err := Save(path, p); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Theme != "Paper" || loaded.LastBoard != "g" {
		t.Fatalf("loaded = %+v", loaded)
	}
}

func TestLoad_BadContentFallsBackToDefault(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty theme", body: "theme = \"\"\n"},
		{name: "invalid toml", body: "not valid toml {{{\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "prefs.toml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			p, err := Load(path)
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if p.Theme != defaultTheme {
				t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
			}
		})
	}
}

func TestRemember_MovesToFrontAndCaps(t *testing.T) {
	var p Prefs
	for _, b := range []string{"a", "b", "c", "d", "e", "f"} {
		p.Remember(b)
	}
	p.Remember("/c/")
	p.Remember("  ")

	if p.LastBoard != "c" {
		t.Fatalf("LastBoard = %q, want c", p.LastBoard)
	}
	if want := []string{"c", "f", "e", "d", "b"}; !slices.Equal(p.Recent, want) {
		t.Fatalf("Recent = %v, want %v", p.Recent, want)
	}
}
