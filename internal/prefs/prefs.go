// Package prefs persists chanwatch user preferences in
// ~/.config/chanwatch/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds what the TUI remembers between runs.
type Prefs struct {
	Theme     string   `toml:"theme"`
	LastBoard string   `toml:"last_board"`
	Recent    []string `toml:"recent_boards"`
}

const (
	defaultPrefsPath = "~/.config/chanwatch/prefs.toml"
	defaultTheme     = "Dracula"
	maxRecent        = 5
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. Preferences are a convenience, so any
// read or parse problem yields defaults rather than an error.
func Load(path string) (Prefs, error) {
	prefs := Prefs{Theme: defaultTheme}

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return prefs, nil
	}
	if err := toml.Unmarshal(data, &prefs); err != nil {
		return Prefs{Theme: defaultTheme}, nil
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	prefs.LastBoard = normalizeBoard(prefs.LastBoard)
	return prefs, nil
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// Remember records board as the last opened board and moves it to the front
// of the recent list.
func (p *Prefs) Remember(board string) {
	board = normalizeBoard(board)
	if board == "" {
		return
	}
	p.LastBoard = board
	p.Recent = slices.DeleteFunc(p.Recent, func(b string) bool { return b == board })
	p.Recent = slices.Insert(p.Recent, 0, board)
	if len(p.Recent) > maxRecent {
		p.Recent = p.Recent[:maxRecent]
	}
}

// normalizeBoard accepts "g", "/g/" or " g/ ".
func normalizeBoard(board string) string {
	return strings.Trim(strings.TrimSpace(board), "/")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
