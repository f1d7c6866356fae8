package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	snap := m.snapshot
	parts := []string{bg.Render("chanwatch", styles.Logo)}
	if snap.Board != "" {
		label := "/" + snap.Board + "/"
		if snap.Title != "" && snap.Title != label {
			label += " " + snap.Title
		}
		parts = append(parts, bg.Render(label, styles.AccentText))
	}

	switch {
	case snap.LastError != nil && snap.IsOffline():
		parts = append(parts,
			bg.Render(classifyConnectionError(snap.LastError), styles.DangerText),
			bg.Render("Retrying...", styles.WarningText.Bold(true)))
	case snap.LastError != nil:
		parts = append(parts, bg.Render("poll failed", styles.WarningText))
	case !snap.HasData:
		parts = append(parts, bg.Render("Connecting...", styles.WarningText.Bold(true)))
	default:
		parts = append(parts,
			bg.Render(fmt.Sprintf("%d threads", len(snap.Threads)), styles.Text),
			bg.Render(fmt.Sprintf("+%d posts", snap.TotalNewPosts), styles.SuccessText))
	}

	if !snap.LastUpdated.IsZero() {
		parts = append(parts, bg.Render("updated "+humanizeDuration(time.Since(snap.LastUpdated)), styles.MutedText))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

// classifyConnectionError turns a poll error into a short header label.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	case strings.Contains(msg, "status 429"):
		return "RATE LIMITED"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd
	switch m.current {
	case viewThread:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"g/G", "Top/Bottom"},
			{"r", "Reload"},
			{"esc", "Back"},
			{"q", "Quit"},
		}
	default:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"enter", "Open"},
			{"q", "Quit"},
		}
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments, bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments, bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// truncate shortens s to max display cells with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= 3 {
		return string(runes[:min(max, len(runes))])
	}
	for len(runes) > 0 && lipgloss.Width(string(runes)) > max-3 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// padLines pads s with blank lines to exactly n lines.
func padLines(s string, n int) string {
	lines := strings.Count(s, "\n") + 1
	if lines < n {
		s += strings.Repeat("\n", n-lines)
	}
	return s
}

func humanizeDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func formatBytes(bytes int64) string {
	const (
		kib = 1024
		mib = 1024 * 1024
	)
	switch {
	case bytes >= mib:
		return fmt.Sprintf("%.2f MiB", float64(bytes)/mib)
	case bytes >= kib:
		return fmt.Sprintf("%.2f KiB", float64(bytes)/kib)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
