package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/chanwatch/internal/board"
)

// renderList renders the thread table: column titles then one row per
// thread in catalog order.
func (m Model) renderList() string {
	styles := m.theme.Styles()
	rows := m.listRows()

	var b strings.Builder
	b.WriteString(styles.FaintText.Render(padRight(fmt.Sprintf(" %-6s %-10s %7s %5s  %s", "STATE", "NO.", "REPLIES", "IMG", "SUBJECT"), m.width)))

	threads := m.snapshot.Threads
	if len(threads) == 0 {
		msg := "Loading catalog..."
		if m.snapshot.HasData {
			msg = "No threads."
		}
		b.WriteString("\n" + styles.MutedText.Render(" "+msg))
		return padLines(b.String(), rows+1)
	}

	end := min(len(threads), m.offset+rows)
	for i := m.offset; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(m.renderRow(threads[i], i == m.cursor, styles))
	}
	return padLines(b.String(), rows+1)
}

func (m Model) renderRow(t board.Summary, selected bool, styles Styles) string {
	chip := styles.StateStyle(t.State).Render(fmt.Sprintf("%-5s", stateLabel(t.State)))

	title := threadTitle(t)
	if t.Closed {
		title = "[closed] " + title
	}
	if t.Sticky {
		title = "[sticky] " + title
	}

	text := fmt.Sprintf(" %-10d %7d %5d  ", t.ID, t.Replies, t.Images)
	width := m.width - lipgloss.Width(chip) - lipgloss.Width(text)
	if t.OmittedPosts > 0 {
		suffix := fmt.Sprintf(" (+%d)", t.OmittedPosts)
		text += truncate(title, width-len(suffix)) + suffix
	} else {
		text += truncate(title, width)
	}

	if selected {
		return chip + styles.Selected.Render(padRight(text, m.width-lipgloss.Width(chip)))
	}
	return chip + styles.Text.Render(text)
}

// threadTitle prefers the subject and falls back to the first comment line.
func threadTitle(t board.Summary) string {
	if s := strings.TrimSpace(t.Subject); s != "" {
		return s
	}
	first, _, _ := strings.Cut(strings.TrimSpace(t.Excerpt), "\n")
	if first == "" {
		return fmt.Sprintf("No.%d", t.ID)
	}
	return first
}

func stateLabel(s board.State) string {
	switch s {
	case board.Fresh:
		return "live"
	case board.Stale:
		return "new?"
	case board.Dead:
		return "gone"
	default:
		return s.String()
	}
}
