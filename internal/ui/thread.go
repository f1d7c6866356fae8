package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/chanwatch/internal/api"
	"github.com/five82/chanwatch/internal/board"
)

func (m Model) renderThread() string {
	styles := m.theme.Styles()

	var title string
	switch {
	case m.thread != nil:
		s := m.thread.Summary
		title = fmt.Sprintf("/%s/%d  %s", s.Board, s.ID, threadTitle(s))
		title = styles.AccentText.Render(truncate(title, m.width-24)) +
			styles.MutedText.Render(fmt.Sprintf("  %d replies  %d images", s.Replies, s.Images))
		if s.State == board.Dead {
			title += "  " + styles.DangerText.Render("404")
		}
	default:
		title = styles.AccentText.Render(fmt.Sprintf("thread %d", m.openID))
	}
	if m.notice != "" {
		title += "  " + styles.InfoText.Render(m.notice)
	}
	return padRight(title, m.width) + "\n" + m.viewport.View()
}

func (m Model) renderThreadContent() string {
	styles := m.theme.Styles()
	switch {
	case m.threadErr != nil && m.thread == nil:
		return styles.DangerText.Render(" "+m.threadErr.Error()) + "\n\n" + styles.MutedText.Render(" esc to go back")
	case m.thread == nil:
		return styles.MutedText.Render(" Loading thread...")
	}

	width := max(20, m.width-2)
	topicID := m.thread.Summary.ID
	var b strings.Builder
	if m.threadErr != nil {
		b.WriteString(styles.WarningText.Render(" refresh failed: "+m.threadErr.Error()) + "\n\n")
	}
	for i, p := range m.thread.Posts {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderPost(p, topicID, m.links, width, styles))
	}
	return b.String()
}

// renderPost renders one post: a meta line, an optional attachment line, and
// the comment wrapped to width with quote lines colored.
func renderPost(p api.Post, topicID int64, links api.URLs, width int, styles Styles) string {
	var b strings.Builder

	name := p.Name
	if name == "" {
		name = "Anonymous"
	}
	meta := []string{styles.SuccessText.Render(name)}
	if p.Trip != "" {
		meta = append(meta, styles.MutedText.Render(p.Trip))
	}
	if p.PosterID != "" {
		meta = append(meta, styles.FaintText.Render("ID:"+p.PosterID))
	}
	if p.Time > 0 {
		meta = append(meta, styles.MutedText.Render(p.Timestamp().Format("2006-01-02 15:04:05")))
	}
	no := fmt.Sprintf("No.%d", p.No)
	if p.IsOP(topicID) {
		no += " OP"
	}
	meta = append(meta, styles.AccentText.Render(no))
	b.WriteString(" " + strings.Join(meta, " ") + "\n")

	if f, ok := p.File(); ok {
		line := fmt.Sprintf("File: %s (%s, %dx%d)", f.OriginalFullName(), formatBytes(f.Size), f.Width, f.Height)
		if f.Deleted {
			line = "File deleted."
		} else if links.Board() != "" {
			line += " " + f.URL(links)
		}
		b.WriteString(" " + styles.InfoText.Render(truncate(line, width)) + "\n")
	}

	text := p.TextComment()
	if text == "" {
		return b.String()
	}
	wrap := lipgloss.NewStyle().Width(width).PaddingLeft(1)
	for _, line := range strings.Split(text, "\n") {
		style := styles.Text
		if strings.HasPrefix(line, ">") && !strings.HasPrefix(line, ">>") {
			style = styles.QuoteText
		} else if strings.HasPrefix(line, ">>") {
			style = styles.AccentText
		}
		b.WriteString(wrap.Inherit(style).Render(line) + "\n")
	}
	return b.String()
}
