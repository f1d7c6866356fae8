package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/chanwatch/internal/api"
	"github.com/five82/chanwatch/internal/board"
	"github.com/five82/chanwatch/internal/prefs"
	"github.com/five82/chanwatch/internal/state"
)

// ThreadView is a fully loaded thread ready to display.
type ThreadView struct {
	Summary board.Summary
	Posts   []api.Post
	// Delta is the reply change from a forced reload.
	Delta int
}

// ThreadSource loads threads on demand.
type ThreadSource interface {
	OpenThread(ctx context.Context, id int64, force bool) (ThreadView, error)
}

// Options configure the TUI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Source    ThreadSource
	PollTick  time.Duration
	ThemeName string
	PrefsPath string
	Links     api.URLs
}

const (
	uiTick        = time.Second
	threadTimeout = 15 * time.Second
	defaultWidth  = 80
	defaultHeight = 24
)

type viewKind int

const (
	viewList viewKind = iota
	viewThread
)

type (
	tickMsg         time.Time
	threadLoadedMsg struct {
		id     int64
		view   ThreadView
		err    error
		forced bool
	}
	prefsSavedMsg struct{ err error }
)

// Model is the bubbletea model for chanwatch.
type Model struct {
	ctx       context.Context
	store     *state.Store
	source    ThreadSource
	links     api.URLs
	pollTick  time.Duration
	prefsPath string
	theme     Theme

	snapshot state.Snapshot
	width    int
	height   int
	current  viewKind
	cursor   int
	offset   int

	openID     int64
	thread     *ThreadView
	threadErr  error
	loading    bool
	lastLoad   time.Time
	notice     string
	viewport   viewport.Model
	lastUpdate time.Time
}

// New builds the initial model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.PollTick
	if tick <= 0 {
		tick = 10 * time.Second
	}
	m := Model{
		ctx:       ctx,
		store:     opts.Store,
		source:    opts.Source,
		links:     opts.Links,
		pollTick:  tick,
		prefsPath: opts.PrefsPath,
		theme:     GetTheme(opts.ThemeName),
		width:     defaultWidth,
		height:    defaultHeight,
		viewport:  viewport.New(defaultWidth, defaultHeight),
	}
	m.resizeViewport()
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
	}
	return m
}

// Run starts the TUI and blocks until the user quits or the context ends.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
		opts.Context = ctx
	}
	program := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// Init starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(uiTick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resizeViewport()
		m.refreshThreadContent()
		return m, nil

	case tickMsg:
		if m.store != nil {
			m.snapshot = m.store.Snapshot()
			m.lastUpdate = m.snapshot.LastUpdated
			m.clampCursor()
		}
		cmds := []tea.Cmd{tick()}
		if m.current == viewThread && !m.loading && time.Time(msg).Sub(m.lastLoad) >= m.pollTick {
			m.loading = true
			cmds = append(cmds, m.loadThread(m.openID, false))
		}
		return m, tea.Batch(cmds...)

	case threadLoadedMsg:
		if msg.id != m.openID {
			return m, nil
		}
		m.loading = false
		m.lastLoad = time.Now()
		m.threadErr = msg.err
		if msg.err == nil {
			v := msg.view
			m.thread = &v
			m.notice = ""
			if msg.forced {
				m.notice = fmt.Sprintf("reloaded (%+d)", v.Delta)
			}
		}
		m.refreshThreadContent()
		return m, nil

	case prefsSavedMsg:
		if msg.err != nil {
			m.notice = "prefs: " + msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "T":
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.refreshThreadContent()
		return m, m.saveTheme()
	}

	if m.current == viewThread {
		return m.handleThreadKey(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down", "j":
		m.cursor++
	case "up", "k":
		m.cursor--
	case "pgdown", "ctrl+d":
		m.cursor += m.listRows()
	case "pgup", "ctrl+u":
		m.cursor -= m.listRows()
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.snapshot.Threads) - 1
	case "enter":
		if len(m.snapshot.Threads) == 0 {
			return m, nil
		}
		selected := m.snapshot.Threads[m.cursor]
		m.current = viewThread
		m.openID = selected.ID
		m.thread = nil
		m.threadErr = nil
		m.notice = ""
		m.loading = true
		m.viewport.GotoTop()
		m.refreshThreadContent()
		return m, m.loadThread(selected.ID, false)
	}
	m.clampCursor()
	return m, nil
}

func (m Model) handleThreadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace", "h":
		m.current = viewList
		m.openID = 0
		m.thread = nil
		m.loading = false
		return m, nil
	case "r":
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.notice = "reloading..."
		return m, m.loadThread(m.openID, true)
	case "G", "end":
		m.viewport.GotoBottom()
		return m, nil
	case "g", "home":
		m.viewport.GotoTop()
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) loadThread(id int64, force bool) tea.Cmd {
	source, ctx := m.source, m.ctx
	return func() tea.Msg {
		if source == nil {
			return threadLoadedMsg{id: id, err: errors.New("no thread source"), forced: force}
		}
		ctx, cancel := context.WithTimeout(ctx, threadTimeout)
		defer cancel()
		view, err := source.OpenThread(ctx, id, force)
		return threadLoadedMsg{id: id, view: view, err: err, forced: force}
	}
}

func (m Model) saveTheme() tea.Cmd {
	path, name := m.prefsPath, m.theme.Name
	return func() tea.Msg {
		p, _ := prefs.Load(path)
		p.Theme = name
		return prefsSavedMsg{err: prefs.Save(path, p)}
	}
}

func (m *Model) clampCursor() {
	n := len(m.snapshot.Threads)
	m.cursor = min(m.cursor, n-1)
	m.cursor = max(m.cursor, 0)

	rows := m.listRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	m.offset = max(0, min(m.offset, n-rows))
}

// listRows is the number of thread rows that fit between header, column
// titles and command bar.
func (m Model) listRows() int {
	return max(1, m.height-3)
}

func (m *Model) resizeViewport() {
	m.viewport.Width = m.width
	m.viewport.Height = max(1, m.height-3)
}

func (m *Model) refreshThreadContent() {
	if m.current != viewThread {
		return
	}
	m.viewport.SetContent(m.renderThreadContent())
}

// View renders the current screen.
func (m Model) View() string {
	var body string
	if m.current == viewThread {
		body = m.renderThread()
	} else {
		body = m.renderList()
	}
	return m.renderHeader() + "\n" + body + "\n" + m.renderCommandBar()
}
