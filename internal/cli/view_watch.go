package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/timesflying/internal/cli/formatter"
	"github.com/alexanderramin/timesflying/internal/domain"
	"github.com/alexanderramin/timesflying/internal/livequery"
	"github.com/alexanderramin/timesflying/internal/store"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard of the running entry and recent entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if app.Store != nil {
				// Picks up writes from other processes sharing the file.
				if err := app.Store.WatchFile(ctx); err != nil && !errors.Is(err, store.ErrNoFile) {
					return err
				}
				if err := app.Store.LogChanges(ctx); err != nil {
					return err
				}
			}

			m := newWatchModel(ctx, app)
			defer m.close()

			_, err := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithOutput(cmd.OutOrStdout()),
			).Run()
			if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
}

// refreshMsg asks the model to re-render after a cell or clock change.
type refreshMsg struct{}

type actionDoneMsg struct {
	note string
	err  error
}

type watchKeyMap struct {
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Stop     key.Binding
	Continue key.Binding
	Pin      key.Binding
}

func defaultWatchKeys() watchKeyMap {
	return watchKeyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevPage: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "newer")),
		NextPage: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "older")),
		Stop:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Continue: key.NewBinding(key.WithKeys("enter", "c"), key.WithHelp("enter", "continue")),
		Pin:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pin")),
	}
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PrevPage, k.NextPage, k.Continue, k.Stop, k.Pin, k.Quit}
}

// watchModel renders three live cells. Cell observers and clock ticks
// write into updates; listen turns each signal into a refreshMsg.
type watchModel struct {
	ctx     context.Context
	app     *App
	keys    watchKeyMap
	page    *livequery.Var[int]
	perPage int

	active   *livequery.Cell[*domain.TimeEntry]
	entries  *livequery.Cell[[]*domain.TimeEntry]
	projects *livequery.Cell[[]*domain.Project]

	updates  chan struct{}
	done     chan struct{}
	dispose  []func()
	closed   bool
	cursor   int
	note     string
	err      error
	width    int
	quitting bool
}

// newWatchModel binds the dashboard's cells. Actions triggered from the
// dashboard run with ctx, so they are cancelled with the watch command.
func newWatchModel(ctx context.Context, app *App) *watchModel {
	perPage := app.Config.PerPage
	if perPage <= 0 {
		perPage = 30
	}

	m := &watchModel{
		ctx:     ctx,
		app:     app,
		keys:    defaultWatchKeys(),
		page:    livequery.NewVar(0),
		perPage: perPage,
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	m.active = livequery.Bind(app.Catalog.ActiveEntry())
	m.entries = livequery.BindRef(
		app.Catalog.TimeEntries(m.page, livequery.Static(perPage)),
		livequery.WithDefault([]*domain.TimeEntry{}),
	)
	m.projects = livequery.Bind(app.Catalog.Projects(), livequery.WithDefault([]*domain.Project{}))

	m.dispose = append(m.dispose,
		m.active.Subscribe(func(livequery.State[*domain.TimeEntry]) { m.notify() }),
		m.entries.Subscribe(func(livequery.State[[]*domain.TimeEntry]) { m.notify() }),
		m.projects.Subscribe(func(livequery.State[[]*domain.Project]) { m.notify() }),
		app.Clock.Acquire(),
		app.Clock.Subscribe(func(time.Time) { m.notify() }),
	)
	return m
}

func (m *watchModel) notify() {
	select {
	case m.updates <- struct{}{}:
	default:
	}
}

func (m *watchModel) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.updates:
			return refreshMsg{}
		case <-m.done:
			return nil
		}
	}
}

// close releases the cells and the clock. Safe to call more than once.
func (m *watchModel) close() {
	if m.closed {
		return
	}
	m.closed = true
	close(m.done)
	for _, fn := range m.dispose {
		fn()
	}
	m.active.Close()
	m.entries.Close()
	m.projects.Close()
}

func (m *watchModel) Init() tea.Cmd {
	return m.listen()
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case refreshMsg:
		m.clampCursor()
		return m, m.listen()

	case actionDoneMsg:
		m.note, m.err = msg.note, msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *watchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.entries.Get().Data

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(entries)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.PrevPage):
		if m.page.Get() > 0 {
			m.cursor = 0
			m.page.Update(func(p int) int { return p - 1 })
		}

	case key.Matches(msg, m.keys.NextPage):
		if len(entries) >= m.perPage {
			m.cursor = 0
			m.page.Update(func(p int) int { return p + 1 })
		}

	case key.Matches(msg, m.keys.Stop):
		return m, m.run(func(ctx context.Context) (string, error) {
			e, err := m.app.Tracking.Stop(ctx)
			if err != nil || e == nil {
				return "", err
			}
			return formatter.FormatStopped(e, m.app.Config.ShowSeconds), nil
		})

	case key.Matches(msg, m.keys.Continue):
		if e := m.selected(); e != nil {
			id := e.ID
			return m, m.run(func(ctx context.Context) (string, error) {
				started, err := m.app.Tracking.Continue(ctx, id)
				if err != nil || started == nil {
					return "", err
				}
				return "Continued " + formatter.Bold(started.Description), nil
			})
		}

	case key.Matches(msg, m.keys.Pin):
		if e := m.selected(); e != nil {
			id := e.ID
			return m, m.run(func(ctx context.Context) (string, error) {
				_, err := m.app.Tracking.TogglePin(ctx, id)
				return "", err
			})
		}
	}
	return m, nil
}

func (m *watchModel) run(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		note, err := fn(m.ctx)
		return actionDoneMsg{note: note, err: err}
	}
}

func (m *watchModel) selected() *domain.TimeEntry {
	entries := m.entries.Get().Data
	if m.cursor < 0 || m.cursor >= len(entries) {
		return nil
	}
	return entries[m.cursor]
}

func (m *watchModel) clampCursor() {
	n := len(m.entries.Get().Data)
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m *watchModel) View() string {
	if m.quitting {
		return ""
	}

	now := m.app.Clock.Now()
	show := m.app.Config.ShowSeconds
	projects := m.projects.Get().Data

	var b strings.Builder

	active := m.active.Get()
	b.WriteString(formatter.RenderBox("Tracking", formatter.FormatActive(active.Data, projects, now, show)))
	b.WriteString("\n")
	if active.Err != nil {
		b.WriteString(formatter.StyleRed.Render("active: "+active.Err.Error()) + "\n")
	}

	entries := m.entries.Get()
	switch {
	case entries.Loading && len(entries.Data) == 0:
		b.WriteString(formatter.Dim("Loading…") + "\n")
	case len(entries.Data) == 0:
		b.WriteString(formatter.Dim("No time entries.") + "\n")
	default:
		cursor := min(m.cursor, len(entries.Data)-1)
		b.WriteString(formatter.EntryTable(entries.Data, projects, now, show, cursor))
		b.WriteString("\n")
	}
	if entries.Err != nil {
		b.WriteString(formatter.StyleRed.Render("entries: "+entries.Err.Error()) + "\n")
	}
	b.WriteString(formatter.Pager(m.page.Get(), m.perPage, len(entries.Data)) + "\n")

	if m.err != nil {
		b.WriteString(formatter.StyleRed.Render(m.err.Error()) + "\n")
	} else if m.note != "" {
		b.WriteString(m.note + "\n")
	}

	var hints []string
	for _, k := range m.keys.ShortHelp() {
		hints = append(hints, formatter.Dim(fmt.Sprintf("%s: %s", k.Help().Key, k.Help().Desc)))
	}
	b.WriteString("\n" + strings.Join(hints, "  "))
	return b.String()
}
