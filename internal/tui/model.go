package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"devdeck/internal/app"
	"devdeck/internal/daemon"
	"devdeck/internal/supervisor"
)

const (
	refreshEvery   = 2 * time.Second
	requestTimeout = 4 * time.Second
)

// Controller defines the subset of app.App behaviour the TUI needs.
type Controller interface {
	Status() (app.DaemonStatus, error)
	StartDaemon() (*app.DaemonHandle, error)
	Snapshot(context.Context, app.StatusParams) (app.Snapshot, error)
	Apps(context.Context, app.AppsParams) ([]daemon.AppInfo, error)
	Up(context.Context, app.UpParams) (supervisor.DevServerStatus, error)
	Down(context.Context, app.DownParams) error
	RunTest(context.Context, app.TestParams) (supervisor.TestRunStatus, error)
	OpenInspector(context.Context, app.InspectorParams) (bool, error)
	CloseInspector(context.Context, app.InspectorParams) (bool, error)
}

// Model represents the Bubble Tea state.
type Model struct {
	controller Controller

	list list.Model
	apps []daemon.AppInfo
	snap app.Snapshot

	daemonStatus app.DaemonStatus
	statusMsg    string

	err     error
	loading bool

	width  int
	height int

	lastUpdated time.Time
}

// New constructs a TUI model with default styles.
func New(ctrl Controller) *Model {
	delegate := list.NewDefaultDelegate()
	lst := list.New([]list.Item{}, delegate, 0, 0)
	lst.Title = "Workshop apps"
	lst.SetShowHelp(false)
	lst.SetFilteringEnabled(false)
	lst.DisableQuitKeybindings()

	return &Model{
		controller: ctrl,
		list:       lst,
		statusMsg:  "Checking daemon status…",
		loading:    true,
	}
}

// Run spins up the Bubble Tea program with sensible defaults.
func Run(ctrl Controller) error {
	m := New(ctrl)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(checkDaemonStatusCmd(m.controller), loadAppsCmd(m.controller), loadSnapshotCmd(m.controller), tickCmd())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.height > 4 {
			m.list.SetSize(msg.Width, msg.Height-4)
		}

	case daemonStatusMsg:
		m.daemonStatus = msg.status
		if msg.status.Running {
			if msg.status.PID > 0 {
				m.statusMsg = fmt.Sprintf("Daemon running (pid %d).", msg.status.PID)
			} else {
				m.statusMsg = "Daemon running."
			}
		} else {
			m.statusMsg = "Daemon is not running. Press s to start it."
			m.snap = app.Snapshot{}
			m.rebuildItems()
		}

	case appsLoadedMsg:
		m.apps = msg.apps
		m.rebuildItems()

	case snapshotMsg:
		m.loading = false
		m.err = nil
		m.snap = msg.snap
		m.lastUpdated = time.Now()
		m.rebuildItems()

	case daemonStartedMsg:
		m.statusMsg = "Daemon started."
		return m, tea.Batch(checkDaemonStatusCmd(m.controller), loadAppsCmd(m.controller), loadSnapshotCmd(m.controller))

	case actionDoneMsg:
		m.statusMsg = msg.note
		return m, loadSnapshotCmd(m.controller)

	case tickMsg:
		cmds := []tea.Cmd{checkDaemonStatusCmd(m.controller), tickCmd()}
		if m.daemonStatus.Running {
			cmds = append(cmds, loadSnapshotCmd(m.controller))
		}
		return m, tea.Batch(cmds...)

	case errMsg:
		m.loading = false
		m.err = msg.err

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, tea.Batch(loadAppsCmd(m.controller), loadSnapshotCmd(m.controller))
		case "s":
			if !m.daemonStatus.Running {
				m.statusMsg = "Starting daemon…"
				return m, startDaemonCmd(m.controller)
			}
		case "u", "enter":
			if row := m.currentApp(); row != nil && m.daemonStatus.Running {
				m.statusMsg = fmt.Sprintf("Starting dev server for %s…", row.info.Name)
				return m, upCmd(m.controller, row.info.Name)
			}
		case "d":
			if row := m.currentApp(); row != nil && m.daemonStatus.Running {
				m.statusMsg = fmt.Sprintf("Stopping dev server for %s…", row.info.Name)
				return m, downCmd(m.controller, row.info.Name)
			}
		case "t":
			if row := m.currentApp(); row != nil && m.daemonStatus.Running {
				m.statusMsg = fmt.Sprintf("Running tests for %s…", row.info.Name)
				return m, runTestCmd(m.controller, row.info.Name)
			}
		case "i":
			if m.daemonStatus.Running {
				return m, toggleInspectorCmd(m.controller, m.snap.Inspector)
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	statusStyle := lipgloss.NewStyle().Bold(true)
	if !m.daemonStatus.Running {
		statusStyle = statusStyle.Foreground(lipgloss.Color("203"))
	} else {
		statusStyle = statusStyle.Foreground(lipgloss.Color("42"))
	}
	header := m.statusMsg
	if m.daemonStatus.Running && m.snap.Inspector {
		header += " [inspector open]"
	}
	b.WriteString(statusStyle.Render(header))
	b.WriteByte('\n')

	if m.loading {
		b.WriteString("Loading workshop state…\n")
	} else if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
		b.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteByte('\n')
	}

	if len(m.list.Items()) == 0 && !m.loading && m.err == nil && m.daemonStatus.Running {
		b.WriteString("No apps in the workshop manifest.\n")
	} else {
		b.WriteString(m.list.View())
		b.WriteByte('\n')
	}

	if current := m.currentApp(); current != nil {
		var lines []string
		lines = append(lines, fmt.Sprintf("app=%s\npath=%s", current.info.Name, current.info.Path))
		if current.dev != nil {
			lines = append(lines, fmt.Sprintf("dev: %s port=%d pid=%d color=%s",
				current.dev.Status, current.dev.Port, current.dev.PID, current.dev.Color))
		} else {
			lines = append(lines, "dev: not running")
		}
		if current.test != nil {
			testLine := fmt.Sprintf("tests: %s run=%s pid=%d", current.test.Status, current.test.RunID, current.test.PID)
			if current.test.ExitCode != nil {
				testLine += fmt.Sprintf(" exit=%d", *current.test.ExitCode)
			}
			lines = append(lines, testLine)
		} else {
			lines = append(lines, "tests: no runs yet")
		}
		detailStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).MarginBottom(1)
		b.WriteString(detailStyle.Render(strings.Join(lines, "\n")))
		b.WriteByte('\n')
	}

	help := "Commands: q quit • r reload • s start daemon • u up • d down • t test • i inspector"
	if !m.lastUpdated.IsZero() {
		help += fmt.Sprintf(" • last update %s", m.lastUpdated.Format(time.Kitchen))
	}
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

// appRow joins one catalog entry with its tracked dev server and test run.
type appRow struct {
	info daemon.AppInfo
	dev  *supervisor.DevServerStatus
	test *supervisor.TestRunStatus
}

func (a appRow) Title() string {
	if a.dev == nil {
		return fmt.Sprintf("○ %s (stopped)", a.info.Name)
	}
	dot := lipgloss.NewStyle().Foreground(paletteColor(a.dev.Color)).Render("●")
	return fmt.Sprintf("%s %s (%s, port %d)", dot, a.info.Name, a.dev.Status, a.dev.Port)
}

func (a appRow) Description() string {
	test := "tests: -"
	if a.test != nil {
		test = fmt.Sprintf("tests: %s", a.test.Status)
		if a.test.ExitCode != nil {
			test += fmt.Sprintf(" (exit %d)", *a.test.ExitCode)
		}
	}
	return fmt.Sprintf("%s | %s", a.info.Path, test)
}

func (a appRow) FilterValue() string {
	return fmt.Sprintf("%s %s", a.info.Name, a.info.DisplayName)
}

// paletteColor maps handle color names onto the bright ANSI palette.
func paletteColor(name string) lipgloss.Color {
	switch name {
	case "cyan":
		return lipgloss.Color("14")
	case "magenta":
		return lipgloss.Color("13")
	case "green":
		return lipgloss.Color("10")
	case "yellow":
		return lipgloss.Color("11")
	case "blue":
		return lipgloss.Color("12")
	case "red":
		return lipgloss.Color("9")
	default:
		return lipgloss.Color("7")
	}
}

func (m *Model) rebuildItems() {
	devByApp := make(map[string]supervisor.DevServerStatus, len(m.snap.DevServers))
	for _, d := range m.snap.DevServers {
		devByApp[d.App] = d
	}
	testByApp := make(map[string]supervisor.TestRunStatus, len(m.snap.TestRuns))
	for _, r := range m.snap.TestRuns {
		testByApp[r.App] = r
	}

	items := make([]list.Item, 0, len(m.apps))
	for _, info := range m.apps {
		row := appRow{info: info}
		if d, ok := devByApp[info.Name]; ok {
			dev := d
			row.dev = &dev
		}
		if r, ok := testByApp[info.Name]; ok {
			run := r
			row.test = &run
		}
		items = append(items, row)
	}
	m.list.SetItems(items)
}

func (m *Model) currentApp() *appRow {
	items := m.list.Items()
	if len(items) == 0 {
		return nil
	}
	idx := m.list.Index()
	if idx < 0 || idx >= len(items) {
		return nil
	}
	row, ok := items[idx].(appRow)
	if !ok {
		return nil
	}
	return &row
}

type daemonStatusMsg struct {
	status app.DaemonStatus
}

type appsLoadedMsg struct {
	apps []daemon.AppInfo
}

type snapshotMsg struct {
	snap app.Snapshot
}

type daemonStartedMsg struct{}

type actionDoneMsg struct{ note string }

type tickMsg time.Time

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func tickCmd() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func checkDaemonStatusCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		status, err := ctrl.Status()
		if err != nil {
			return errMsg{err}
		}
		return daemonStatusMsg{status: status}
	}
}

func loadAppsCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		apps, err := ctrl.Apps(ctx, app.AppsParams{Timeout: requestTimeout})
		if err != nil {
			return errMsg{err}
		}
		return appsLoadedMsg{apps: apps}
	}
}

func loadSnapshotCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		snap, err := ctrl.Snapshot(ctx, app.StatusParams{Timeout: requestTimeout})
		if err != nil {
			return errMsg{err}
		}
		return snapshotMsg{snap: snap}
	}
}

func startDaemonCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		if _, err := ctrl.StartDaemon(); err != nil {
			return errMsg{err}
		}
		// Give the daemon a moment to bind the socket.
		time.Sleep(300 * time.Millisecond)
		return daemonStartedMsg{}
	}
}

func upCmd(ctrl Controller, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		status, err := ctrl.Up(ctx, app.UpParams{App: name, Timeout: requestTimeout})
		if err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{note: fmt.Sprintf("%s dev server on port %d.", status.App, status.Port)}
	}
}

func downCmd(ctrl Controller, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := ctrl.Down(ctx, app.DownParams{App: name, Timeout: requestTimeout}); err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{note: fmt.Sprintf("Stop requested for %s.", name)}
	}
}

func runTestCmd(ctrl Controller, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		status, err := ctrl.RunTest(ctx, app.TestParams{App: name, Timeout: requestTimeout})
		if err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{note: fmt.Sprintf("Test run %s started for %s.", status.RunID, status.App)}
	}
}

func toggleInspectorCmd(ctrl Controller, open bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		var err error
		if open {
			_, err = ctrl.CloseInspector(ctx, app.InspectorParams{Timeout: requestTimeout})
		} else {
			_, err = ctrl.OpenInspector(ctx, app.InspectorParams{Timeout: requestTimeout})
		}
		if err != nil {
			return errMsg{err}
		}
		note := "Inspector opened."
		if open {
			note = "Inspector closed."
		}
		return actionDoneMsg{note: note}
	}
}
