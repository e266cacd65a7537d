package ui

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/fisinject/internal/command"
	"github.com/muurk/fisinject/internal/engine"
)

// Console defaults.
const (
	DefaultScrollback    = 500
	DefaultSubmitTimeout = 30 * time.Second

	statusRefresh = 250 * time.Millisecond
	eventBuffer   = 1024
)

// Submitter queues display updates. *engine.Runner implements it.
type Submitter interface {
	Submit(ctx context.Context, req engine.Request) (engine.Result, error)
}

// StatusSource reports engine state. *engine.Engine implements it.
type StatusSource interface {
	Status() engine.Status
}

// ConsoleConfig configures the interactive console.
type ConsoleConfig struct {
	Runner        Submitter
	Status        StatusSource // optional
	Header        *Header      // optional banner
	ShowTraffic   bool         // traffic view on at start
	Scrollback    int
	SubmitTimeout time.Duration
}

// Console is the interactive session. It implements engine.Observer so it
// can be registered with the engine before the program starts; events are
// queued and dropped when the queue is full rather than stalling the bus.
type Console struct {
	cfg     ConsoleConfig
	events  chan tea.Msg
	dropped atomic.Uint64
}

// NewConsole creates a console for cfg.
func NewConsole(cfg ConsoleConfig) *Console {
	if cfg.Scrollback <= 0 {
		cfg.Scrollback = DefaultScrollback
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = DefaultSubmitTimeout
	}
	return &Console{
		cfg:    cfg,
		events: make(chan tea.Msg, eventBuffer),
	}
}

// Attach sets the runner and status source once the engine exists. It must
// be called before Run.
func (c *Console) Attach(runner Submitter, status StatusSource) {
	c.cfg.Runner = runner
	c.cfg.Status = status
}

// OnTraffic implements engine.Observer.
func (c *Console) OnTraffic(ev engine.TrafficEvent) {
	c.post(trafficMsg(ev))
}

// NoTraffic reports that nothing has been received since start. It is meant
// for engine.RunnerOptions.OnNoTraffic.
func (c *Console) NoTraffic() {
	c.post(noTrafficMsg{})
}

// Dropped returns the number of events discarded because the view lagged.
func (c *Console) Dropped() uint64 {
	return c.dropped.Load()
}

func (c *Console) post(msg tea.Msg) {
	select {
	case c.events <- msg:
	default:
		c.dropped.Add(1)
	}
}

// Run shows the console until the user quits or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	p := tea.NewProgram(newModel(c.cfg, c.events), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

type (
	trafficMsg    engine.TrafficEvent
	noTrafficMsg  struct{}
	eventBatchMsg []tea.Msg
	statusTickMsg time.Time
	submitDoneMsg struct {
		input string
		res   engine.Result
		err   error
	}
)

type keyMap struct {
	Traffic key.Binding
	Command key.Binding
	Submit  key.Binding
	Cancel  key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Traffic, k.Command, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Traffic, k.Command, k.Quit},
		{k.Submit, k.Cancel},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Traffic: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "toggle traffic"),
		),
		Command: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "command"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

type model struct {
	cfg    ConsoleConfig
	events <-chan tea.Msg

	keys    keyMap
	help    help.Model
	input   textinput.Model
	spinner spinner.Model

	typing      bool
	showTraffic bool
	busy        bool
	lines       []string
	status      engine.Status
	width       int
	height      int
}

func newModel(cfg ConsoleConfig, events <-chan tea.Msg) model {
	in := textinput.New()
	in.Placeholder = "01 Top 05 Header 09 ."
	in.Prompt = "> "
	in.PromptStyle = PromptStyle
	in.CharLimit = 256

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = PromptStyle

	m := model{
		cfg:         cfg,
		events:      events,
		keys:        defaultKeyMap(),
		help:        help.New(),
		input:       in,
		spinner:     s,
		showTraffic: cfg.ShowTraffic,
	}
	m.appendLine(MutedStyle.Render("Waiting for active comms (heartbeats)..."))
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForEvents(m.events), statusTick(), m.spinner.Tick)
}

// waitForEvents blocks for one event and then takes whatever else is queued.
func waitForEvents(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		first, ok := <-events
		if !ok {
			return nil
		}
		batch := eventBatchMsg{first}
		for len(batch) < eventBuffer {
			select {
			case msg := <-events:
				batch = append(batch, msg)
			default:
				return batch
			}
		}
		return batch
	}
}

func statusTick() tea.Cmd {
	return tea.Tick(statusRefresh, func(t time.Time) tea.Msg { return statusTickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = msg.Width - 4
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventBatchMsg:
		for _, ev := range msg {
			m.handleEvent(ev)
		}
		return m, waitForEvents(m.events)

	case submitDoneMsg:
		m.busy = false
		m.showResult(msg)
		return m, nil

	case statusTickMsg:
		if m.cfg.Status != nil {
			m.status = m.cfg.Status.Status()
		}
		return m, statusTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.typing {
		switch {
		case key.Matches(msg, m.keys.Submit):
			text := strings.TrimSpace(m.input.Value())
			m.leaveCommandMode()
			if text == "" {
				m.appendLine("Exited Command Mode.")
				return m, nil
			}
			m.appendLine("Processing: " + text)
			m.busy = true
			return m, m.submit(text)

		case key.Matches(msg, m.keys.Cancel):
			m.leaveCommandMode()
			m.appendLine("Cancelled.")
			return m, nil
		}

		// Everything else, backspace included, edits the line.
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Traffic):
		m.showTraffic = !m.showTraffic
		state := "OFF"
		if m.showTraffic {
			state = "ON"
		}
		m.appendLine(fmt.Sprintf("--- DEBUG TRAFFIC: %s ---", state))
		return m, nil

	case key.Matches(msg, m.keys.Command):
		if m.busy {
			return m, nil
		}
		m.typing = true
		m.input.Reset()
		m.appendLine("COMMAND MODE (Type string, Enter to send, Esc to cancel):")
		return m, m.input.Focus()
	}
	return m, nil
}

func (m *model) leaveCommandMode() {
	m.typing = false
	m.input.Blur()
	m.input.Reset()
}

// trafficVisible mirrors the classic console: traffic is hidden while
// typing and always shown while an update is in flight.
func (m *model) trafficVisible() bool {
	return !m.typing && (m.showTraffic || m.busy)
}

func (m *model) handleEvent(msg tea.Msg) {
	switch ev := msg.(type) {
	case trafficMsg:
		if m.trafficVisible() {
			m.appendLine(StyleTraffic(engine.TrafficEvent(ev)))
		}
	case noTrafficMsg:
		m.appendLine(WarningTitleStyle.Render("!!! NO TRAFFIC RECEIVED !!!"))
		m.appendLine(MutedStyle.Render("Check wiring and bitrate, and that no other program holds the adapter."))
	}
}

func (m model) submit(text string) tea.Cmd {
	runner := m.cfg.Runner
	timeout := m.cfg.SubmitTimeout
	return func() tea.Msg {
		req, err := command.Parse(text)
		if err != nil {
			return submitDoneMsg{input: text, err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := runner.Submit(ctx, req)
		return submitDoneMsg{input: text, res: res, err: err}
	}
}

func (m *model) showResult(msg submitDoneMsg) {
	if msg.err != nil {
		m.appendLine(ErrorMessageStyle.Render("Error: " + msg.err.Error()))
		return
	}

	style := SuccessTitleStyle
	switch {
	case msg.res.Skipped:
		style = WarningTitleStyle
	case !msg.res.OK():
		style = ErrorTitleStyle
	}
	m.appendLine(style.Render(Summary(msg.res)))
	for _, s := range msg.res.Steps {
		m.appendLine(MutedStyle.Render("  " + StepLine(s)))
	}
}

func (m *model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if extra := len(m.lines) - m.cfg.Scrollback; extra > 0 && m.cfg.Scrollback > 0 {
		m.lines = append([]string(nil), m.lines[extra:]...)
	}
}

func (m model) statusLine() string {
	var b strings.Builder
	if m.status.Active {
		b.WriteString(ActiveStyle.Render(ActiveMarker + " ACTIVE"))
	} else {
		b.WriteString(InactiveStyle.Render("○ WAITING"))
	}

	traffic := "off"
	if m.showTraffic {
		traffic = "on"
	}
	b.WriteString(MutedStyle.Render(fmt.Sprintf("  seq %d  top %s  middle %s  traffic %s",
		m.status.Seq,
		zoneState(m.status, engine.ZoneTop),
		zoneState(m.status, engine.ZoneMiddle),
		traffic,
	)))
	return b.String()
}

func zoneState(st engine.Status, z engine.Zone) string {
	if s, ok := st.Zones[z.String()]; ok {
		return s.String()
	}
	return engine.Free.String()
}

func (m model) bottomLine() string {
	switch {
	case m.typing:
		return m.input.View()
	case m.busy:
		return m.spinner.View() + " sending..."
	default:
		return m.help.View(m.keys)
	}
}

func (m model) View() string {
	var top []string
	if m.cfg.Header != nil {
		h := *m.cfg.Header
		if m.width > 0 {
			h.Width = clampWidth(m.width)
		}
		top = append(top, h.Render())
	}
	top = append(top, m.statusLine())
	head := lipgloss.JoinVertical(lipgloss.Left, top...)
	bottom := m.bottomLine()

	lines := m.lines
	if m.height > 0 {
		room := m.height - lipgloss.Height(head) - lipgloss.Height(bottom)
		if room < 1 {
			room = 1
		}
		if len(lines) > room {
			lines = lines[len(lines)-room:]
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, head, strings.Join(lines, "\n"), bottom)
}
