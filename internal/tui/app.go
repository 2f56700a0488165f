// Package tui is the interactive dashboard. It renders controller state and
// turns keys into controller calls; it holds no engine state of its own.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
	"github.com/eliteGoblin/focusd/blissctl/internal/usecase"
)

type mode int

const (
	modeBrowse mode = iota
	modeWebsiteInput
	modeAppInput
	modeBrowserInput
	modeMinutesInput
	modeChallenge
)

type section int

const (
	sectionWebsites section = iota
	sectionApps
	sectionBrowsers
	sectionCount
)

var sectionTitles = [sectionCount]string{"Websites", "Apps", "Browsers"}

var quoteCycle = []domain.QuoteLength{
	domain.QuoteShort,
	domain.QuoteMedium,
	domain.QuoteLong,
	domain.QuoteHuge,
}

type (
	stateMsg      usecase.State
	clockTickMsg  time.Time
	actionDoneMsg struct {
		label string
		err   error
	}
)

// ClockSource renders the status-bar countdown.
type ClockSource interface {
	Text() string
}

// Deps are the collaborators the dashboard drives.
type Deps struct {
	Controller *usecase.Controller
	Quotes     domain.QuoteSource
	Audit      domain.AuditLog
	Clock      ClockSource
}

type Model struct {
	ctx   context.Context
	deps  Deps
	state usecase.State

	states      <-chan usecase.State
	unsubscribe func()

	mode    mode
	section section
	cursor  [sectionCount]int

	websiteInput textinput.Model
	appInput     textinput.Model
	browserInput textinput.Model
	minutesInput textinput.Model

	challenge *challengeView
	clockText string
	notice    string

	width    int
	height   int
	quitting bool
}

func NewModel(ctx context.Context, deps Deps) Model {
	states, unsubscribe := deps.Controller.Subscribe()

	wi := textinput.New()
	wi.Placeholder = "example.com"
	wi.CharLimit = 253

	ai := textinput.New()
	ai.Placeholder = "/Applications/Slack.app"
	ai.CharLimit = 1024

	bi := textinput.New()
	bi.Placeholder = "/Applications/Firefox.app"
	bi.CharLimit = 1024

	mi := textinput.New()
	mi.Placeholder = usecase.DefaultMinutes
	mi.CharLimit = 5

	m := Model{
		ctx:          ctx,
		deps:         deps,
		state:        deps.Controller.Snapshot(),
		states:       states,
		unsubscribe:  unsubscribe,
		websiteInput: wi,
		appInput:     ai,
		browserInput: bi,
		minutesInput: mi,
		width:        100,
		height:       30,
	}
	m.minutesInput.SetValue(m.state.MinutesInput)
	if deps.Clock != nil {
		m.clockText = deps.Clock.Text()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitState(m.states),
		m.actionCmd("refresh", m.deps.Controller.RefreshAll),
		clockTick(),
	)
}

// waitState delivers the next published state.
func waitState(ch <-chan usecase.State) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg(s)
	}
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}

// actionCmd runs a controller call off the update loop.
func (m Model) actionCmd(label string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{label: label, err: fn(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case stateMsg:
		m.state = usecase.State(msg)
		m.clampCursors()
		return m, waitState(m.states)

	case clockTickMsg:
		if m.deps.Clock != nil {
			m.clockText = m.deps.Clock.Text()
		}
		return m, clockTick()

	case actionDoneMsg:
		if msg.err == nil && msg.label != "" {
			m.notice = msg.label + " done"
		} else {
			m.notice = ""
		}
		return m, nil

	case challengeDoneMsg:
		if msg.result == usecase.ChallengeSessionEnded {
			m.challenge = nil
			m.mode = modeBrowse
			m.notice = "session ended"
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		switch m.mode {
		case modeBrowse:
			return m.updateBrowse(msg)
		case modeChallenge:
			cmd, closed := m.challenge.update(msg)
			if closed {
				m.challenge = nil
				m.mode = modeBrowse
			}
			return m, cmd
		default:
			return m.updateInput(msg)
		}
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	return m, tea.Quit
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctrl := m.deps.Controller

	switch msg.String() {
	case "q":
		return m.quit()

	case "tab":
		m.section = (m.section + 1) % sectionCount

	case "shift+tab":
		m.section = (m.section + sectionCount - 1) % sectionCount

	case "up", "k":
		if m.cursor[m.section] > 0 {
			m.cursor[m.section]--
		}

	case "down", "j":
		if m.cursor[m.section] < m.sectionLen(m.section)-1 {
			m.cursor[m.section]++
		}

	case "r":
		return m, m.actionCmd("refresh", ctrl.RefreshAll)

	case "esc":
		ctrl.ClearError()

	case "a":
		return m.focusInput()

	case "d", "delete", "backspace":
		return m, m.removeSelected()

	case "s":
		m.mode = modeMinutesInput
		m.minutesInput.SetValue(m.state.MinutesInput)
		m.minutesInput.CursorEnd()
		return m, m.minutesInput.Focus()

	case "l":
		next := nextQuoteLength(m.state.QuoteLength)
		return m, m.actionCmd("quote length", func(ctx context.Context) error {
			return ctrl.SetQuoteLength(ctx, next)
		})

	case "p":
		if !m.state.Session.IsRunning() {
			m.notice = "no active session"
			return m, nil
		}
		prompt := m.deps.Quotes.RandomQuote(m.state.QuoteLength)
		gate := ctrl.NewChallenge(prompt, m.deps.Audit)
		m.challenge = newChallengeView(m.ctx, gate)
		m.mode = modeChallenge
	}
	return m, nil
}

func (m Model) focusInput() (tea.Model, tea.Cmd) {
	switch m.section {
	case sectionWebsites:
		m.mode = modeWebsiteInput
		m.websiteInput.SetValue(m.state.WebsiteInput)
		return m, m.websiteInput.Focus()
	case sectionApps:
		m.mode = modeAppInput
		m.appInput.SetValue("")
		return m, m.appInput.Focus()
	default:
		m.mode = modeBrowserInput
		m.browserInput.SetValue("")
		return m, m.browserInput.Focus()
	}
}

func (m Model) removeSelected() tea.Cmd {
	ctrl := m.deps.Controller
	i := m.cursor[m.section]
	lists := m.state.Lists

	switch m.section {
	case sectionWebsites:
		if i < len(lists.Websites) {
			website := lists.Websites[i]
			return m.actionCmd("remove website", func(ctx context.Context) error {
				return ctrl.RemoveWebsite(ctx, website)
			})
		}
	case sectionApps:
		if i < len(lists.Apps) {
			app := lists.Apps[i]
			return m.actionCmd("remove app", func(ctx context.Context) error {
				return ctrl.RemoveApp(ctx, app)
			})
		}
	case sectionBrowsers:
		if i < len(lists.Browsers) {
			browser := lists.Browsers[i]
			return m.actionCmd("remove browser", func(ctx context.Context) error {
				return ctrl.RemoveBrowser(ctx, browser)
			})
		}
	}
	return nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	input := m.activeInput()
	ctrl := m.deps.Controller

	switch msg.String() {
	case "esc":
		input.Blur()
		m.mode = modeBrowse
		return m, nil

	case "enter":
		value := input.Value()
		input.Blur()
		input.SetValue("")
		current := m.mode
		m.mode = modeBrowse

		switch current {
		case modeWebsiteInput:
			ctrl.SetWebsiteInput(value)
			return m, m.actionCmd("add website", func(ctx context.Context) error {
				return ctrl.AddWebsite(ctx, value)
			})
		case modeAppInput:
			return m, m.actionCmd("add app", func(ctx context.Context) error {
				return ctrl.AddApp(ctx, strings.TrimSpace(value))
			})
		case modeBrowserInput:
			return m, m.actionCmd("add browser", func(ctx context.Context) error {
				return ctrl.AddBrowserFromAppPath(ctx, value)
			})
		case modeMinutesInput:
			minutes := strings.TrimSpace(value)
			if minutes == "" {
				minutes = usecase.DefaultMinutes
			}
			ctrl.SetMinutesInput(minutes)
			return m, m.actionCmd("start", func(ctx context.Context) error {
				return ctrl.StartSession(ctx, minutes)
			})
		}
		return m, nil
	}

	var cmd tea.Cmd
	*input, cmd = input.Update(msg)
	if m.mode == modeWebsiteInput {
		ctrl.SetWebsiteInput(input.Value())
	}
	return m, cmd
}

func (m *Model) activeInput() *textinput.Model {
	switch m.mode {
	case modeWebsiteInput:
		return &m.websiteInput
	case modeAppInput:
		return &m.appInput
	case modeBrowserInput:
		return &m.browserInput
	default:
		return &m.minutesInput
	}
}

func (m Model) sectionLen(s section) int {
	switch s {
	case sectionWebsites:
		return len(m.state.Lists.Websites)
	case sectionApps:
		return len(m.state.Lists.Apps)
	default:
		return len(m.state.Lists.Browsers)
	}
}

func (m *Model) clampCursors() {
	for s := section(0); s < sectionCount; s++ {
		n := m.sectionLen(s)
		if m.cursor[s] >= n {
			m.cursor[s] = max(0, n-1)
		}
	}
}

func nextQuoteLength(current domain.QuoteLength) domain.QuoteLength {
	for i, q := range quoteCycle {
		if q == current {
			return quoteCycle[(i+1)%len(quoteCycle)]
		}
	}
	return domain.DefaultQuoteLength
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.mode == modeChallenge && m.challenge != nil {
		return m.challenge.view(m.width)
	}

	var b strings.Builder
	s := m.state

	b.WriteString(titleStyle.Render("Bliss"))
	if m.clockText != "" {
		b.WriteString(clockStyle.Render(m.clockText))
	}
	if s.InFlight > 0 {
		b.WriteString(dimStyle.Render("  working..."))
	}
	b.WriteString("\n\n")

	b.WriteString(renderStatus(s.Session))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(s.Session.RemainingText + "   " + s.Session.PFText))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("quote length: %s", s.QuoteLength)))
	if s.Locked() {
		b.WriteString(dimStyle.Render("   config locked"))
	}
	b.WriteString("\n\n")

	for sec := section(0); sec < sectionCount; sec++ {
		b.WriteString(m.renderSection(sec))
		b.WriteString("\n")
	}

	if s.LastError != nil {
		b.WriteString(errorStyle.Render(s.LastError.Message))
		b.WriteString("\n")
		if s.LastOutput != "" {
			b.WriteString(dimStyle.Render(s.LastOutput))
			b.WriteString("\n")
		}
	} else if m.notice != "" {
		b.WriteString(dimStyle.Render(m.notice))
		b.WriteString("\n")
	}

	switch m.mode {
	case modeWebsiteInput:
		b.WriteString(inputLabelStyle.Render("Website: ") + m.websiteInput.View())
	case modeAppInput:
		b.WriteString(inputLabelStyle.Render("App path: ") + m.appInput.View())
	case modeBrowserInput:
		b.WriteString(inputLabelStyle.Render("Browser app path: ") + m.browserInput.View())
	case modeMinutesInput:
		b.WriteString(inputLabelStyle.Render("Minutes: ") + m.minutesInput.View())
	default:
		b.WriteString(helpStyle.Render(
			"  Tab: section  a: add  d: remove  s: start  p: panic  l: quote length  r: refresh  q: quit"))
	}
	return b.String()
}

func renderStatus(s domain.SessionState) string {
	switch s.Status {
	case domain.StatusRunning:
		return runningStyle.Render(s.StatusText)
	case domain.StatusError:
		return errorStyle.Render(s.StatusText)
	default:
		return idleStyle.Render(s.StatusText)
	}
}

func (m Model) renderSection(sec section) string {
	var b strings.Builder
	title := sectionTitles[sec]
	if sec == m.section {
		b.WriteString(activeSectionStyle.Render(title))
	} else {
		b.WriteString(sectionStyle.Render(title))
	}
	b.WriteString("\n")

	var rows []string
	switch sec {
	case sectionWebsites:
		rows = m.state.Lists.Websites
	case sectionApps:
		for _, a := range m.state.Lists.Apps {
			row := a.Name
			if d := a.Detail(); d != "" {
				row += "  " + dimStyle.Render(d)
			}
			rows = append(rows, row)
		}
	case sectionBrowsers:
		rows = m.state.Lists.Browsers
	}

	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("  (none)"))
		b.WriteString("\n")
		return b.String()
	}
	for i, row := range rows {
		line := "  " + row
		if sec == m.section && i == m.cursor[sec] {
			line = selectedStyle.Render("> " + row)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
