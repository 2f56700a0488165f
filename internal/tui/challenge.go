package tui

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/eliteGoblin/focusd/blissctl/internal/usecase"
)

type challengeDoneMsg struct {
	result usecase.ChallengeResult
	err    error
}

// challengeView wraps a Challenge gate. All state lives in the gate; the
// view only forwards keys and renders.
type challengeView struct {
	gate *usecase.Challenge
	ctx  context.Context
}

func newChallengeView(ctx context.Context, gate *usecase.Challenge) *challengeView {
	return &challengeView{gate: gate, ctx: ctx}
}

// update handles a key. closed reports that the view should be dismissed.
func (v *challengeView) update(msg tea.KeyMsg) (cmd tea.Cmd, closed bool) {
	switch msg.Type {
	case tea.KeyEsc:
		v.gate.Cancel()
		return nil, true
	case tea.KeyEnter:
		if v.gate.Submitting() {
			return nil, false
		}
		return v.submitCmd(), false
	case tea.KeyBackspace:
		v.gate.Backspace()
	case tea.KeySpace:
		v.gate.TypeRunes([]rune{' '})
	case tea.KeyRunes:
		v.gate.TypeRunes(msg.Runes)
	}
	return nil, false
}

func (v *challengeView) submitCmd() tea.Cmd {
	gate := v.gate
	ctx := v.ctx
	return func() tea.Msg {
		result, err := gate.Submit(ctx)
		return challengeDoneMsg{result: result, err: err}
	}
}

func (v *challengeView) view(width int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("End session early"))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Type the quote exactly. 95% accuracy ends the session."))
	b.WriteString("\n\n")

	for _, c := range v.gate.Render() {
		ch := string(c.Char)
		switch c.State {
		case usecase.CharCorrect:
			b.WriteString(correctStyle.Render(ch))
		case usecase.CharIncorrect:
			b.WriteString(incorrectStyle.Render(ch))
		default:
			b.WriteString(untypedStyle.Render(ch))
		}
	}
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Accuracy: %d%%", int(math.Round(v.gate.Accuracy()))))
	if v.gate.Submitting() {
		b.WriteString(dimStyle.Render("  submitting..."))
	}
	b.WriteString("\n")

	if v.gate.Failed() {
		b.WriteString(errorStyle.Render(usecase.MsgChallengeFailed))
		b.WriteString("\n")
	}
	if ce := v.gate.EngineError(); ce != nil {
		b.WriteString(errorStyle.Render(usecase.MsgOverrideFailed))
		b.WriteString("\n")
		if ce.Visible() {
			b.WriteString(errorStyle.Render(ce.Message))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Enter: submit  Backspace: delete  Esc: cancel"))

	box := challengeBoxStyle
	if width > 8 {
		box = box.Width(width - 4)
	}
	return box.Render(b.String())
}
