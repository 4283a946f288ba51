package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robalobadob/guess/internal/game"
)

const barWidth = 24

var (
	colBG     = lipgloss.Color("#0f172a")
	colFG     = lipgloss.Color("#e2e8f0")
	colMuted  = lipgloss.Color("#94a3b8")
	colAccent = lipgloss.Color("#38bdf8")
	colGood   = lipgloss.Color("#86efac")
	colWarn   = lipgloss.Color("#eab308")
	colBad    = lipgloss.Color("#fca5a5")
	colTrack  = lipgloss.Color("#334155")

	buttonTint = map[string]lipgloss.Color{
		"easy":   lipgloss.Color("#38bdf8"),
		"medium": lipgloss.Color("#34d399"),
		"hard":   lipgloss.Color("#f59e0b"),
	}

	panel    = lipgloss.NewStyle().Padding(1, 3).Border(lipgloss.RoundedBorder()).BorderForeground(colAccent)
	title    = lipgloss.NewStyle().Bold(true).Foreground(colAccent)
	muted    = lipgloss.NewStyle().Foreground(colMuted)
	text     = lipgloss.NewStyle().Foreground(colFG)
	inputBox = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder()).BorderForeground(colMuted).Width(maxInputLen + 2)
)

func (m Model) View() string {
	var body string
	if m.screen == screenGame && m.session != nil {
		body = m.gameView()
	} else {
		body = m.menuView()
	}
	out := panel.Render(body)
	if m.w > 0 && m.h > 0 {
		out = lipgloss.Place(m.w, m.h, lipgloss.Center, lipgloss.Center, out)
	}
	return out
}

func (m Model) menuView() string {
	var b strings.Builder
	b.WriteString(title.Render("Select Difficulty"))
	b.WriteString("\n\n")
	for i, d := range game.Difficulties {
		label := fmt.Sprintf("%d  %s", i+1, d.Label)
		st := lipgloss.NewStyle().Width(26).Padding(0, 1)
		if i == m.cursor {
			st = st.Bold(true).Foreground(colBG).Background(buttonTint[d.Name])
			label = "› " + label
		} else {
			st = st.Foreground(buttonTint[d.Name])
			label = "  " + label
		}
		b.WriteString(st.Render(label))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(muted.Render("↑/↓ select • enter start • q quit"))
	b.WriteString("\n")
	b.WriteString(muted.Render("F11: Fullscreen • Esc: Exit Fullscreen"))
	return b.String()
}

func (m Model) gameView() string {
	rd := m.session.Round()
	r := rd.Range()

	var b strings.Builder
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(20).Render(title.Render(fmt.Sprintf("Score: %d", m.session.Score()))),
		muted.Render(fmt.Sprintf("Range: %d–%d", r.Min, r.Max)),
	)
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(text.Render(fmt.Sprintf("Guess a number between %d and %d:", r.Min, r.Max)))
	b.WriteString("\n")

	cursor := "_"
	if m.pending {
		cursor = ""
	}
	b.WriteString(inputBox.Render(m.input + cursor))
	b.WriteString("\n")

	b.WriteString(m.resultStyle().Render(m.result))
	b.WriteString("\n\n")

	b.WriteString(text.Render(fmt.Sprintf("Tries: %d/%d ", rd.TriesUsed(), rd.TriesMax())))
	b.WriteString(triesBar(rd.TriesUsed(), rd.TriesMax()))
	b.WriteString("\n\n")
	b.WriteString(muted.Render("enter guess • tab change difficulty • ctrl+c quit"))
	return b.String()
}

// resultStyle colours the last result line by outcome; it is drawn bold for
// a moment right after each submission.
func (m Model) resultStyle() lipgloss.Style {
	st := lipgloss.NewStyle()
	switch m.lastKind {
	case game.Correct:
		st = st.Foreground(colGood)
	case game.TooLow, game.TooHigh:
		st = st.Foreground(colWarn)
	default:
		st = st.Foreground(colBad)
	}
	if m.flashing {
		st = st.Bold(true)
	}
	return st
}

// triesBar fills in proportion to tries used. It turns red on the last try.
func triesBar(used, limit int) string {
	if limit <= 0 {
		return ""
	}
	filled := used * barWidth / limit
	fill := colAccent
	if used >= limit-1 {
		fill = colBad
	}
	return lipgloss.NewStyle().Foreground(fill).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(colTrack).Render(strings.Repeat("░", barWidth-filled))
}
