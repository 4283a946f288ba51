// Package tui is the terminal front end: a difficulty menu and a game
// screen driving one game.Session.
//
// The round engine is synchronous; everything timed here (the result flash
// and the pause before a new round) is a tea.Tick that comes back as a
// message, tagged with a sequence number so stale ticks are ignored.
package tui

import (
	"time"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guess/internal/game"
)

const (
	flashDuration = 120 * time.Millisecond
	maxInputLen   = 12
)

type screen int

const (
	screenMenu screen = iota
	screenGame
)

// Options configures the model.
type Options struct {
	Source          game.Source
	RevealCorrect   time.Duration
	RevealExhausted time.Duration
}

type flashDoneMsg struct{ seq int }
type nextRoundMsg struct{ seq int }

// Model is the bubbletea model for the whole app.
type Model struct {
	opts   Options
	screen screen
	cursor int

	session  *game.Session
	input    string
	result   string
	lastKind game.OutcomeKind

	flashing bool
	flashSeq int
	roundSeq int
	pending  bool // a finished round is on display

	fullscreen bool
	w, h       int
}

// New returns a model showing the difficulty menu.
func New(opts Options) Model {
	return Model{opts: opts}
}

// Run starts the program and blocks until the user quits.
func Run(opts Options) error {
	_, err := tea.NewProgram(New(opts)).Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height
		return m, nil

	case flashDoneMsg:
		if msg.seq == m.flashSeq {
			m.flashing = false
		}
		return m, nil

	case nextRoundMsg:
		if msg.seq != m.roundSeq || !m.pending || m.session == nil {
			return m, nil
		}
		m.session.NextRound()
		m.pending = false
		m.input, m.result, m.lastKind = "", "", ""
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "f11":
			m.fullscreen = !m.fullscreen
			if m.fullscreen {
				return m, tea.EnterAltScreen
			}
			return m, tea.ExitAltScreen
		case "esc":
			if m.fullscreen {
				m.fullscreen = false
				return m, tea.ExitAltScreen
			}
			return m, nil
		}
		if m.screen == screenGame {
			return m.updateGame(msg)
		}
		return m.updateMenu(msg)
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(game.Difficulties)-1 {
			m.cursor++
		}
	case "1", "2", "3":
		m.cursor = int(msg.Runes[0] - '1')
		return m.startGame(), nil
	case "enter", " ":
		return m.startGame(), nil
	}
	return m, nil
}

// startGame opens a fresh session (score 0) on the highlighted difficulty.
func (m Model) startGame() Model {
	d := game.Difficulties[m.cursor]
	m.session = game.NewSession(d, m.opts.Source)
	m.screen = screenGame
	m.pending = false
	m.roundSeq++
	m.input, m.result, m.lastKind = "", "", ""
	log.Debug().Str("difficulty", d.Name).Msg("session started")
	return m
}

func (m Model) updateGame(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyTab:
		m.screen = screenMenu
		return m, nil
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
		return m, nil
	case tea.KeyRunes, tea.KeySpace:
		for _, r := range msg.Runes {
			if unicode.IsPrint(r) && len([]rune(m.input)) < maxInputLen {
				m.input += string(r)
			}
		}
		if msg.Type == tea.KeySpace && len(msg.Runes) == 0 && len([]rune(m.input)) < maxInputLen {
			m.input += " "
		}
	}
	return m, nil
}

// submit evaluates the typed guess. Rejected input keeps the text so it can
// be fixed; evaluated guesses clear it.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.pending || m.session == nil {
		return m, nil
	}
	out, err := m.session.Guess(m.input)
	if err != nil {
		return m, nil
	}
	m.result, m.lastKind = out.Message(), out.Kind
	if out.Consumed() {
		m.input = ""
	}

	m.flashSeq++
	m.flashing = true
	seq := m.flashSeq
	cmds := []tea.Cmd{tea.Tick(flashDuration, func(time.Time) tea.Msg { return flashDoneMsg{seq: seq} })}

	if out.Terminal() {
		log.Debug().Str("outcome", string(out.Kind)).Int("tries", out.TriesUsed).Int("score", m.session.Score()).Msg("round finished")
		m.pending = true
		m.roundSeq++
		rseq := m.roundSeq
		delay := m.opts.RevealExhausted
		if out.Kind == game.Correct {
			delay = m.opts.RevealCorrect
		}
		cmds = append(cmds, tea.Tick(delay, func(time.Time) tea.Msg { return nextRoundMsg{seq: rseq} }))
	}
	return m, tea.Batch(cmds...)
}
