// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lipsync/internal/viseme"
)

// mouths holds a five line drawing per label.
var mouths = [...][]string{
	viseme.Closed: {
		"",
		"",
		"  ───────────  ",
		"",
		"",
	},
	viseme.Ah: {
		"   ╭───────╮   ",
		"  ╱         ╲  ",
		" │           │ ",
		"  ╲         ╱  ",
		"   ╰───────╯   ",
	},
	viseme.Ee: {
		"",
		" ╭───────────╮ ",
		" │ ▔▔▔▔▔▔▔▔▔ │ ",
		" ╰───────────╯ ",
		"",
	},
	viseme.Oo: {
		"",
		"     ╭───╮     ",
		"    │     │    ",
		"     ╰───╯     ",
		"",
	},
	viseme.FV: {
		"",
		"  ╭─────────╮  ",
		"  │▼▼▼▼▼▼▼▼▼│  ",
		"  ╰─────────╯  ",
		"",
	},
	viseme.S: {
		"",
		"  ╭─────────╮  ",
		"  │▀▀▀▀▀▀▀▀▀│  ",
		"  │▄▄▄▄▄▄▄▄▄│  ",
		"  ╰─────────╯  ",
	},
	viseme.MBP: {
		"",
		"",
		"  ═══════════  ",
		"",
		"",
	},
	viseme.LTD: {
		"",
		"  ╭─────────╮  ",
		"  │   ▄▄▄   │  ",
		"  ╰─────────╯  ",
		"",
	},
	viseme.ChJ: {
		"",
		"    ╭─────╮    ",
		"   │ ▀▀▀▀▀ │   ",
		"    ╰─────╯    ",
		"",
	},
}

var mouthColors = [...]lipgloss.Color{
	viseme.Closed: "#6C6C6C",
	viseme.Ah:     "#E8505B",
	viseme.Ee:     "#F9D56E",
	viseme.Oo:     "#14B1AB",
	viseme.FV:     "#F3ECC2",
	viseme.S:      "#A0C1B8",
	viseme.MBP:    "#B83B5E",
	viseme.LTD:    "#F08A5D",
	viseme.ChJ:    "#6A2C70",
}

var (
	mouthFrame = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#25A065")).
			Padding(1, 3).
			Width(23).
			Align(lipgloss.Center)

	labelStyle = lipgloss.NewStyle().Bold(true)
)

// Mouth returns the drawing for label, coloured.
func Mouth(label viseme.Label) string {
	if !label.Valid() {
		label = viseme.Closed
	}
	art := strings.Join(mouths[label], "\n")
	return lipgloss.NewStyle().Foreground(mouthColors[label]).Render(art)
}

// LabelMsg reports a label change to the mouth view.
type LabelMsg viseme.Label

// StatusMsg replaces the status line.
type StatusMsg string

// DoneMsg ends the program.
type DoneMsg struct{}

const historyLen = 24

// MouthModel shows the current mouth shape, a trail of recent labels and
// how often each label has been shown.
type MouthModel struct {
	title   string
	label   viseme.Label
	status  string
	history []viseme.Label
	counts  [viseme.Count]int
	changes int
	onQuit  func()
}

// NewMouthModel returns a model titled title. onQuit, if set, runs when
// the user quits.
func NewMouthModel(title string, onQuit func()) MouthModel {
	return MouthModel{title: title, onQuit: onQuit}
}

// Label returns the label being displayed.
func (m MouthModel) Label() viseme.Label { return m.label }

// Changes returns the number of label changes received.
func (m MouthModel) Changes() int { return m.changes }

// Init implements tea.Model.
func (m MouthModel) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m MouthModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LabelMsg:
		l := viseme.Label(msg)
		if !l.Valid() {
			return m, nil
		}
		m.label = l
		m.changes++
		m.counts[l]++
		m.history = append(m.history, l)
		if len(m.history) > historyLen {
			m.history = m.history[len(m.history)-historyLen:]
		}

	case StatusMsg:
		m.status = string(msg)

	case DoneMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"))) {
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m MouthModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n\n")
	sb.WriteString(mouthFrame.Render(Mouth(m.label)))
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Foreground(mouthColors[m.label]).Render(m.label.String()))
	sb.WriteString("\n\n")

	trail := make([]string, len(m.history))
	for i, l := range m.history {
		trail[i] = l.String()
	}
	sb.WriteString(infoStyle.Render("Recent: " + strings.Join(trail, " ")))
	sb.WriteString("\n")

	counts := make([]string, 0, len(m.counts))
	for _, l := range viseme.All() {
		counts = append(counts, fmt.Sprintf("%s:%d", l, m.counts[l]))
	}
	sb.WriteString(infoStyle.Render("Counts: " + strings.Join(counts, " ")))
	sb.WriteString("\n\n")

	if m.status != "" {
		sb.WriteString(m.status)
		sb.WriteString("\n")
	}
	sb.WriteString(infoStyle.Render("q: Quit"))
	return sb.String()
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramRenderer forwards label changes to a running program without
// blocking the animation thread. Labels are delivered in order; if the
// program falls behind by more than the buffer, the oldest queued message is
// dropped so the view always ends on the latest mouth shape.
type ProgramRenderer struct {
	mu     sync.Mutex // guards queue against Close
	queue  chan tea.Msg
	closed bool
	done   chan struct{}
}

// NewProgramRenderer starts the forwarding goroutine.
func NewProgramRenderer(p Sender) *ProgramRenderer {
	return newProgramRenderer(p, 64)
}

func newProgramRenderer(p Sender, size int) *ProgramRenderer {
	r := &ProgramRenderer{
		queue: make(chan tea.Msg, size),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		for msg := range r.queue {
			p.Send(msg)
		}
	}()
	return r
}

// RenderViseme queues label for the program.
func (r *ProgramRenderer) RenderViseme(label viseme.Label) {
	r.send(LabelMsg(label))
}

// Status queues a status line update.
func (r *ProgramRenderer) Status(format string, args ...any) {
	r.send(StatusMsg(fmt.Sprintf(format, args...)))
}

// send never blocks. Sending after Close is a no-op.
func (r *ProgramRenderer) send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	for {
		select {
		case r.queue <- msg:
			return
		default:
		}
		// Full: discard the oldest. The pump may drain it first, in which
		// case the next attempt succeeds.
		select {
		case <-r.queue:
		default:
		}
	}
}

// Close stops forwarding and waits for queued messages to be delivered.
func (r *ProgramRenderer) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}
