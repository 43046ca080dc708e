// Package tui renders a live view of one streaming transcription:
// chunks appear in a viewport as the server sends them, Esc aborts the
// operation.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tn-portal/tnscribe/internal/api"
)

// message types

type chunkMsg struct {
	chunk api.Chunk
}

type doneMsg struct {
	err       error // nil on success
	completed bool  // explicit complete marker seen
}

// model

type model struct {
	stream    *api.TranscribeStream
	cancel    context.CancelFunc
	fileName  string
	spinner   spinner.Model
	viewport  viewport.Model
	chunks    []api.Chunk
	startedAt time.Time
	done      bool
	err       error
	aborting  bool
	width     int
	height    int
	ready     bool
	quitting  bool
}

// Run drives the stream until a terminal outcome and blocks until the
// view exits. It returns the chunks delivered before the end, whether an
// explicit complete marker was seen, and the terminal failure (nil on
// success).
func Run(stream *api.TranscribeStream, cancel context.CancelFunc, fileName string) ([]api.Chunk, bool, error) {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	m := model{
		stream:    stream,
		cancel:    cancel,
		fileName:  fileName,
		spinner:   sp,
		viewport:  viewport.New(0, 0),
		startedAt: time.Now(),
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, false, fmt.Errorf("tui: %w", err)
	}

	fm := finalModel.(model)
	return fm.chunks, fm.stream.Completed(), fm.err
}

// nextEventCmd pulls the next stream event off the bubbletea goroutine.
func nextEventCmd(s *api.TranscribeStream) tea.Cmd {
	return func() tea.Msg {
		chunk, err := s.Next()
		if err == io.EOF {
			return doneMsg{completed: s.Completed()}
		}
		if err != nil {
			return doneMsg{err: err}
		}
		return chunkMsg{chunk: chunk}
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, nextEventCmd(m.stream))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.viewport.Width = m.panelWidth()
		m.viewport.Height = m.panelHeight()
		m.viewport.SetContent(m.transcript())
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			if m.done {
				m.quitting = true
				return m, tea.Quit
			}
			// Abort the in-flight operation; the pending nextEventCmd
			// comes back as doneMsg with a cancelled failure.
			m.aborting = true
			m.cancel()
			return m, nil

		case key.Matches(msg, keys.Up):
			m.viewport.LineUp(1)
			return m, nil

		case key.Matches(msg, keys.Down):
			m.viewport.LineDown(1)
			return m, nil
		}

		// Any other key closes the finished view.
		if m.done {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case chunkMsg:
		m.chunks = append(m.chunks, msg.chunk)
		m.viewport.SetContent(m.transcript())
		m.viewport.GotoBottom()
		return m, nextEventCmd(m.stream)

	case doneMsg:
		m.done = true
		m.err = msg.err
		m.stream.Close()
		if m.aborting {
			// The user already asked to leave.
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	title := styleTitle.Render("Transcribing " + m.fileName)

	m.viewport.Width = m.panelWidth()
	m.viewport.Height = m.panelHeight()
	panel := stylePanelBorder.
		Width(m.panelWidth()).
		Height(m.panelHeight()).
		Render(m.viewport.View())

	return lipgloss.JoinVertical(lipgloss.Left, title, panel, m.statusBar())
}

func (m model) transcript() string {
	if len(m.chunks) == 0 {
		return styleStatusBar.Render("waiting for the first segment...")
	}
	lines := make([]string, 0, len(m.chunks))
	for _, c := range m.chunks {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			text = "(no speech detected)"
		}
		line := styleChunkIndex.Render(fmt.Sprintf("[%d] ", c.Index)) + styleChunkText.Render(text)
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m model) statusBar() string {
	var status string
	switch {
	case m.err != nil:
		status = styleError.Render("failed: " + m.err.Error())
	case m.done:
		status = styleDone.Render(fmt.Sprintf("done, %d segments in %s",
			len(m.chunks), time.Since(m.startedAt).Round(time.Second)))
	case m.aborting:
		status = "aborting..."
	default:
		status = fmt.Sprintf("%s segment %d", m.spinner.View(), len(m.chunks))
	}

	hint := "esc abort"
	if m.done {
		hint = "any key to close"
	}
	return styleStatusBar.Render(status + " | " + hint)
}

func (m model) panelWidth() int {
	if m.width <= 0 {
		return 78
	}
	w := m.width - 2
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// title (1) + status bar (1) + borders (2)
	h := m.height - 4
	if h < 5 {
		h = 5
	}
	return h
}
