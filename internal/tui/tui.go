// Package tui provides an interactive search screen over the indexed
// documents, for operators checking what the agent will be able to cite.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"gober/internal/knowledge"
)

const searchTimeout = 2 * time.Minute

// resultMsg carries a finished search back into the update loop.
type resultMsg struct {
	markdown string
	err      error
}

// Model is the Bubble Tea model for the search screen.
type Model struct {
	svc *knowledge.Service

	input     textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	searching bool
	ready     bool
	width     int
	height    int
	status    string
}

// New creates the search screen over an initialized knowledge service.
func New(svc *knowledge.Service) Model {
	ti := textinput.New()
	ti.Placeholder = "¿Qué dice el plan de desarrollo sobre...?"
	ti.Focus()
	ti.CharLimit = 300

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		svc:     svc,
		input:   ti,
		spinner: sp,
		status:  "Enter busca, Ctrl+C sale",
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func runSearch(svc *knowledge.Service, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()

		answer, err := svc.AnswerWithSources(ctx, query)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{markdown: answer.FormattedResponse}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - 6
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			query := m.input.Value()
			if query == "" || m.searching {
				return m, nil
			}
			m.searching = true
			m.status = "Buscando..."
			return m, tea.Batch(m.spinner.Tick, runSearch(m.svc, query))
		}

	case resultMsg:
		m.searching = false
		if msg.err != nil {
			m.status = errorStyle.Render("Error: " + msg.err.Error())
			return m, nil
		}
		m.status = "Enter busca, Ctrl+C sale"
		m.viewport.SetContent(m.render(msg.markdown))
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if m.searching {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// render converts the digest markdown for terminal display, falling back to
// the raw text when rendering fails.
func (m Model) render(markdown string) string {
	width := m.width - 2
	if width < 20 {
		width = 78
	}
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return markdown
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

func (m Model) View() string {
	header := titleStyle.Render("gober") + " " + subtitleStyle.Render("búsqueda en documentos oficiales")

	body := dimStyle.Render("Escribe una consulta y presiona Enter.")
	if m.ready && m.viewport.TotalLineCount() > 0 {
		body = m.viewport.View()
	}

	status := m.status
	if m.searching {
		status = m.spinner.View() + " " + status
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s\n%s\n",
		header,
		m.input.View(),
		body,
		statusBarStyle.Render(status),
	)
}

// Run starts the TUI program.
func Run(svc *knowledge.Service) error {
	p := tea.NewProgram(New(svc), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
