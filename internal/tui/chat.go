package tui

import (
	"strings"

	"kanban-cli/internal/chat"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// chatPane is the assistant side panel: transcript viewport above an input line.
type chatPane struct {
	input   textinput.Model
	vp      viewport.Model
	spin    spinner.Model
	width   int
	height  int
	focused bool
	count   int
}

func newChatPane() chatPane {
	in := textinput.New()
	in.Placeholder = "Ask the assistant…"
	in.Prompt = "› "
	in.CharLimit = 500
	return chatPane{
		input: in,
		vp:    viewport.New(0, 0),
		spin:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (c *chatPane) setSize(w, h int) {
	c.width, c.height = w, h
	c.input.Width = max(w-4, 1)
	c.vp.Width = w
	c.vp.Height = max(h-3, 1)
}

func (c *chatPane) focus() tea.Cmd {
	c.focused = true
	return c.input.Focus()
}

func (c *chatPane) blur() {
	c.focused = false
	c.input.Blur()
}

// take returns the typed text and clears the input.
func (c *chatPane) take() string {
	v := strings.TrimSpace(c.input.Value())
	c.input.SetValue("")
	return v
}

// setMessages re-renders the transcript, following the tail when new entries arrived.
func (c *chatPane) setMessages(msgs []chat.Message) {
	w := max(c.width-2, 10)
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, renderChatMessage(m, w))
	}
	c.vp.SetContent(strings.Join(parts, "\n\n"))
	if len(msgs) != c.count {
		c.vp.GotoBottom()
	}
	c.count = len(msgs)
}

func renderChatMessage(m chat.Message, width int) string {
	switch {
	case m.Type == chat.KindConfirmation:
		q := lipgloss.NewStyle().Foreground(colorWarn).Bold(true).Width(width).Render(m.Content)
		return q + "\n" + styleMuted().Render("y: confirm   n: cancel")
	case m.Role == chat.RoleUser:
		return lipgloss.NewStyle().Bold(true).Width(width).Render("You: " + m.Content)
	case m.Role == chat.RoleAssistant:
		return renderMarkdown(m.Content, width)
	case strings.HasPrefix(m.Content, "Failed: "), strings.HasPrefix(m.Content, "Error"):
		return lipgloss.NewStyle().Foreground(colorFlashErrorBg).Width(width).Render(m.Content)
	default:
		return lipgloss.NewStyle().Foreground(colorSuccess).Width(width).Render(m.Content)
	}
}

func (c chatPane) view(loading bool) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg).Background(colorControlBg).Width(c.width).Render(" Assistant")
	status := ""
	if loading {
		status = c.spin.View() + " thinking…"
	}
	body := c.vp.View()
	if c.count == 0 {
		body = styleMuted().Width(c.width).Render("Try: \"create a task called Ship it in Todo\"")
	}
	inputLine := c.input.View()
	if !c.focused {
		inputLine = styleMuted().Render("tab: chat")
	}
	return normalizePane(strings.Join([]string{
		title,
		normalizePane(body, c.width, max(c.height-3, 1)),
		styleMuted().Render(status),
		inputLine,
	}, "\n"), c.width, c.height)
}
