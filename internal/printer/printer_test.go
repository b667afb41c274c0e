package printer

import (
	"bytes"
	"testing"

	"kanban-cli/internal/chat"

	"github.com/stretchr/testify/assert"
)

func newPlain() (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	p := New(&out, &errOut)
	p.DisableColor()
	return p, &out, &errOut
}

func TestSuccessAddsCheckmarkOnce(t *testing.T) {
	p, out, _ := newPlain()
	p.Success("moved %s", "t-1")
	p.Success("✓ already marked")
	assert.Equal(t, "✓ moved t-1\n✓ already marked\n", out.String())
}

func TestErrorWritesToErrWriter(t *testing.T) {
	p, out, errOut := newPlain()
	err := p.Error("Board not found", "No board with id 9.")
	assert.EqualError(t, err, "Board not found")
	assert.Empty(t, out.String())
	assert.Equal(t, "Board not found\nNo board with id 9.\n", errOut.String())
}

func TestMessageByRole(t *testing.T) {
	p, out, _ := newPlain()
	p.Message(chat.Message{Role: chat.RoleUser, Content: "delete Old Task"})
	p.Message(chat.Message{Role: chat.RoleAssistant, Content: "Are you sure you want to delete Old Task?", Type: chat.KindConfirmation})
	p.Message(chat.Message{Role: chat.RoleSystem, Content: "Task 'Old Task' deleted."})
	assert.Equal(t,
		"> delete Old Task\n? Are you sure you want to delete Old Task? [y/N]\nTask 'Old Task' deleted.\n",
		out.String())
}

func TestColorEscapes(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, &out)
	p.EnableColor()
	p.Warning("careful")
	assert.Contains(t, out.String(), "\x1b[")
	assert.Contains(t, out.String(), "! careful")
}
