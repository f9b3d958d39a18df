package application

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"docketvoice/internal/domain"
)

func newBareAssistant() *Assistant {
	return NewAssistant(Components{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, Options{})
}

func TestAssistant_RegistersEveryCommand(t *testing.T) {
	a := newBareAssistant()

	assert.Len(t, a.dispatcher.Commands(), 21)
	for _, cmd := range []domain.Command{domain.CommandPause, domain.CommandQuit, domain.CommandEmergency, domain.CommandCancel} {
		assert.True(t, a.dispatcher.IsInterrupt(cmd), cmd)
	}
}

func TestAssistant_InterruptPausesWithKeyboardReason(t *testing.T) {
	a := newBareAssistant()

	assert.Equal(t, InterruptPaused, a.HandleInterrupt())
	assert.Equal(t, ReasonKeyboard, a.controller.Reason())
	assert.Equal(t, InterruptForceQuit, a.HandleInterrupt())
	assert.Equal(t, StateStopped, a.controller.State())
}
