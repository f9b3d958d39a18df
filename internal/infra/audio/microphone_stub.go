//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"errors"
	"log/slog"

	"docketvoice/internal/application"
)

var errNoPortAudio = errors.New("audio device support not built: rebuild with -tags portaudio")

// MicrophoneSource stub when portaudio is not available
type MicrophoneSource struct {
	logger *slog.Logger
}

func NewMicrophoneSource(_ MicrophoneConfig, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{logger: logger}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	return errNoPortAudio
}

func (m *MicrophoneSource) Stop() error {
	return nil
}

func (m *MicrophoneSource) NextCommand(_ context.Context) ([]byte, error) {
	return nil, errNoPortAudio
}

type Speaker struct{}

func NewSpeaker(_ *slog.Logger) *Speaker {
	return &Speaker{}
}

func (s *Speaker) Play(_ context.Context, _ []byte, _ application.AudioFormat) error {
	return errNoPortAudio
}
