//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"docketvoice/internal/application"
)

// MicrophoneSource captures the default input device and returns one WAV
// clip per detected utterance.
type MicrophoneSource struct {
	cfg    MicrophoneConfig
	logger *slog.Logger

	mu     sync.Mutex
	stream *portaudio.Stream
	buffer []int16
	seg    *Segmenter
}

func NewMicrophoneSource(cfg MicrophoneConfig, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream != nil {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	m.buffer = make([]int16, m.cfg.FrameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.cfg.SampleRate), len(m.buffer), m.buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting stream: %w", err)
	}

	m.stream = stream
	maxSamples := int(m.cfg.MaxUtterance.Seconds() * float64(m.cfg.SampleRate))
	m.seg = NewSegmenter(NewVAD(m.cfg.VAD, m.cfg.SampleRate), m.cfg.PreRoll, maxSamples)

	m.logger.Info("microphone started", "sample_rate", m.cfg.SampleRate, "frame_size", m.cfg.FrameSize)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return nil
	}
	m.stream.Stop()
	m.stream.Close()
	m.stream = nil
	return portaudio.Terminate()
}

// NextCommand reads frames until the segmenter closes an utterance.
// Cancellation is checked between frames.
func (m *MicrophoneSource) NextCommand(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return nil, fmt.Errorf("microphone not started")
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := m.stream.Read(); err != nil {
			if err == portaudio.InputOverflowed {
				m.logger.Debug("input overflowed")
				continue
			}
			return nil, fmt.Errorf("reading from stream: %w", err)
		}

		if utterance := m.seg.Push(m.buffer); utterance != nil {
			m.logger.Debug("utterance captured", "samples", len(utterance))
			format := application.AudioFormat{SampleRate: m.cfg.SampleRate, Channels: 1, BitDepth: 16}
			return EncodeWAV(SamplesToPCM(utterance), format), nil
		}
	}
}
