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

const playbackFrames = 2048

// Speaker plays PCM on the default output device.
type Speaker struct {
	logger *slog.Logger
	mu     sync.Mutex
}

func NewSpeaker(logger *slog.Logger) *Speaker {
	return &Speaker{logger: logger}
}

func (s *Speaker) Play(ctx context.Context, pcm []byte, format application.AudioFormat) error {
	if format.Encoding != application.EncodingPCM {
		return fmt.Errorf("unsupported encoding %q", format.Encoding)
	}
	if format.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth %d", format.BitDepth)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	out := make([]int16, playbackFrames*format.Channels)
	stream, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRate), playbackFrames, out)
	if err != nil {
		return fmt.Errorf("opening output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting output stream: %w", err)
	}
	defer stream.Stop()

	samples := PCMToSamples(pcm)
	for off := 0; off < len(samples); off += len(out) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(out, samples[off:])
		clear(out[n:])
		if err := stream.Write(); err != nil {
			return fmt.Errorf("writing to stream: %w", err)
		}
	}

	s.logger.Debug("playback finished", "samples", len(samples), "sample_rate", format.SampleRate)
	return nil
}
