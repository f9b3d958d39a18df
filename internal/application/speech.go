package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// NoopSTT is a no-op speech-to-text client for text-only sources (keyboard, HTTP /text).
// It returns an error if called with actual audio data.
type NoopSTT struct{}

func (n *NoopSTT) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return "", fmt.Errorf("speech-to-text not configured: set OPENAI_API_KEY or voice.local_stt to enable audio transcription")
}

type TextToSpeech interface {
	Speak(ctx context.Context, text string) error
}

// Synthesizer renders text to PCM audio without playing it.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, AudioFormat, error)
}

// SynthesizedSpeech speaks by synthesizing audio and handing it to a player.
// Calls are serialized so two prompts never overlap.
type SynthesizedSpeech struct {
	mu     sync.Mutex
	synth  Synthesizer
	player AudioPlayer
}

func NewSynthesizedSpeech(synth Synthesizer, player AudioPlayer) *SynthesizedSpeech {
	return &SynthesizedSpeech{synth: synth, player: player}
}

func (s *SynthesizedSpeech) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pcm, format, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("synthesizing speech: %w", err)
	}
	if err := s.player.Play(ctx, pcm, format); err != nil {
		return fmt.Errorf("playing speech: %w", err)
	}
	return nil
}

// SilentTTS is used in text-only mode; the transcript is the only output.
type SilentTTS struct{}

func (SilentTTS) Speak(_ context.Context, _ string) error {
	return nil
}

// FallbackSTT tries each backend in order and returns the first transcript.
type FallbackSTT struct {
	backends []SpeechToText
	logger   *slog.Logger
}

func NewFallbackSTT(logger *slog.Logger, backends ...SpeechToText) *FallbackSTT {
	return &FallbackSTT{backends: backends, logger: logger}
}

func (f *FallbackSTT) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var errs []error
	for i, b := range f.backends {
		text, err := b.Transcribe(ctx, audio)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		f.logger.Warn("speech-to-text backend failed", "backend", i, "error", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("no speech-to-text backend configured")
	}
	return "", fmt.Errorf("all speech-to-text backends failed: %w", errors.Join(errs...))
}

// FallbackTTS tries each backend in order until one speaks.
type FallbackTTS struct {
	backends []TextToSpeech
	logger   *slog.Logger
}

func NewFallbackTTS(logger *slog.Logger, backends ...TextToSpeech) *FallbackTTS {
	return &FallbackTTS{backends: backends, logger: logger}
}

func (f *FallbackTTS) Speak(ctx context.Context, text string) error {
	var errs []error
	for i, b := range f.backends {
		err := b.Speak(ctx, text)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("text-to-speech backend failed", "backend", i, "error", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("all text-to-speech backends failed: %w", errors.Join(errs...))
}
