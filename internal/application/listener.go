package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"docketvoice/internal/domain"
)

const (
	utteranceBuffer  = 16
	listenErrBackoff = 500 * time.Millisecond
)

type Utterance struct {
	Text       string
	Intent     domain.IntentResult
	Kind       string
	ReceivedAt time.Time
}

// Listener keeps reading the audio source in the background. Interrupt
// commands take effect as soon as they are heard; everything else is
// queued for the foreground conversation.
type Listener struct {
	audio      AudioSource
	stt        SpeechToText
	recognizer IntentRecognizer
	dispatcher *Dispatcher
	controller *Controller
	observer   Observer
	logger     *slog.Logger
	out        chan Utterance
	errBackoff time.Duration
}

func NewListener(
	audio AudioSource,
	stt SpeechToText,
	recognizer IntentRecognizer,
	dispatcher *Dispatcher,
	controller *Controller,
	observer Observer,
	logger *slog.Logger,
) *Listener {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Listener{
		audio:      audio,
		stt:        stt,
		recognizer: recognizer,
		dispatcher: dispatcher,
		controller: controller,
		observer:   observer,
		logger:     logger,
		out:        make(chan Utterance, utteranceBuffer),
		errBackoff: listenErrBackoff,
	}
}

// Utterances is closed when Run returns.
func (l *Listener) Utterances() <-chan Utterance {
	return l.out
}

// Run blocks until ctx is done or the source reports io.EOF. It must be
// called at most once.
func (l *Listener) Run(ctx context.Context) error {
	defer close(l.out)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := l.listenOnce(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			l.logger.Info("audio source exhausted", "source", l.audio.Name())
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			l.logger.Error("processing utterance", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(l.errBackoff):
			}
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context) error {
	audioData, err := l.audio.NextCommand(ctx)
	if err != nil {
		return fmt.Errorf("getting audio: %w", err)
	}

	if len(audioData) == 0 {
		return nil
	}

	start := time.Now()
	kind := "audio"

	text, isText := domain.ParseTextCommand(audioData)
	if isText {
		kind = "text"
	} else {
		l.logger.Debug("received audio", "bytes", len(audioData))
		text, err = l.stt.Transcribe(ctx, audioData)
		if err != nil {
			return fmt.Errorf("transcribing: %w", err)
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	result := l.recognizer.Recognize(text, domain.ContextGeneral)
	l.observer.ObserveUtterance(kind, time.Since(start))
	l.logger.Debug("heard utterance", "kind", kind, "text", text, "command", result.Command)

	if result.Matched() && l.controller.State() == StateRunning && l.dispatcher.IsInterrupt(result.Command) {
		if _, err := l.dispatcher.DispatchInterrupt(ctx, result); err != nil {
			return fmt.Errorf("handling interrupt %s: %w", result.Command, err)
		}
		return nil
	}

	l.enqueue(Utterance{
		Text:       text,
		Intent:     result,
		Kind:       kind,
		ReceivedAt: start,
	})
	return nil
}

// enqueue never blocks, so interrupts keep flowing while the foreground
// is busy speaking. The oldest queued utterance gives way.
func (l *Listener) enqueue(u Utterance) {
	for {
		select {
		case l.out <- u:
			return
		default:
		}

		select {
		case dropped := <-l.out:
			l.logger.Warn("utterance queue full, dropping oldest", "text", dropped.Text)
		default:
		}
	}
}
