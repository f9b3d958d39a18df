package application_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"docketvoice/internal/application"
	"docketvoice/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type scriptStep struct {
	after string
	say   string
}

// scriptedVoice plays both sides of the conversation: it records what the
// assistant speaks and releases each scripted line once its cue has been
// spoken. When the script runs out it reports io.EOF.
type scriptedVoice struct {
	mu      sync.Mutex
	spoken  []string
	changed chan struct{}
	steps   []scriptStep
	next    int
	seen    int
}

func newScriptedVoice(steps ...scriptStep) *scriptedVoice {
	return &scriptedVoice{steps: steps, changed: make(chan struct{})}
}

func (v *scriptedVoice) Start(_ context.Context) error { return nil }
func (v *scriptedVoice) Stop() error                   { return nil }
func (v *scriptedVoice) Name() string                  { return "script" }

func (v *scriptedVoice) Speak(_ context.Context, text string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.spoken = append(v.spoken, text)
	close(v.changed)
	v.changed = make(chan struct{})
	return nil
}

func (v *scriptedVoice) NextCommand(ctx context.Context) ([]byte, error) {
	for {
		v.mu.Lock()
		if v.next >= len(v.steps) {
			v.mu.Unlock()
			return nil, io.EOF
		}
		step := v.steps[v.next]
		for i := v.seen; i < len(v.spoken); i++ {
			if strings.Contains(v.spoken[i], step.after) {
				v.seen = i + 1
				v.next++
				v.mu.Unlock()
				return domain.TextCommand(step.say), nil
			}
		}
		changed := v.changed
		v.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-changed:
		}
	}
}

func (v *scriptedVoice) Spoken() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.spoken...)
}

func (v *scriptedVoice) Said(substr string) bool {
	for _, line := range v.Spoken() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// sliceSource hands out fixed payloads, then io.EOF.
type sliceSource struct {
	mu       sync.Mutex
	payloads [][]byte
	index    int
}

func textSource(lines ...string) *sliceSource {
	s := &sliceSource{}
	for _, l := range lines {
		s.payloads = append(s.payloads, domain.TextCommand(l))
	}
	return s
}

func (s *sliceSource) Start(_ context.Context) error { return nil }
func (s *sliceSource) Stop() error                   { return nil }
func (s *sliceSource) Name() string                  { return "slice" }

func (s *sliceSource) NextCommand(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= len(s.payloads) {
		return nil, io.EOF
	}
	p := s.payloads[s.index]
	s.index++
	return p, nil
}

// blockingSource never produces anything.
type blockingSource struct{}

func (blockingSource) Start(_ context.Context) error { return nil }
func (blockingSource) Stop() error                   { return nil }
func (blockingSource) Name() string                  { return "blocking" }

func (blockingSource) NextCommand(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type mockSTT struct {
	transcriptions map[string]string
	err            error
	calls          int
}

func (m *mockSTT) Transcribe(_ context.Context, audio []byte) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.transcriptions[string(audio)], nil
}

// recordingTTS records spoken lines and calls onSpeak with the 1-based
// line number.
type recordingTTS struct {
	mu      sync.Mutex
	lines   []string
	err     error
	onSpeak func(n int, text string)
}

func (r *recordingTTS) Speak(_ context.Context, text string) error {
	r.mu.Lock()
	r.lines = append(r.lines, text)
	n := len(r.lines)
	r.mu.Unlock()
	if r.onSpeak != nil {
		r.onSpeak(n, text)
	}
	return r.err
}

func (r *recordingTTS) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

type mockWriter struct {
	mu    sync.Mutex
	data  *domain.PetitionData
	err   error
	calls int
}

func (m *mockWriter) Write(_ context.Context, data *domain.PetitionData) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	m.data = data.Clone()
	return "/tmp/complete_bankruptcy_data.json", nil
}

type mockNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockNotifier) Notify(_ context.Context, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}

type mockAdvisor struct {
	answer    string
	questions []string
}

func (m *mockAdvisor) Answer(_ context.Context, question string) (string, error) {
	m.questions = append(m.questions, question)
	return m.answer, nil
}

type mockExtractor struct {
	values map[string]string
	asked  []application.Extraction
}

func (m *mockExtractor) Extract(_ context.Context, e application.Extraction) (string, bool, error) {
	m.asked = append(m.asked, e)
	v, ok := m.values[e.Answer]
	return v, ok, nil
}

type mockChat struct {
	name  string
	reply string
	err   error
	calls int
}

func (m *mockChat) Name() string { return m.name }

func (m *mockChat) Complete(_ context.Context, _ application.ChatRequest) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

type commandCount struct {
	cmd     domain.Command
	outcome string
}

type recordingObserver struct {
	mu         sync.Mutex
	commands   []commandCount
	utterances []string
}

func (r *recordingObserver) ObserveUtterance(kind string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.utterances = append(r.utterances, kind)
}

func (r *recordingObserver) ObserveCommand(cmd domain.Command, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, commandCount{cmd, outcome})
}
