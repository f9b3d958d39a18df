package application_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docketvoice/internal/application"
	"docketvoice/internal/infra/intent"
)

func statuses(results []application.CheckResult) map[string]application.CheckStatus {
	out := make(map[string]application.CheckStatus, len(results))
	for _, r := range results {
		out[r.Name] = r.Status
	}
	return out
}

func TestVoiceCheck_AllPass(t *testing.T) {
	tts := &recordingTTS{}
	out := &bytes.Buffer{}
	check := &application.VoiceCheck{
		Audio:      textSource("pause"),
		TTS:        tts,
		Recognizer: intent.NewRecognizer(),
		Chat:       &mockChat{name: "claude", reply: "OK."},
		Out:        out,
		Logger:     testLogger(),
	}

	results := check.Run(context.Background())
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, application.CheckOK, r.Status, "%s: %s", r.Name, r.Message)
	}
	assert.Contains(t, results[3].Message, `heard "pause" (command: pause)`)
	assert.Len(t, tts.Lines(), 1)
	assert.Contains(t, out.String(), "Say something")
}

func TestVoiceCheck_Degraded(t *testing.T) {
	check := &application.VoiceCheck{
		Audio:          blockingSource{},
		Recognizer:     intent.NewRecognizer(),
		Logger:         testLogger(),
		CaptureTimeout: 20 * time.Millisecond,
	}

	got := statuses(check.Run(context.Background()))
	assert.Equal(t, application.CheckWarn, got["text-to-speech"])
	assert.Equal(t, application.CheckOK, got["intent recognition"])
	assert.Equal(t, application.CheckWarn, got["language model"])
	assert.Equal(t, application.CheckWarn, got["speech capture"])
}

func TestVoiceCheck_Failures(t *testing.T) {
	check := &application.VoiceCheck{
		Audio:      &sliceSource{payloads: [][]byte{[]byte("raw pcm")}},
		STT:        &mockSTT{err: errors.New("bad key")},
		TTS:        &recordingTTS{err: errors.New("no device")},
		Recognizer: intent.NewRecognizer(),
		Chat:       &mockChat{name: "gpt", err: errors.New("timeout")},
		Logger:     testLogger(),
	}

	got := statuses(check.Run(context.Background()))
	assert.Equal(t, application.CheckError, got["text-to-speech"])
	assert.Equal(t, application.CheckError, got["language model"])
	assert.Equal(t, application.CheckError, got["speech capture"])
}
