package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docketvoice/config"
	"docketvoice/internal/application"
	"docketvoice/internal/infra/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ELEVENLABS_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	dir := t.TempDir()
	cfg, err := config.Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	cfg.Output.Dir = filepath.Join(dir, "output")
	cfg.Output.ProgressDB = filepath.Join(dir, "output", "progress.db")
	cfg.Audio.FileDir = filepath.Join(dir, "audio")
	cfg.Metrics.Addr = "127.0.0.1:0"
	return cfg
}

func TestWire_Minimal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audio.Sources = []string{"file", "bogus"}
	cfg.Voice.LocalTTS = ""

	d, err := wire(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), strings.NewReader(""))
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, "file", d.audio.Name())
	assert.Nil(t, d.stt)
	assert.Nil(t, d.tts)
	assert.Nil(t, d.chat)
	assert.Nil(t, d.extractor)
	assert.Nil(t, d.advisor)
	assert.Nil(t, d.notifier)
	assert.Nil(t, d.observer)
	assert.IsType(t, &store.ProgressStore{}, d.progress)
	assert.Equal(t, defaultListenTimeout, d.listenTimeout)
}

func TestWire_Providers(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audio.Sources = []string{"keyboard"}
	cfg.OpenAI.APIKey = "sk-test"
	cfg.Gemini.APIKey = "gm-test"
	cfg.ElevenLabs.APIKey = "el-test"
	cfg.Voice.LocalTTS = "espeak"
	cfg.Voice.ListenTimeout = "5s"
	cfg.Metrics.Enabled = true
	cfg.Pushover.Enabled = true

	d, err := wire(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), strings.NewReader(""))
	require.NoError(t, err)
	defer d.Close()

	require.NotNil(t, d.chat)
	assert.Equal(t, "openai,gemini", d.chat.Name())
	assert.NotNil(t, d.extractor)
	assert.NotNil(t, d.advisor)
	assert.IsType(t, &application.FallbackSTT{}, d.stt)
	assert.IsType(t, &application.FallbackTTS{}, d.tts)
	assert.NotNil(t, d.observer)
	assert.NotNil(t, d.notifier)
	assert.Equal(t, "5s", d.listenTimeout.String())

	c := d.components(io.Discard)
	assert.Equal(t, d.audio, c.Audio)
	assert.Equal(t, d.progress, c.Progress)
}

func TestWire_RulesOnly(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audio.Sources = []string{"keyboard"}
	cfg.Anthropic.APIKey = "sk-ant"
	cfg.LLM.RulesOnly = true

	d, err := wire(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), strings.NewReader(""))
	require.NoError(t, err)
	defer d.Close()

	assert.NotNil(t, d.advisor, "emergency answers still use the model")
	assert.Nil(t, d.extractor)
}

func TestRootCmd(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"run", "voice-test", "setup"}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}
