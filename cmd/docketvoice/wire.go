package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"docketvoice/config"
	"docketvoice/internal/application"
	"docketvoice/internal/infra/anthropic"
	"docketvoice/internal/infra/audio"
	"docketvoice/internal/infra/elevenlabs"
	"docketvoice/internal/infra/gemini"
	"docketvoice/internal/infra/intent"
	"docketvoice/internal/infra/llm"
	"docketvoice/internal/infra/local"
	"docketvoice/internal/infra/metrics"
	"docketvoice/internal/infra/openai"
	"docketvoice/internal/infra/pushover"
	"docketvoice/internal/infra/store"
)

const defaultListenTimeout = 60 * time.Second

// deps holds the concrete adapters chosen from config.
type deps struct {
	logger        *slog.Logger
	audio         application.AudioSource
	stt           application.SpeechToText
	tts           application.TextToSpeech
	recognizer    application.IntentRecognizer
	chat          application.ChatModel
	extractor     application.AnswerExtractor
	advisor       application.Advisor
	writer        application.PetitionWriter
	progress      application.ProgressStore
	notifier      application.Notifier
	observer      application.Observer
	listenTimeout time.Duration
	closers       []func() error
}

func wire(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdin io.Reader) (*deps, error) {
	d := &deps{
		logger:     logger,
		recognizer: intent.NewRecognizer(),
		writer:     store.NewPetitionFile(cfg.Output.Dir),
	}

	var err error
	if d.listenTimeout, err = config.Duration(cfg.Voice.ListenTimeout, defaultListenTimeout); err != nil {
		logger.Warn("invalid listen timeout, using default", "error", err)
	}

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.NewRecorder()
		d.observer = recorder
	}

	d.audio = buildAudio(ctx, cfg, logger, stdin, recorder, d)
	d.stt = buildSTT(cfg, logger)
	d.tts = buildTTS(cfg, logger)

	if d.chat = buildChat(cfg, logger); d.chat != nil {
		d.advisor = llm.NewAdvisor(d.chat)
		if !cfg.LLM.RulesOnly {
			d.extractor = llm.NewExtractor(d.chat)
		}
	}

	progress, err := store.OpenProgressStore(cfg.Output.ProgressDB)
	if err != nil {
		logger.Warn("progress database unavailable, progress will not survive a restart", "error", err)
		d.progress = application.NewMemoryProgressStore()
	} else {
		d.progress = progress
		d.closers = append(d.closers, progress.Close)
	}

	if cfg.Pushover.Enabled {
		d.notifier = pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey)
	}

	return d, nil
}

func (d *deps) components(transcript io.Writer) application.Components {
	return application.Components{
		Audio:      d.audio,
		STT:        d.stt,
		TTS:        d.tts,
		Recognizer: d.recognizer,
		Extractor:  d.extractor,
		Advisor:    d.advisor,
		Writer:     d.writer,
		Progress:   d.progress,
		Notifier:   d.notifier,
		Observer:   d.observer,
		Transcript: transcript,
		Logger:     d.logger,
	}
}

func (d *deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildAudio(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdin io.Reader, recorder *metrics.Recorder, d *deps) application.AudioSource {
	var metricsHandler http.Handler
	if recorder != nil {
		metricsHandler = recorder.Handler()
	}

	var sources []application.AudioSource
	httpSource := false
	for _, name := range cfg.Audio.Sources {
		switch name {
		case "microphone":
			maxUtterance, err := config.Duration(cfg.Audio.MaxUtterance, 0)
			if err != nil {
				logger.Warn("invalid max utterance, using default", "error", err)
			}
			sources = append(sources, audio.NewMicrophoneSource(audio.MicrophoneConfig{
				SampleRate:   cfg.Audio.SampleRate,
				FrameSize:    cfg.Audio.FrameSize,
				MaxUtterance: maxUtterance,
				VAD: audio.VADParams{
					Confidence: cfg.Audio.VAD.Confidence,
					StartSecs:  cfg.Audio.VAD.StartSecs,
					StopSecs:   cfg.Audio.VAD.StopSecs,
					MinVolume:  cfg.Audio.VAD.MinVolume,
				},
			}, logger))
		case "keyboard":
			sources = append(sources, audio.NewKeyboardSource(stdin, logger))
		case "http":
			httpSource = true
			sources = append(sources, audio.NewHTTPSource(audio.HTTPConfig{
				Addr:      cfg.Audio.HTTPAddr,
				AuthToken: cfg.Audio.AuthToken,
				PerMinute: cfg.Audio.RateLimit,
				Metrics:   metricsHandler,
			}, logger))
		case "file":
			sources = append(sources, audio.NewFileSource(cfg.Audio.FileDir, logger))
		default:
			logger.Warn("unknown audio source, ignoring", "source", name)
		}
	}

	if len(sources) == 0 {
		logger.Warn("no usable audio source configured, using keyboard")
		sources = append(sources, audio.NewKeyboardSource(stdin, logger))
	}

	if metricsHandler != nil && !httpSource {
		d.closers = append(d.closers, serveMetrics(ctx, cfg.Metrics.Addr, metricsHandler, logger))
	}

	return audio.NewMultiSource(logger, sources...)
}

func serveMetrics(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) func() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logger.Info("metrics server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	return func() error {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func buildSTT(cfg *config.Config, logger *slog.Logger) application.SpeechToText {
	var backends []application.SpeechToText
	if cfg.OpenAI.APIKey != "" {
		backends = append(backends, openai.NewWhisperClient(cfg.OpenAI.APIKey, cfg.OpenAI.Language))
	}
	if cfg.Voice.LocalSTT != "" {
		t, err := local.NewTranscriber(cfg.Voice.LocalSTT)
		if err != nil {
			logger.Warn("local speech-to-text disabled", "error", err)
		} else {
			backends = append(backends, t)
		}
	}
	if len(backends) == 0 {
		return nil
	}
	return application.NewFallbackSTT(logger, backends...)
}

func buildTTS(cfg *config.Config, logger *slog.Logger) application.TextToSpeech {
	var backends []application.TextToSpeech
	if cfg.ElevenLabs.APIKey != "" {
		opts := []elevenlabs.Option{elevenlabs.WithModel(cfg.ElevenLabs.Model)}
		if cfg.ElevenLabs.VoiceID != "" {
			opts = append(opts, elevenlabs.WithVoice(cfg.ElevenLabs.VoiceID))
		}
		backends = append(backends, application.NewSynthesizedSpeech(
			elevenlabs.NewClient(cfg.ElevenLabs.APIKey, opts...),
			buildPlayer(cfg, logger),
		))
	}
	if cfg.Voice.LocalTTS != "" {
		s, err := local.NewSpeaker(cfg.Voice.LocalTTS)
		if err != nil {
			logger.Warn("local text-to-speech disabled", "error", err)
		} else {
			backends = append(backends, s)
		}
	}
	if len(backends) == 0 {
		return nil
	}
	return application.NewFallbackTTS(logger, backends...)
}

func buildPlayer(cfg *config.Config, logger *slog.Logger) application.AudioPlayer {
	if cfg.Audio.Player != "" {
		p, err := local.NewPlayer(cfg.Audio.Player)
		if err == nil {
			return p
		}
		logger.Warn("audio player command ignored", "error", err)
	}
	return audio.NewSpeaker(logger)
}

func buildChat(cfg *config.Config, logger *slog.Logger) application.ChatModel {
	var models []application.ChatModel
	for _, p := range cfg.LLM.Providers {
		switch p {
		case "openai":
			if cfg.OpenAI.APIKey == "" {
				continue
			}
			if cfg.OpenAI.BaseURL != "" {
				models = append(models, openai.NewChatClientWithURL(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel, cfg.OpenAI.BaseURL))
			} else {
				models = append(models, openai.NewChatClient(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel))
			}
		case "anthropic":
			if cfg.Anthropic.APIKey != "" {
				models = append(models, anthropic.NewClaudeClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model))
			}
		case "gemini":
			if cfg.Gemini.APIKey != "" {
				models = append(models, gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model))
			}
		default:
			logger.Warn("unknown LLM provider, ignoring", "provider", p)
		}
	}
	if len(models) == 0 {
		return nil
	}
	return application.NewFallbackChat(logger, models...)
}
