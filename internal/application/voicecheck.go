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

type CheckStatus string

const (
	CheckOK    CheckStatus = "ok"
	CheckWarn  CheckStatus = "warn"
	CheckError CheckStatus = "error"
)

type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
}

const defaultCaptureTimeout = 8 * time.Second

var recognizerSamples = []struct {
	text string
	ctx  domain.VoiceContext
	want domain.Command
}{
	{"pause", domain.ContextGeneral, domain.CommandPause},
	{"stop", domain.ContextGeneral, domain.CommandPause},
	{"continue", domain.ContextPauseMenu, domain.CommandResume},
	{"go back", domain.ContextInterview, domain.CommandGoBack},
	{"save my progress", domain.ContextInterview, domain.CommandSave},
	{"I need help now", domain.ContextGeneral, domain.CommandEmergency},
	{"my name is Jane Doe", domain.ContextInterview, domain.CommandNone},
}

// VoiceCheck exercises each stage of the voice pipeline once and reports
// what works.
type VoiceCheck struct {
	Audio          AudioSource
	STT            SpeechToText
	TTS            TextToSpeech
	Recognizer     IntentRecognizer
	Chat           ChatModel
	Out            io.Writer
	Logger         *slog.Logger
	CaptureTimeout time.Duration
}

func (v *VoiceCheck) Run(ctx context.Context) []CheckResult {
	return []CheckResult{
		v.checkSpeech(ctx),
		v.checkRecognizer(),
		v.checkChat(ctx),
		v.checkCapture(ctx),
	}
}

func (v *VoiceCheck) checkSpeech(ctx context.Context) CheckResult {
	r := CheckResult{Name: "text-to-speech"}
	if v.TTS == nil {
		r.Status, r.Message = CheckWarn, "no voice output configured; prompts will only be printed"
		return r
	}
	if err := v.TTS.Speak(ctx, "Hello! This is the voice system test. If you can hear me, text to speech is working."); err != nil {
		r.Status, r.Message = CheckError, err.Error()
		return r
	}
	r.Status, r.Message = CheckOK, "test phrase played"
	return r
}

func (v *VoiceCheck) checkRecognizer() CheckResult {
	r := CheckResult{Name: "intent recognition"}
	var misses []string
	for _, s := range recognizerSamples {
		got := v.Recognizer.Recognize(s.text, s.ctx)
		if got.Command != s.want {
			misses = append(misses, fmt.Sprintf("%q -> %s (want %s)", s.text, got.Command, s.want))
		}
	}
	if len(misses) > 0 {
		r.Status, r.Message = CheckError, strings.Join(misses, "; ")
		return r
	}
	r.Status, r.Message = CheckOK, fmt.Sprintf("%d sample phrases recognized", len(recognizerSamples))
	return r
}

func (v *VoiceCheck) checkChat(ctx context.Context) CheckResult {
	r := CheckResult{Name: "language model"}
	if v.Chat == nil {
		r.Status, r.Message = CheckWarn, "no language model configured; answers are parsed by rules only"
		return r
	}
	reply, err := v.Chat.Complete(ctx, ChatRequest{
		System:    "You are a connectivity check.",
		Messages:  []ChatMessage{{Role: RoleUser, Content: "Reply with the single word OK."}},
		MaxTokens: 5,
	})
	if err != nil {
		r.Status, r.Message = CheckError, err.Error()
		return r
	}
	if !strings.Contains(strings.ToLower(reply), "ok") {
		r.Status, r.Message = CheckWarn, fmt.Sprintf("%s answered %q", v.Chat.Name(), reply)
		return r
	}
	r.Status, r.Message = CheckOK, v.Chat.Name()+" responded"
	return r
}

func (v *VoiceCheck) checkCapture(ctx context.Context) CheckResult {
	r := CheckResult{Name: "speech capture"}
	if v.Audio == nil {
		r.Status, r.Message = CheckWarn, "no audio source configured"
		return r
	}

	if err := v.Audio.Start(ctx); err != nil {
		r.Status, r.Message = CheckError, fmt.Sprintf("starting %s: %v", v.Audio.Name(), err)
		return r
	}
	defer v.Audio.Stop()

	timeout := v.CaptureTimeout
	if timeout <= 0 {
		timeout = defaultCaptureTimeout
	}
	if v.Out != nil {
		fmt.Fprintf(v.Out, "Say something (you have %s)...\n", timeout)
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := v.Audio.NextCommand(cctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
			r.Status, r.Message = CheckWarn, "nothing heard within "+timeout.String()
			return r
		}
		r.Status, r.Message = CheckError, err.Error()
		return r
	}

	text, isText := domain.ParseTextCommand(data)
	if !isText {
		if v.STT == nil {
			r.Status, r.Message = CheckWarn, fmt.Sprintf("captured %d bytes but no speech-to-text is configured", len(data))
			return r
		}
		text, err = v.STT.Transcribe(ctx, data)
		if err != nil {
			r.Status, r.Message = CheckError, fmt.Sprintf("transcribing: %v", err)
			return r
		}
	}

	result := v.Recognizer.Recognize(text, domain.ContextGeneral)
	r.Status, r.Message = CheckOK, fmt.Sprintf("heard %q (command: %s)", strings.TrimSpace(text), result.Command)
	return r
}
