package local

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"docketvoice/internal/application"
	"docketvoice/internal/infra/audio"
)

const filePlaceholder = "{file}"

// splitCommand turns a configured command line into argv. Quoting is
// not supported; wrap complex pipelines in a script.
func splitCommand(command string) ([]string, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return args, nil
}

func withFile(args []string, path string) ([]string, bool) {
	out := make([]string, len(args))
	found := false
	for i, a := range args {
		if strings.Contains(a, filePlaceholder) {
			found = true
			a = strings.ReplaceAll(a, filePlaceholder, path)
		}
		out[i] = a
	}
	return out, found
}

func run(ctx context.Context, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("running %s: %w: %s", args[0], err, msg)
		}
		return nil, fmt.Errorf("running %s: %w", args[0], err)
	}
	return stdout.Bytes(), nil
}

func tempFile(pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	return f.Name(), nil
}

// Transcriber runs an offline speech-to-text program such as whisper.cpp.
// The WAV clip is written to a temp file substituted for {file}, or piped
// to stdin when the command has no placeholder. Stdout is the transcript.
type Transcriber struct {
	args []string
}

func NewTranscriber(command string) (*Transcriber, error) {
	args, err := splitCommand(command)
	if err != nil {
		return nil, fmt.Errorf("local speech-to-text: %w", err)
	}
	return &Transcriber{args: args}, nil
}

func (t *Transcriber) Transcribe(ctx context.Context, clip []byte) (string, error) {
	path, err := tempFile("docketvoice-*.wav", clip)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	args, found := withFile(t.args, path)
	var stdin []byte
	if !found {
		stdin = clip
	}

	out, err := run(ctx, args, stdin)
	if err != nil {
		return "", fmt.Errorf("local transcription: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Speaker runs an offline text-to-speech program (say, espeak, piper)
// with the text as the final argument, or in place of {text}.
type Speaker struct {
	args []string
}

func NewSpeaker(command string) (*Speaker, error) {
	args, err := splitCommand(command)
	if err != nil {
		return nil, fmt.Errorf("local text-to-speech: %w", err)
	}
	return &Speaker{args: args}, nil
}

func (s *Speaker) Speak(ctx context.Context, text string) error {
	args := make([]string, 0, len(s.args)+1)
	replaced := false
	for _, a := range s.args {
		if strings.Contains(a, "{text}") {
			a = strings.ReplaceAll(a, "{text}", text)
			replaced = true
		}
		args = append(args, a)
	}
	if !replaced {
		args = append(args, text)
	}

	if _, err := run(ctx, args, nil); err != nil {
		return fmt.Errorf("local speech: %w", err)
	}
	return nil
}

// Player hands synthesized audio to an external player (aplay, afplay,
// ffplay) as a file. PCM is wrapped in a WAV header; mp3 is passed as is.
type Player struct {
	args []string
}

func NewPlayer(command string) (*Player, error) {
	args, err := splitCommand(command)
	if err != nil {
		return nil, fmt.Errorf("audio player: %w", err)
	}
	return &Player{args: args}, nil
}

func (p *Player) Play(ctx context.Context, pcm []byte, format application.AudioFormat) error {
	pattern, data := "docketvoice-*.wav", []byte(nil)
	switch format.Encoding {
	case application.EncodingPCM:
		data = audio.EncodeWAV(pcm, format)
	case application.EncodingMP3:
		pattern, data = "docketvoice-*.mp3", pcm
	default:
		return fmt.Errorf("playing audio: unsupported encoding %q", format.Encoding)
	}

	path, err := tempFile(pattern, data)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	args, found := withFile(p.args, path)
	if !found {
		args = append(args, path)
	}

	if _, err := run(ctx, args, nil); err != nil {
		return fmt.Errorf("playing audio: %w", err)
	}
	return nil
}
