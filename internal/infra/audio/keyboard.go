package audio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"docketvoice/internal/domain"
)

// KeyboardSource turns typed lines into text commands. It is the input of
// last resort when no microphone is available.
type KeyboardSource struct {
	in     io.Reader
	logger *slog.Logger

	once  sync.Once
	lines chan string
	err   error
}

func NewKeyboardSource(in io.Reader, logger *slog.Logger) *KeyboardSource {
	return &KeyboardSource{in: in, logger: logger}
}

func (k *KeyboardSource) Name() string {
	return "keyboard"
}

func (k *KeyboardSource) Start(_ context.Context) error {
	k.once.Do(func() {
		k.lines = make(chan string)
		go k.read()
	})
	return nil
}

// Stop is a no-op: a blocked read on stdin cannot be interrupted.
func (k *KeyboardSource) Stop() error {
	return nil
}

func (k *KeyboardSource) NextCommand(ctx context.Context) ([]byte, error) {
	if k.lines == nil {
		return nil, fmt.Errorf("keyboard source not started")
	}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case line, ok := <-k.lines:
			if !ok {
				if k.err != nil {
					return nil, fmt.Errorf("reading input: %w", k.err)
				}
				return nil, io.EOF
			}
			if line = strings.TrimSpace(line); line != "" {
				return domain.TextCommand(line), nil
			}
		}
	}
}

func (k *KeyboardSource) read() {
	defer close(k.lines)
	scanner := bufio.NewScanner(k.in)
	for scanner.Scan() {
		k.lines <- scanner.Text()
	}
	k.err = scanner.Err()
	if k.err != nil {
		k.logger.Warn("keyboard input ended", "error", k.err)
	}
}
