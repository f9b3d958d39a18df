package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"docketvoice/internal/application"
)

// MultiSource merges several sources. Sources that fail to start are
// skipped; NextCommand reports io.EOF once every started source is done.
type MultiSource struct {
	sources []application.AudioSource
	logger  *slog.Logger

	mu      sync.Mutex
	started []application.AudioSource
	out     chan []byte
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewMultiSource(logger *slog.Logger, sources ...application.AudioSource) *MultiSource {
	return &MultiSource{sources: sources, logger: logger}
}

func (m *MultiSource) Name() string {
	names := make([]string, 0, len(m.sources))
	for _, s := range m.sources {
		names = append(names, s.Name())
	}
	return strings.Join(names, "+")
}

func (m *MultiSource) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.out != nil {
		return nil
	}

	var errs []error
	for _, s := range m.sources {
		if err := s.Start(ctx); err != nil {
			m.logger.Warn("audio source unavailable", "source", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		m.started = append(m.started, s)
	}
	if len(m.started) == 0 {
		return fmt.Errorf("no audio source could start: %w", errors.Join(errs...))
	}

	pumpCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.out = make(chan []byte)
	m.done = make(chan struct{})

	g, gctx := errgroup.WithContext(pumpCtx)
	for _, s := range m.started {
		g.Go(func() error {
			m.pump(gctx, s)
			return nil
		})
	}
	go func() {
		g.Wait()
		close(m.out)
		close(m.done)
	}()
	return nil
}

func (m *MultiSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel == nil {
		return nil
	}
	m.cancel()

	var errs []error
	for _, s := range m.started {
		if err := s.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stopping %s: %w", s.Name(), err))
		}
	}
	<-m.done
	m.cancel = nil
	return errors.Join(errs...)
}

func (m *MultiSource) NextCommand(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	out := m.out
	m.mu.Unlock()

	if out == nil {
		return nil, fmt.Errorf("multi source not started")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data, ok := <-out:
		if !ok {
			return nil, io.EOF
		}
		return data, nil
	}
}

func (m *MultiSource) pump(ctx context.Context, s application.AudioSource) {
	for {
		data, err := s.NextCommand(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				m.logger.Info("audio source finished", "source", s.Name())
			case ctx.Err() != nil:
			default:
				m.logger.Error("audio source failed", "source", s.Name(), "error", err)
			}
			return
		}

		select {
		case m.out <- data:
			m.logger.Debug("input received", "source", s.Name(), "bytes", len(data))
		case <-ctx.Done():
			return
		}
	}
}
