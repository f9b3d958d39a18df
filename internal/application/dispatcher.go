package application

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"docketvoice/internal/domain"
)

type CommandHandler func(ctx context.Context, result domain.IntentResult) error

// Dispatcher routes recognized commands to handlers. Interrupt handlers
// are invoked from the background listener and must not block on input.
type Dispatcher struct {
	mu         sync.RWMutex
	handlers   map[domain.Command]CommandHandler
	interrupts map[domain.Command]CommandHandler
	observer   Observer
	logger     *slog.Logger
}

func NewDispatcher(observer Observer, logger *slog.Logger) *Dispatcher {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Dispatcher{
		handlers:   make(map[domain.Command]CommandHandler),
		interrupts: make(map[domain.Command]CommandHandler),
		observer:   observer,
		logger:     logger,
	}
}

func (d *Dispatcher) Register(cmd domain.Command, h CommandHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[cmd] = h
}

func (d *Dispatcher) RegisterInterrupt(cmd domain.Command, h CommandHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.interrupts[cmd] = h
}

func (d *Dispatcher) IsInterrupt(cmd domain.Command) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.interrupts[cmd]
	return ok
}

func (d *Dispatcher) Dispatch(ctx context.Context, result domain.IntentResult) (bool, error) {
	d.mu.RLock()
	h, ok := d.handlers[result.Command]
	d.mu.RUnlock()
	return d.run(ctx, result, h, ok)
}

func (d *Dispatcher) DispatchInterrupt(ctx context.Context, result domain.IntentResult) (bool, error) {
	d.mu.RLock()
	h, ok := d.interrupts[result.Command]
	d.mu.RUnlock()
	return d.run(ctx, result, h, ok)
}

func (d *Dispatcher) run(ctx context.Context, result domain.IntentResult, h CommandHandler, ok bool) (bool, error) {
	if !ok {
		d.observer.ObserveCommand(result.Command, "unhandled")
		return false, nil
	}

	d.logger.Info("dispatching command",
		"command", result.Command,
		"phrase", result.Phrase,
		"context", result.Context,
		"confidence", result.Confidence,
	)

	if err := h(ctx, result); err != nil {
		outcome := "error"
		if isNavigation(err) {
			outcome = "navigate"
		}
		d.observer.ObserveCommand(result.Command, outcome)
		return true, err
	}
	d.observer.ObserveCommand(result.Command, "ok")
	return true, nil
}

// Commands lists every command with a foreground or interrupt handler.
func (d *Dispatcher) Commands() []domain.Command {
	d.mu.RLock()
	defer d.mu.RUnlock()

	seen := make(map[domain.Command]bool)
	for c := range d.handlers {
		seen[c] = true
	}
	for c := range d.interrupts {
		seen[c] = true
	}
	out := make([]domain.Command, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
