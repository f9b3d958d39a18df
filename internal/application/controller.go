package application

import (
	"context"
	"sync"
)

type RunState int

const (
	StateRunning RunState = iota
	StatePaused
	StateStopped
)

func (s RunState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// PauseReason records what paused the session; the pause menu greets
// the user differently for each.
type PauseReason string

const (
	ReasonNone          PauseReason = ""
	ReasonVoice         PauseReason = "voice"
	ReasonKeyboard      PauseReason = "keyboard"
	ReasonQuitRequested PauseReason = "quit_requested"
	ReasonEmergency     PauseReason = "emergency"
)

type InterruptOutcome int

const (
	InterruptIgnored InterruptOutcome = iota
	InterruptPaused
	InterruptForceQuit
)

// Controller owns the pause/resume/quit state shared by the background
// listener and the foreground conversation.
//
// resumed is closed while running and paused is closed while paused, so
// waiters can select on whichever transition they need. quit closes once.
type Controller struct {
	mu        sync.Mutex
	state     RunState
	reason    PauseReason
	resumed   chan struct{}
	paused    chan struct{}
	quit      chan struct{}
	operation string
	cancelOp  context.CancelFunc
	opSeq     uint64
}

func NewController() *Controller {
	resumed := make(chan struct{})
	close(resumed)
	return &Controller{
		state:   StateRunning,
		resumed: resumed,
		paused:  make(chan struct{}),
		quit:    make(chan struct{}),
	}
}

func (c *Controller) State() RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Reason() PauseReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Pause moves a running session to paused. It reports whether the state changed.
func (c *Controller) Pause(reason PauseReason) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning {
		return false
	}
	c.state = StatePaused
	c.reason = reason
	c.resumed = make(chan struct{})
	close(c.paused)
	return true
}

// Resume moves a paused session back to running.
func (c *Controller) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePaused {
		return false
	}
	c.state = StateRunning
	c.reason = ReasonNone
	c.paused = make(chan struct{})
	close(c.resumed)
	return true
}

// Quit stops the session for good and cancels the current operation.
func (c *Controller) Quit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateStopped {
		return
	}
	c.state = StateStopped
	close(c.quit)
	if c.cancelOp != nil {
		c.cancelOp()
	}
}

// Interrupt handles Ctrl+C: the first press pauses, a second press while
// paused quits without asking.
func (c *Controller) Interrupt() InterruptOutcome {
	switch c.State() {
	case StateRunning:
		if c.Pause(ReasonKeyboard) {
			return InterruptPaused
		}
	case StatePaused:
		c.Quit()
		return InterruptForceQuit
	}
	return InterruptIgnored
}

// Paused returns a channel that is closed while the session is paused.
func (c *Controller) Paused() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Done returns a channel that is closed once the session quits.
func (c *Controller) Done() <-chan struct{} {
	return c.quit
}

// WaitForResume blocks until the session is running. It returns ErrQuit
// if the session quits first.
func (c *Controller) WaitForResume(ctx context.Context) error {
	for {
		c.mu.Lock()
		state, resumed := c.state, c.resumed
		c.mu.Unlock()

		switch state {
		case StateRunning:
			return nil
		case StateStopped:
			return ErrQuit
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.quit:
			return ErrQuit
		case <-resumed:
		}
	}
}

// BeginOperation names the work in progress and returns a context that
// CancelOperation or Quit will cancel. end must be called when the work
// finishes.
func (c *Controller) BeginOperation(ctx context.Context, name string) (context.Context, func()) {
	opCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.opSeq++
	seq := c.opSeq
	c.operation = name
	c.cancelOp = cancel
	stopped := c.state == StateStopped
	c.mu.Unlock()

	if stopped {
		cancel()
	}

	return opCtx, func() {
		cancel()
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.opSeq == seq {
			c.operation = ""
			c.cancelOp = nil
		}
	}
}

// CancelOperation cancels the current operation, if any.
func (c *Controller) CancelOperation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelOp == nil {
		return false
	}
	c.cancelOp()
	return true
}

func (c *Controller) Operation() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.operation
}
