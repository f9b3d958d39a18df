package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"docketvoice/internal/domain"
)

const (
	defaultListenTimeout = 10 * time.Second
	maxConfirmAttempts   = 3

	repromptPrefix  = "I didn't catch that. Could you please repeat? "
	pausedPrompt    = "Application paused. Say continue to resume, quit to exit, or help for options."
	pauseMenuHelp   = "While paused you can say continue to pick up where we left off, status to hear where we are, or quit to save your progress and exit."
	pauseMenuRetry  = "I didn't understand that. Say continue to resume, quit to exit, or help for options."
	emergencyPrompt = "Emergency mode activated. What do you need help with?"
)

var (
	errListenTimeout = errors.New("listen timeout")
	errPaused        = errors.New("paused while listening")
)

// Conversation is the foreground half of the voice loop: it speaks
// prompts, waits for answers, and runs the pause menu whenever the
// controller is paused.
type Conversation struct {
	tts           TextToSpeech
	utterances    <-chan Utterance
	recognizer    IntentRecognizer
	dispatcher    *Dispatcher
	controller    *Controller
	advisor       Advisor
	transcript    io.Writer
	logger        *slog.Logger
	listenTimeout time.Duration
}

type ConversationConfig struct {
	TTS           TextToSpeech
	Utterances    <-chan Utterance
	Recognizer    IntentRecognizer
	Dispatcher    *Dispatcher
	Controller    *Controller
	Advisor       Advisor
	Transcript    io.Writer
	Logger        *slog.Logger
	ListenTimeout time.Duration
}

func NewConversation(cfg ConversationConfig) *Conversation {
	if cfg.TTS == nil {
		cfg.TTS = SilentTTS{}
	}
	if cfg.Transcript == nil {
		cfg.Transcript = io.Discard
	}
	if cfg.ListenTimeout <= 0 {
		cfg.ListenTimeout = defaultListenTimeout
	}
	return &Conversation{
		tts:           cfg.TTS,
		utterances:    cfg.Utterances,
		recognizer:    cfg.Recognizer,
		dispatcher:    cfg.Dispatcher,
		controller:    cfg.Controller,
		advisor:       cfg.Advisor,
		transcript:    cfg.Transcript,
		logger:        cfg.Logger,
		listenTimeout: cfg.ListenTimeout,
	}
}

// Say speaks text once the session is running.
func (c *Conversation) Say(ctx context.Context, text string) error {
	if err := c.awaitRunning(ctx); err != nil {
		return err
	}
	c.speak(ctx, text)
	return nil
}

// Ask speaks prompt and returns the answer. Recognized commands are
// dispatched instead of returned; navigation commands surface as
// ErrGoBack, ErrSkip or ErrStartOver.
func (c *Conversation) Ask(ctx context.Context, prompt string) (string, error) {
	text := prompt
	for {
		if err := c.awaitRunning(ctx); err != nil {
			return "", err
		}

		c.speak(ctx, text)
		text = prompt

		u, err := c.listen(ctx, true)
		switch {
		case errors.Is(err, errListenTimeout):
			text = repromptPrefix + prompt
			continue
		case errors.Is(err, errPaused):
			continue
		case err != nil:
			return "", err
		}

		result := c.recognizer.Recognize(u.Text, domain.ContextInterview)
		if result.Matched() {
			handled, err := c.dispatcher.Dispatch(ctx, result)
			if err != nil {
				return "", err
			}
			if handled {
				continue
			}
		}

		return u.Text, nil
	}
}

// Confirm asks a yes/no question. Anything but a clear yes within a few
// attempts counts as no.
func (c *Conversation) Confirm(ctx context.Context, question string) (bool, error) {
	if err := c.awaitRunning(ctx); err != nil {
		return false, err
	}
	return c.confirm(ctx, question, true)
}

func (c *Conversation) confirm(ctx context.Context, question string, watchPause bool) (bool, error) {
	prompt := question
	// A pause while waiting does not use up an attempt.
	for attempts := 0; attempts < maxConfirmAttempts; {
		if watchPause {
			if err := c.awaitRunning(ctx); err != nil {
				return false, err
			}
		}

		c.speak(ctx, prompt)

		u, err := c.listen(ctx, watchPause)
		switch {
		case errors.Is(err, errPaused):
			prompt = question
			continue
		case errors.Is(err, errListenTimeout):
			attempts++
			prompt = "I didn't catch that. " + question + " Please say yes or no."
			continue
		case err != nil:
			return false, err
		}

		attempts++
		result := c.recognizer.Recognize(u.Text, domain.ContextConfirm)
		switch result.Command {
		case domain.CommandCancel:
			return false, nil
		case domain.CommandHelp:
			prompt = "Please answer yes or no. " + question
			continue
		}

		if yes, ok := domain.ParseYesNo(u.Text); ok {
			return yes, nil
		}
		prompt = "Please say yes or no. " + question
	}
	return false, nil
}

func (c *Conversation) awaitRunning(ctx context.Context) error {
	for {
		switch c.controller.State() {
		case StateRunning:
			return nil
		case StateStopped:
			return ErrQuit
		}
		if err := c.pauseMenu(ctx); err != nil {
			return err
		}
	}
}

func (c *Conversation) pauseMenu(ctx context.Context) error {
	c.logger.Info("session paused", "reason", c.controller.Reason())

	switch c.controller.Reason() {
	case ReasonQuitRequested:
		quit, err := c.confirm(ctx, "Are you sure you want to quit? Your progress will be saved.", false)
		if err != nil {
			return err
		}
		if quit {
			c.speak(ctx, "Okay. Saving your progress and quitting.")
			c.controller.Quit()
			return ErrQuit
		}
		c.controller.Resume()
		c.speak(ctx, "Okay, let's keep going.")
		return nil
	case ReasonEmergency:
		if err := c.emergency(ctx); err != nil {
			return err
		}
	default:
		c.speak(ctx, pausedPrompt)
	}

	for {
		switch c.controller.State() {
		case StateRunning:
			return nil
		case StateStopped:
			return ErrQuit
		}

		u, err := c.listen(ctx, false)
		if errors.Is(err, errListenTimeout) {
			continue
		}
		if err != nil {
			return err
		}

		result := c.recognizer.Recognize(u.Text, domain.ContextPauseMenu)
		switch result.Command {
		case domain.CommandResume:
			c.controller.Resume()
			c.speak(ctx, "Resuming.")
			return nil
		case domain.CommandQuit:
			c.speak(ctx, "Quitting. Your progress will be saved.")
			c.controller.Quit()
			return ErrQuit
		case domain.CommandHelp:
			c.speak(ctx, pauseMenuHelp)
		case domain.CommandStatus:
			c.speak(ctx, c.StatusText())
		case domain.CommandEmergency:
			if err := c.emergency(ctx); err != nil {
				return err
			}
		default:
			c.speak(ctx, pauseMenuRetry)
		}
	}
}

func (c *Conversation) emergency(ctx context.Context) error {
	c.speak(ctx, emergencyPrompt)

	u, err := c.listen(ctx, false)
	switch {
	case errors.Is(err, errListenTimeout):
		c.speak(ctx, "I didn't hear a question.")
	case err != nil:
		return err
	case c.advisor == nil:
		c.speak(ctx, "I can't answer questions right now. If this is urgent, please call your attorney directly.")
	default:
		answer, err := c.advisor.Answer(ctx, u.Text)
		if err != nil {
			if c.controller.State() == StateStopped {
				return ErrQuit
			}
			c.logger.Warn("emergency answer failed", "error", err)
			c.speak(ctx, "I couldn't get an answer to that. If this is urgent, please call your attorney directly.")
		} else {
			c.speak(ctx, answer)
		}
	}

	c.speak(ctx, "Say continue when you're ready to go on, or quit to exit.")
	return nil
}

// StatusText describes the operation in progress.
func (c *Conversation) StatusText() string {
	if op := c.controller.Operation(); op != "" {
		return fmt.Sprintf("Currently working on: %s.", op)
	}
	return "We're between questions right now."
}

func (c *Conversation) speak(ctx context.Context, text string) {
	fmt.Fprintf(c.transcript, "Assistant: %s\n", text)
	if err := c.tts.Speak(ctx, text); err != nil && ctx.Err() == nil {
		c.logger.Warn("speaking", "error", err)
	}
}

// listen waits for the next utterance. With watchPause set, a pause
// arriving mid-wait returns errPaused so the caller can show the menu.
func (c *Conversation) listen(ctx context.Context, watchPause bool) (Utterance, error) {
	timer := time.NewTimer(c.listenTimeout)
	defer timer.Stop()

	var paused <-chan struct{}
	if watchPause {
		paused = c.controller.Paused()
	}

	select {
	case <-c.controller.Done():
		return Utterance{}, ErrQuit
	case <-ctx.Done():
		if c.controller.State() == StateStopped {
			return Utterance{}, ErrQuit
		}
		return Utterance{}, ctx.Err()
	case <-paused:
		return Utterance{}, errPaused
	case <-timer.C:
		return Utterance{}, errListenTimeout
	case u, ok := <-c.utterances:
		if !ok {
			return Utterance{}, ErrSourceClosed
		}
		fmt.Fprintf(c.transcript, "You: %s\n", u.Text)
		return u, nil
	}
}
