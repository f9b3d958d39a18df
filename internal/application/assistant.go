package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"docketvoice/internal/domain"
)

const welcomeText = "Hi! I'm your bankruptcy intake assistant. I'll ask you some questions to prepare your petition data. " +
	"Say help at any time to hear what you can say, or pause to take a break."

const voiceHelpText = "You can say go back, skip, repeat, or start over to move around the questions. " +
	"Say save to save your progress, review to hear your answers, or status to hear where we are. " +
	"Say pause or stop to take a break, cancel to redo the current question, and quit to exit."

const (
	defaultSessionKey   = "default"
	progressSaveTimeout = 5 * time.Second
)

// Components are the ports the assistant is assembled from. Nil optional
// fields get no-op implementations.
type Components struct {
	Audio      AudioSource
	STT        SpeechToText
	TTS        TextToSpeech
	Recognizer IntentRecognizer
	Extractor  AnswerExtractor
	Advisor    Advisor
	Writer     PetitionWriter
	Progress   ProgressStore
	Notifier   Notifier
	Observer   Observer
	Transcript io.Writer
	Logger     *slog.Logger
}

type Options struct {
	ListenTimeout time.Duration
	SessionKey    string
}

type Assistant struct {
	audio       AudioSource
	controller  *Controller
	dispatcher  *Dispatcher
	listener    *Listener
	conv        *Conversation
	interviewer *Interviewer
	writer      PetitionWriter
	progress    ProgressStore
	notifier    Notifier
	logger      *slog.Logger
	sessionKey  string
}

func NewAssistant(c Components, opts Options) *Assistant {
	if c.STT == nil {
		c.STT = &NoopSTT{}
	}
	if c.Observer == nil {
		c.Observer = NoopObserver{}
	}
	if c.Notifier == nil {
		c.Notifier = &NoopNotifier{}
	}
	if c.Progress == nil {
		c.Progress = NewMemoryProgressStore()
	}
	if opts.SessionKey == "" {
		opts.SessionKey = defaultSessionKey
	}

	controller := NewController()
	dispatcher := NewDispatcher(c.Observer, c.Logger)
	listener := NewListener(c.Audio, c.STT, c.Recognizer, dispatcher, controller, c.Observer, c.Logger)
	conv := NewConversation(ConversationConfig{
		TTS:           c.TTS,
		Utterances:    listener.Utterances(),
		Recognizer:    c.Recognizer,
		Dispatcher:    dispatcher,
		Controller:    controller,
		Advisor:       c.Advisor,
		Transcript:    c.Transcript,
		Logger:        c.Logger,
		ListenTimeout: opts.ListenTimeout,
	})

	a := &Assistant{
		audio:       c.Audio,
		controller:  controller,
		dispatcher:  dispatcher,
		listener:    listener,
		conv:        conv,
		interviewer: NewInterviewer(conv, controller, c.Extractor, c.Logger),
		writer:      c.Writer,
		progress:    c.Progress,
		notifier:    c.Notifier,
		logger:      c.Logger,
		sessionKey:  opts.SessionKey,
	}
	a.registerCommands()
	return a
}

// HandleInterrupt routes a keyboard interrupt (Ctrl+C) to the controller.
func (a *Assistant) HandleInterrupt() InterruptOutcome {
	outcome := a.controller.Interrupt()
	switch outcome {
	case InterruptPaused:
		a.logger.Info("keyboard interrupt: paused, press Ctrl+C again to quit")
	case InterruptForceQuit:
		a.logger.Info("keyboard interrupt: quitting")
	}
	return outcome
}

// Run listens in the background while the interview runs in the
// foreground. It returns nil when the interview finishes or the user quits.
func (a *Assistant) Run(ctx context.Context) error {
	a.logger.Info("starting audio source", "source", a.audio.Name())
	if err := a.audio.Start(ctx); err != nil {
		return fmt.Errorf("starting audio: %w", err)
	}
	defer a.audio.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := a.listener.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		defer cancel()
		return a.session(gctx)
	})
	return g.Wait()
}

func (a *Assistant) session(ctx context.Context) error {
	if err := a.conv.Say(ctx, welcomeText); err != nil {
		return a.endEarly(err)
	}
	if err := a.offerResume(ctx); err != nil {
		return a.endEarly(err)
	}

	data, err := a.interviewer.Run(ctx)
	if err != nil {
		return a.endEarly(err)
	}

	data.Complete(time.Now())
	path, err := a.writer.Write(ctx, data)
	if err != nil {
		return fmt.Errorf("writing petition data: %w", err)
	}
	a.logger.Info("petition data saved", "path", path, "session_id", data.SessionID)

	if err := a.progress.Delete(ctx, a.sessionKey); err != nil {
		a.logger.Warn("clearing saved progress", "error", err)
	}

	msg := fmt.Sprintf("Intake complete for %s (%s): %d assets, %d debts. Saved to %s",
		orNotYet(data.Name), orNotYet(string(data.CaseType)), len(data.Assets), len(data.Liabilities), path)
	if err := a.notifier.Notify(ctx, msg); err != nil {
		a.logger.Error("notifying completion", "error", err)
	}

	for _, line := range []string{
		"Perfect! I've saved your bankruptcy petition data.",
		"Thanks for hanging in with me. You did great. Your attorney will review everything before anything is filed.",
	} {
		if err := a.conv.Say(ctx, line); err != nil {
			break
		}
	}
	return nil
}

func (a *Assistant) offerResume(ctx context.Context) error {
	snap, err := a.progress.Load(ctx, a.sessionKey)
	if err != nil {
		a.logger.Warn("loading saved progress", "error", err)
		return nil
	}
	if snap == nil || snap.Step == 0 {
		return nil
	}

	question := fmt.Sprintf("I found saved progress from %s. Would you like to pick up where you left off?",
		snap.SavedAt.Local().Format("January 2 at 3:04 PM"))
	resume, err := a.conv.Confirm(ctx, question)
	if err != nil {
		return err
	}
	if !resume {
		if err := a.progress.Delete(ctx, a.sessionKey); err != nil {
			a.logger.Warn("clearing saved progress", "error", err)
		}
		return a.conv.Say(ctx, "Okay, we'll start fresh.")
	}

	a.interviewer.Restore(*snap)
	a.logger.Info("resumed saved progress", "snapshot_id", snap.ID, "step", snap.Step)
	return a.conv.Say(ctx, "Great, picking up where we left off.")
}

// endEarly saves progress when the session stops before the interview
// finishes. Quitting and a closed input are normal endings.
func (a *Assistant) endEarly(err error) error {
	saveCtx, cancel := context.WithTimeout(context.Background(), progressSaveTimeout)
	defer cancel()

	if saveErr := a.saveProgress(saveCtx); saveErr != nil {
		a.logger.Error("saving progress", "error", saveErr)
	}

	if errors.Is(err, ErrQuit) || errors.Is(err, ErrSourceClosed) {
		a.logger.Info("session ended before the interview finished", "reason", err)
		return nil
	}
	return err
}

func (a *Assistant) saveProgress(ctx context.Context) error {
	snap := a.interviewer.Snapshot(a.sessionKey)
	if snap.Step == 0 {
		return nil
	}
	if err := a.progress.Save(ctx, snap); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	a.logger.Info("progress saved", "snapshot_id", snap.ID, "step", snap.Step)
	return nil
}

func (a *Assistant) registerCommands() {
	d := a.dispatcher

	d.Register(domain.CommandHelp, a.say(voiceHelpText))
	d.Register(domain.CommandRepeat, func(context.Context, domain.IntentResult) error { return nil })
	d.Register(domain.CommandGoBack, navigate(ErrGoBack))
	d.Register(domain.CommandSkip, navigate(ErrSkip))
	d.Register(domain.CommandStartOver, navigate(ErrStartOver))
	d.Register(domain.CommandResume, a.say("We're not paused. Let's keep going."))
	d.Register(domain.CommandStatus, func(ctx context.Context, _ domain.IntentResult) error {
		return a.conv.Say(ctx, a.conv.StatusText())
	})
	d.Register(domain.CommandSave, func(ctx context.Context, _ domain.IntentResult) error {
		if err := a.saveProgress(ctx); err != nil {
			a.logger.Error("saving progress", "error", err)
			return a.conv.Say(ctx, "Sorry, I couldn't save your progress.")
		}
		return a.conv.Say(ctx, "Progress saved.")
	})

	for _, section := range []domain.Command{
		domain.CommandReview,
		domain.CommandPersonalInfo,
		domain.CommandIncomeInfo,
		domain.CommandExpenseInfo,
		domain.CommandAssetInfo,
		domain.CommandDebtInfo,
	} {
		d.Register(section, func(ctx context.Context, _ domain.IntentResult) error {
			return a.conv.Say(ctx, Summary(a.interviewer.Data(), section))
		})
	}

	d.Register(domain.CommandMeansTest, a.say("The means test isn't calculated by this assistant. Your attorney will run it from the income information we collect."))
	d.Register(domain.CommandAnalyzeDocuments, a.say("I can't review documents by voice. Please bring your pay stubs, tax returns, and bills to your attorney."))
	d.Register(domain.CommandGeneratePetition, a.say("Your answers are saved as petition data when we finish. Your attorney prepares the actual forms from them."))

	interrupts := map[domain.Command]CommandHandler{
		domain.CommandPause:     a.pause(ReasonVoice),
		domain.CommandQuit:      a.pause(ReasonQuitRequested),
		domain.CommandEmergency: a.pause(ReasonEmergency),
		domain.CommandCancel: func(context.Context, domain.IntentResult) error {
			if !a.controller.CancelOperation() {
				a.logger.Info("nothing to cancel")
			}
			return nil
		},
	}
	for cmd, h := range interrupts {
		d.RegisterInterrupt(cmd, h)
		d.Register(cmd, h)
	}
}

func (a *Assistant) say(text string) CommandHandler {
	return func(ctx context.Context, _ domain.IntentResult) error {
		return a.conv.Say(ctx, text)
	}
}

func (a *Assistant) pause(reason PauseReason) CommandHandler {
	return func(context.Context, domain.IntentResult) error {
		a.controller.Pause(reason)
		return nil
	}
}

func navigate(err error) CommandHandler {
	return func(context.Context, domain.IntentResult) error {
		return err
	}
}
