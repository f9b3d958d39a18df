package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docketvoice/internal/application"
	"docketvoice/internal/domain"
	"docketvoice/internal/infra/intent"
)

type assistantFixture struct {
	voice    *scriptedVoice
	writer   *mockWriter
	progress *application.MemoryProgressStore
	notifier *mockNotifier
	observer *recordingObserver
}

func newAssistantFixture(steps ...scriptStep) *assistantFixture {
	return &assistantFixture{
		voice:    newScriptedVoice(steps...),
		writer:   &mockWriter{},
		progress: application.NewMemoryProgressStore(),
		notifier: &mockNotifier{},
		observer: &recordingObserver{},
	}
}

func (f *assistantFixture) run(t *testing.T, extractor application.AnswerExtractor) {
	t.Helper()

	a := application.NewAssistant(application.Components{
		Audio:      f.voice,
		TTS:        f.voice,
		Recognizer: intent.NewRecognizer(),
		Extractor:  extractor,
		Writer:     f.writer,
		Progress:   f.progress,
		Notifier:   f.notifier,
		Observer:   f.observer,
		Logger:     testLogger(),
	}, application.Options{ListenTimeout: 5 * time.Second, SessionKey: "test"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, a.Run(ctx))
	require.NoError(t, ctx.Err(), "session did not finish in time")
}

var fullInterview = []scriptStep{
	{"Chapter 7 or Chapter 13", "Chapter 7"},
	{"full legal name", "Jane Doe"},
	{"date of birth", "January 5th 1980"},
	{"street address", "12 Main Street"},
	{"ZIP code", "nine oh two one oh"},
	{"phone number", "555 123 4567"},
	{"email address", "jane at example dot com"},
	{"marital status", "married"},
	{"dependents", "yes"},
	{"their name", "Sam"},
	{"How old is Sam", "seven"},
	{"relationship to Sam", "son"},
	{"another dependent", "no"},
	{"Where do you currently work", "Acme Corp"},
	{"monthly income", "4000"},
	{"side income", "no"},
	{"asset you own", "car"},
	{"your car worth", "about 5k"},
	{"asset you own", "done"},
	{"creditor", "Visa"},
	{"do you owe Visa", "2000"},
	{"kind of debt", "credit card"},
	{"creditor", "that's all"},
}

func TestAssistant_FullInterview(t *testing.T) {
	f := newAssistantFixture(fullInterview...)
	f.run(t, nil)

	require.Equal(t, 1, f.writer.calls)
	d := f.writer.data
	assert.Equal(t, domain.CaseChapter7, d.CaseType)
	assert.Equal(t, "Jane Doe", d.Name)
	assert.Equal(t, "January 5th 1980", d.DOB)
	assert.Equal(t, "12 Main Street", d.Address)
	assert.Equal(t, "90210", d.ZipCode)
	assert.Equal(t, "(555) 123-4567", d.Phone)
	assert.Equal(t, "jane@example.com", d.Email)
	assert.Equal(t, "married", d.MaritalStatus)
	assert.Equal(t, "Acme Corp", d.Employer)
	assert.Empty(t, d.Skipped)
	assert.NotNil(t, d.CompletedAt)

	require.Len(t, d.Dependents, 1)
	assert.Equal(t, "Sam", d.Dependents[0].Name)
	assert.Equal(t, "son", d.Dependents[0].Relationship)
	require.NotNil(t, d.Dependents[0].AgeYears)
	assert.Equal(t, 7, *d.Dependents[0].AgeYears)

	require.NotNil(t, d.MonthlyIncome)
	assert.Equal(t, 4000.0, *d.MonthlyIncome)
	assert.Equal(t, "4000", d.GrossIncomeLast6M)

	require.Len(t, d.Assets, 1)
	assert.Equal(t, "car", d.Assets[0].Item)
	require.NotNil(t, d.Assets[0].Amount)
	assert.Equal(t, 5000.0, *d.Assets[0].Amount)

	require.Len(t, d.Liabilities, 1)
	assert.Equal(t, "Visa", d.Liabilities[0].Creditor)
	assert.Equal(t, "credit card", d.Liabilities[0].Type)
	require.NotNil(t, d.Liabilities[0].Balance)
	assert.Equal(t, 2000.0, *d.Liabilities[0].Balance)

	require.Len(t, f.notifier.messages, 1)
	assert.Contains(t, f.notifier.messages[0], "Jane Doe")
	assert.True(t, f.voice.Said("Thanks, Jane!"))
	assert.True(t, f.voice.Said("I've saved your bankruptcy petition data"))

	snap, err := f.progress.Load(context.Background(), "test")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestAssistant_NavigationCommands(t *testing.T) {
	f := newAssistantFixture(
		scriptStep{"Chapter 7 or Chapter 13", "chapter 13"},
		scriptStep{"full legal name", "go back"},
		scriptStep{"going back", "chapter 7 please"},
		scriptStep{"full legal name", "Jane Doe"},
		scriptStep{"date of birth", "skip"},
		scriptStep{"skipping that one", "help"},
		scriptStep{"You can say go back", "what do you have so far"},
		scriptStep{"Case type", "12 Main Street"},
		scriptStep{"ZIP code", "quit"},
		scriptStep{"Are you sure you want to quit", "yes"},
	)
	f.run(t, nil)

	assert.Zero(t, f.writer.calls)

	snap, err := f.progress.Load(context.Background(), "test")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 4, snap.Step)
	assert.Equal(t, domain.CaseChapter7, snap.Data.CaseType)
	assert.Equal(t, "Jane Doe", snap.Data.Name)
	assert.Equal(t, "12 Main Street", snap.Data.Address)
	assert.Equal(t, []string{"dob"}, snap.Data.Skipped)

	assert.True(t, f.voice.Said("Case type: Chapter 7. Name: Jane Doe."))
	assert.Contains(t, f.observer.commands, commandCount{domain.CommandGoBack, "navigate"})
	assert.Contains(t, f.observer.commands, commandCount{domain.CommandSkip, "navigate"})
	assert.Contains(t, f.observer.commands, commandCount{domain.CommandQuit, "ok"})
}

func TestAssistant_PauseAndCancel(t *testing.T) {
	f := newAssistantFixture(
		scriptStep{"Chapter 7 or Chapter 13", "Chapter 13"},
		scriptStep{"full legal name", "hold on"},
		scriptStep{"Application paused", "where are we"},
		scriptStep{"Currently working on", "continue"},
		scriptStep{"Resuming", "never mind"},
		scriptStep{"try that again", "Jane Doe"},
		scriptStep{"date of birth", "start over"},
		scriptStep{"start over from the beginning", "no"},
		scriptStep{"keep going from here", "exit"},
		scriptStep{"Are you sure you want to quit", "yes"},
	)
	f.run(t, nil)

	assert.True(t, f.voice.Said("Currently working on: your full name."))

	snap, err := f.progress.Load(context.Background(), "test")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 2, snap.Step)
	assert.Equal(t, domain.CaseChapter13, snap.Data.CaseType)
	assert.Equal(t, "Jane Doe", snap.Data.Name)
}

func TestAssistant_ResumesSavedProgress(t *testing.T) {
	f := newAssistantFixture(
		scriptStep{"pick up where you left off", "yes"},
		scriptStep{"creditor", "done"},
	)

	saved := domain.NewPetitionData()
	saved.CaseType = domain.CaseChapter7
	saved.Name = "Jane Doe"
	require.NoError(t, f.progress.Save(context.Background(), domain.Snapshot{
		SessionKey: "test",
		Step:       12,
		Data:       saved,
		SavedAt:    time.Now(),
	}))

	f.run(t, nil)

	require.Equal(t, 1, f.writer.calls)
	assert.Equal(t, saved.SessionID, f.writer.data.SessionID)
	assert.Equal(t, "Jane Doe", f.writer.data.Name)
	assert.Empty(t, f.writer.data.Liabilities)
	assert.False(t, f.voice.Said("full legal name"))

	snap, err := f.progress.Load(context.Background(), "test")
	require.NoError(t, err)
	assert.Nil(t, snap, "progress is cleared once the petition is written")
}

func TestAssistant_DeclineResumeStartsFresh(t *testing.T) {
	f := newAssistantFixture(
		scriptStep{"pick up where you left off", "no"},
		scriptStep{"Chapter 7 or Chapter 13", "Chapter 7"},
	)

	saved := domain.NewPetitionData()
	saved.Name = "Old Name"
	require.NoError(t, f.progress.Save(context.Background(), domain.Snapshot{
		SessionKey: "test", Step: 5, Data: saved, SavedAt: time.Now(),
	}))

	f.run(t, nil)

	assert.True(t, f.voice.Said("we'll start fresh"))

	snap, err := f.progress.Load(context.Background(), "test")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.Step)
	assert.Empty(t, snap.Data.Name)
	assert.NotEqual(t, saved.SessionID, snap.Data.SessionID)
}

func TestAssistant_SourceClosedSavesProgress(t *testing.T) {
	f := newAssistantFixture(
		scriptStep{"Chapter 7 or Chapter 13", "Chapter 7"},
		scriptStep{"full legal name", "Jane Doe"},
	)
	f.run(t, nil)

	snap, err := f.progress.Load(context.Background(), "test")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 2, snap.Step)
	assert.Zero(t, f.writer.calls)
}

func TestAssistant_ExtractorFallback(t *testing.T) {
	f := newAssistantFixture(
		scriptStep{"Chapter 7 or Chapter 13", "the one where they wipe out my debts"},
		scriptStep{"full legal name", "Jane Doe"},
	)
	extractor := &mockExtractor{values: map[string]string{
		"the one where they wipe out my debts": "Chapter 7",
	}}
	f.run(t, extractor)

	require.Len(t, extractor.asked, 1)
	assert.Equal(t, "case_type", extractor.asked[0].Field)

	snap, err := f.progress.Load(context.Background(), "test")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, domain.CaseChapter7, snap.Data.CaseType)
}

func TestAssistant_HandleInterrupt(t *testing.T) {
	a := application.NewAssistant(application.Components{
		Audio:      blockingSource{},
		Recognizer: intent.NewRecognizer(),
		Writer:     &mockWriter{},
		Logger:     testLogger(),
	}, application.Options{})

	assert.Equal(t, application.InterruptPaused, a.HandleInterrupt())
	assert.Equal(t, application.InterruptForceQuit, a.HandleInterrupt())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Run(ctx), "a quit session ends cleanly")
	require.NoError(t, ctx.Err())
}
