package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docketvoice/internal/domain"
)

type interviewStep struct {
	key   string
	title string
	run   func(*Interviewer, context.Context) error
}

// interviewSteps is the fixed question order. go back and skip move one
// step at a time; list questions (dependents, assets, debts) are a
// single step each and commit their list only when finished.
var interviewSteps = []interviewStep{
	{"case_type", "choosing Chapter 7 or Chapter 13", (*Interviewer).askCaseType},
	{"name", "your full name", (*Interviewer).askName},
	{"dob", "your date of birth", (*Interviewer).askDOB},
	{"address", "your street address", (*Interviewer).askAddress},
	{"zip_code", "your ZIP code", (*Interviewer).askZip},
	{"phone", "your phone number", (*Interviewer).askPhone},
	{"email", "your email address", (*Interviewer).askEmail},
	{"marital_status", "your marital status", (*Interviewer).askMaritalStatus},
	{"dependents", "your dependents", (*Interviewer).askDependents},
	{"employer", "your employment", (*Interviewer).askEmployer},
	{"income", "your income", (*Interviewer).askIncome},
	{"assets", "your assets", (*Interviewer).askAssets},
	{"liabilities", "your debts", (*Interviewer).askLiabilities},
}

// Interviewer walks the petition questions and records the answers.
type Interviewer struct {
	conv       *Conversation
	controller *Controller
	extractor  AnswerExtractor
	logger     *slog.Logger

	mu   sync.Mutex
	data *domain.PetitionData
	step int
}

func NewInterviewer(conv *Conversation, controller *Controller, extractor AnswerExtractor, logger *slog.Logger) *Interviewer {
	return &Interviewer{
		conv:       conv,
		controller: controller,
		extractor:  extractor,
		logger:     logger,
		data:       domain.NewPetitionData(),
	}
}

// Run asks every remaining question and returns the collected data.
func (iv *Interviewer) Run(ctx context.Context) (*domain.PetitionData, error) {
	for {
		i := iv.Step()
		if i >= len(interviewSteps) {
			return iv.Data(), nil
		}
		st := interviewSteps[i]

		opCtx, end := iv.controller.BeginOperation(ctx, st.title)
		err := st.run(iv, opCtx)
		end()

		if err == nil {
			iv.setStep(i + 1)
			continue
		}

		if iv.controller.State() == StateStopped || errors.Is(err, ErrQuit) {
			return nil, ErrQuit
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		switch {
		case errors.Is(err, ErrGoBack):
			if i == 0 {
				err = iv.conv.Say(ctx, "We're already at the first question.")
			} else {
				iv.setStep(i - 1)
				err = iv.conv.Say(ctx, "Okay, going back.")
			}
		case errors.Is(err, ErrSkip):
			iv.mu.Lock()
			iv.data.MarkSkipped(st.key)
			iv.mu.Unlock()
			iv.setStep(i + 1)
			err = iv.conv.Say(ctx, "Okay, skipping that one. We can come back to it with your attorney.")
		case errors.Is(err, ErrStartOver):
			err = iv.startOver(ctx)
		case errors.Is(err, context.Canceled):
			err = iv.conv.Say(ctx, "Cancelling current operation. Let's try that again.")
		default:
			return nil, fmt.Errorf("interview step %s: %w", st.key, err)
		}

		if err != nil {
			if errors.Is(err, ErrQuit) {
				return nil, ErrQuit
			}
			return nil, err
		}
	}
}

func (iv *Interviewer) startOver(ctx context.Context) error {
	ok, err := iv.conv.Confirm(ctx, "Do you want to start over from the beginning? Everything you've told me will be cleared.")
	if err != nil {
		return err
	}
	if !ok {
		return iv.conv.Say(ctx, "Okay, we'll keep going from here.")
	}
	iv.Reset()
	return iv.conv.Say(ctx, "Starting over.")
}

func (iv *Interviewer) Step() int {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	return iv.step
}

func (iv *Interviewer) setStep(i int) {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.step = i
}

// Data returns a copy of the answers collected so far.
func (iv *Interviewer) Data() *domain.PetitionData {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	return iv.data.Clone()
}

func (iv *Interviewer) Reset() {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.data.Reset()
	iv.step = 0
}

func (iv *Interviewer) Snapshot(key string) domain.Snapshot {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	return domain.Snapshot{
		ID:         uuid.NewString(),
		SessionKey: key,
		Step:       iv.step,
		Data:       iv.data.Clone(),
		SavedAt:    time.Now().UTC(),
	}
}

func (iv *Interviewer) Restore(snap domain.Snapshot) {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	if snap.Data != nil {
		iv.data = snap.Data.Clone()
	}
	iv.step = min(max(snap.Step, 0), len(interviewSteps))
}

func (iv *Interviewer) update(fn func(d *domain.PetitionData)) {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	fn(iv.data)
}

func (iv *Interviewer) askCaseType(ctx context.Context) error {
	prompt := "Okay, first things first: are you filing for Chapter 7 or Chapter 13 bankruptcy?"
	for {
		ans, err := iv.conv.Ask(ctx, prompt)
		if err != nil {
			return err
		}

		ct, ok := domain.ParseChapter(ans)
		if !ok {
			v, found, err := iv.extract(ctx, Extraction{
				Field:    "case_type",
				Question: prompt,
				Answer:   ans,
				Options:  []string{string(domain.CaseChapter7), string(domain.CaseChapter13)},
			})
			if err != nil {
				return err
			}
			if found {
				ct, ok = domain.ParseChapter(v)
			}
		}

		if ok {
			iv.update(func(d *domain.PetitionData) { d.CaseType = ct })
			return iv.conv.Say(ctx, fmt.Sprintf("Got it, %s.", ct))
		}
		prompt = "Sorry, I didn't catch that. Please say 'Chapter 7' or 'Chapter 13'."
	}
}

func (iv *Interviewer) askName(ctx context.Context) error {
	name, err := iv.askText(ctx,
		"Great. Let's start with your full legal name.",
		"Sorry, I didn't catch that. Could you tell me your full name?")
	if err != nil {
		return err
	}
	iv.update(func(d *domain.PetitionData) { d.Name = name })
	return nil
}

func (iv *Interviewer) askDOB(ctx context.Context) error {
	dob, err := iv.askText(ctx,
		"Could you give me your date of birth?",
		"Sorry, what is your date of birth? Month, day, and year.")
	if err != nil {
		return err
	}
	iv.update(func(d *domain.PetitionData) { d.DOB = dob })
	return nil
}

func (iv *Interviewer) askAddress(ctx context.Context) error {
	addr, err := iv.askText(ctx,
		"What's your current street address?",
		"Sorry, could you say your street address again?")
	if err != nil {
		return err
	}
	iv.update(func(d *domain.PetitionData) { d.Address = addr })
	return nil
}

func (iv *Interviewer) askZip(ctx context.Context) error {
	zip, err := iv.askValid(ctx,
		"And your ZIP code?",
		"Please say a 5-digit ZIP code.",
		domain.NormalizeZip)
	if err != nil {
		return err
	}
	iv.update(func(d *domain.PetitionData) { d.ZipCode = zip })
	return nil
}

func (iv *Interviewer) askPhone(ctx context.Context) error {
	prompt := "What's the best phone number to reach you?"
	for {
		ans, err := iv.conv.Ask(ctx, prompt)
		if err != nil {
			return err
		}
		if domain.IsSkipWord(ans) {
			iv.update(func(d *domain.PetitionData) { d.MarkSkipped("phone") })
			return nil
		}
		if phone, ok := domain.NormalizePhone(ans); ok {
			iv.update(func(d *domain.PetitionData) { d.Phone = phone })
			return nil
		}
		prompt = "Please give me a 10-digit phone number, including the area code."
	}
}

func (iv *Interviewer) askEmail(ctx context.Context) error {
	prompt := "And your email address? You can say none if you don't have one."
	for {
		ans, err := iv.conv.Ask(ctx, prompt)
		if err != nil {
			return err
		}
		if domain.IsSkipWord(ans) {
			break
		}
		if email, ok := domain.NormalizeEmail(ans); ok {
			iv.update(func(d *domain.PetitionData) { d.Email = email })
			break
		}
		prompt = "That didn't sound like an email address. Try saying it like jane at example dot com, or say none."
	}

	name := iv.Data().Name
	if first := strings.Fields(name); len(first) > 0 {
		return iv.conv.Say(ctx, fmt.Sprintf("Great. Thanks, %s! We'll use this info throughout your forms.", first[0]))
	}
	return iv.conv.Say(ctx, "Great, thanks! We'll use this info throughout your forms.")
}

func (iv *Interviewer) askMaritalStatus(ctx context.Context) error {
	if err := iv.conv.Say(ctx, "Okay, shifting gears a little."); err != nil {
		return err
	}

	prompt := "What is your current marital status? Single, married, divorced, separated, or widowed?"
	ans, err := iv.askText(ctx, prompt, "Sorry, what is your marital status?")
	if err != nil {
		return err
	}

	status, ok := domain.ParseMaritalStatus(ans)
	if !ok {
		v, found, err := iv.extract(ctx, Extraction{
			Field:    "marital_status",
			Question: prompt,
			Answer:   ans,
			Options:  []string{"single", "married", "divorced", "separated", "widowed"},
		})
		if err != nil {
			return err
		}
		if found {
			status, ok = domain.ParseMaritalStatus(v)
		}
	}

	value := ans
	if ok {
		value = string(status)
	}
	iv.update(func(d *domain.PetitionData) { d.MaritalStatus = value })
	return nil
}

func (iv *Interviewer) askDependents(ctx context.Context) error {
	has, err := iv.askYesNo(ctx, "And do you have any dependents, like kids or anyone you support financially?")
	if err != nil {
		return err
	}

	deps := []domain.Dependent{}
	for has {
		name, err := iv.askText(ctx, "What's their name?", "Sorry, what is the dependent's name?")
		if err != nil {
			return err
		}
		age, err := iv.askText(ctx, fmt.Sprintf("How old is %s?", name), "Sorry, how old are they?")
		if err != nil {
			return err
		}
		rel, err := iv.askText(ctx, fmt.Sprintf("And what's your relationship to %s?", name), "Sorry, what is your relationship to them?")
		if err != nil {
			return err
		}

		dep := domain.Dependent{Name: name, Age: age, Relationship: rel}
		if n, ok := domain.ParseInt(age); ok {
			dep.AgeYears = &n
		}
		deps = append(deps, dep)

		has, err = iv.askYesNo(ctx, "Do you have another dependent to add?")
		if err != nil {
			return err
		}
	}

	iv.update(func(d *domain.PetitionData) { d.Dependents = deps })
	if len(deps) > 0 {
		return iv.conv.Say(ctx, "Thanks for letting me know.")
	}
	return nil
}

func (iv *Interviewer) askEmployer(ctx context.Context) error {
	if err := iv.conv.Say(ctx, "Now, let's talk about work."); err != nil {
		return err
	}
	employer, err := iv.askText(ctx,
		"Where do you currently work? If you're not working right now, just say so.",
		"Sorry, where do you work?")
	if err != nil {
		return err
	}
	iv.update(func(d *domain.PetitionData) { d.Employer = employer })
	return nil
}

func (iv *Interviewer) askIncome(ctx context.Context) error {
	prompt := "What's your monthly income before taxes, roughly?"
	income, err := iv.askText(ctx, prompt, "Sorry, about how much do you make per month?")
	if err != nil {
		return err
	}
	monthly, err := iv.amount(ctx, prompt, income)
	if err != nil {
		return err
	}

	side := ""
	hasSide, err := iv.askYesNo(ctx, "Do you have any side income, like gig work or odd jobs?")
	if err != nil {
		return err
	}
	if hasSide {
		side, err = iv.askText(ctx,
			"What kind of side income, and about how much per month?",
			"Sorry, what is the side income?")
		if err != nil {
			return err
		}
	}

	gross := income
	if side != "" {
		gross = income + " + " + side
	}
	iv.update(func(d *domain.PetitionData) {
		d.GrossIncomeLast6M = gross
		d.MonthlyIncome = monthly
		d.SideIncome = side
	})

	if employed(iv.Data().Employer) {
		return iv.conv.Say(ctx, "Steady work. Thanks.")
	}
	return iv.conv.Say(ctx, "Okay, thanks for being straight with me.")
}

func (iv *Interviewer) askAssets(ctx context.Context) error {
	if err := iv.conv.Say(ctx, "Let's do a quick walk-through of your assets. Think car, house, savings, or valuables."); err != nil {
		return err
	}

	assets := []domain.Asset{}
	for {
		item, err := iv.askText(ctx,
			"What's one asset you own? Say done when you've listed everything.",
			"Sorry, what is the asset? Or say done.")
		if err != nil {
			return err
		}
		if domain.IsListDone(item) {
			break
		}

		prompt := fmt.Sprintf("Roughly what is your %s worth?", item)
		value, err := iv.askText(ctx, prompt, "Sorry, about how much is it worth?")
		if err != nil {
			return err
		}
		amount, err := iv.amount(ctx, prompt, value)
		if err != nil {
			return err
		}
		assets = append(assets, domain.Asset{Item: item, Value: value, Amount: amount})
	}

	iv.update(func(d *domain.PetitionData) { d.Assets = assets })
	return nil
}

func (iv *Interviewer) askLiabilities(ctx context.Context) error {
	if err := iv.conv.Say(ctx, "Now let's go over your debts: credit cards, medical bills, loans, anything you owe."); err != nil {
		return err
	}

	debts := []domain.Debt{}
	for {
		creditor, err := iv.askText(ctx,
			"Who is one creditor you owe money to? Say done when you're finished.",
			"Sorry, who do you owe? Or say done.")
		if err != nil {
			return err
		}
		if domain.IsListDone(creditor) {
			break
		}

		prompt := fmt.Sprintf("About how much do you owe %s?", creditor)
		owed, err := iv.askText(ctx, prompt, "Sorry, about how much do you owe?")
		if err != nil {
			return err
		}
		balance, err := iv.amount(ctx, prompt, owed)
		if err != nil {
			return err
		}
		kind, err := iv.askText(ctx,
			"What kind of debt is that? For example credit card, medical, car loan, or student loan.",
			"Sorry, what kind of debt is it?")
		if err != nil {
			return err
		}
		debts = append(debts, domain.Debt{Creditor: creditor, Amount: owed, Balance: balance, Type: kind})
	}

	iv.update(func(d *domain.PetitionData) { d.Liabilities = debts })
	return nil
}

func (iv *Interviewer) askText(ctx context.Context, prompt, retry string) (string, error) {
	return iv.askValid(ctx, prompt, retry, func(s string) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	})
}

func (iv *Interviewer) askValid(ctx context.Context, prompt, retry string, valid func(string) (string, bool)) (string, error) {
	for {
		ans, err := iv.conv.Ask(ctx, prompt)
		if err != nil {
			return "", err
		}
		if v, ok := valid(ans); ok {
			return v, nil
		}
		prompt = retry
	}
}

func (iv *Interviewer) askYesNo(ctx context.Context, question string) (bool, error) {
	prompt := question
	for {
		ans, err := iv.conv.Ask(ctx, prompt)
		if err != nil {
			return false, err
		}
		if yes, ok := domain.ParseYesNo(ans); ok {
			return yes, nil
		}

		v, found, err := iv.extract(ctx, Extraction{
			Field:    "yes_no",
			Question: question,
			Answer:   ans,
			Options:  []string{"yes", "no"},
		})
		if err != nil {
			return false, err
		}
		if found {
			if yes, ok := domain.ParseYesNo(v); ok {
				return yes, nil
			}
		}
		prompt = "Please answer yes or no. " + question
	}
}

// amount parses a spoken dollar figure. Unparseable answers are kept as
// text only, so nil is a normal result.
func (iv *Interviewer) amount(ctx context.Context, question, answer string) (*float64, error) {
	if v, ok := domain.ParseAmount(answer); ok {
		return &v, nil
	}
	v, found, err := iv.extract(ctx, Extraction{Field: "amount", Question: question, Answer: answer})
	if err != nil || !found {
		return nil, err
	}
	if n, ok := domain.ParseAmount(v); ok {
		return &n, nil
	}
	return nil, nil
}

// extract asks the model for a field value. Model failures are logged
// and treated as not found; only cancellation is returned.
func (iv *Interviewer) extract(ctx context.Context, e Extraction) (string, bool, error) {
	if iv.extractor == nil {
		return "", false, nil
	}
	v, ok, err := iv.extractor.Extract(ctx, e)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		iv.logger.Warn("answer extraction failed", "field", e.Field, "error", err)
		return "", false, nil
	}
	return v, ok, nil
}

func employed(employer string) bool {
	c := domain.CleanText(employer)
	if c == "" || domain.IsSkipWord(c) {
		return false
	}
	for _, w := range []string{"not working", "unemployed", "no job", "don't work", "laid off", "between jobs"} {
		if strings.Contains(c, w) {
			return false
		}
	}
	if yes, ok := domain.ParseYesNo(c); ok && !yes {
		return false
	}
	return true
}
