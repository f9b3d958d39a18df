package intent

import "docketvoice/internal/domain"

// phrases maps every recognized utterance to its command. Lookups run
// on normalized text, so entries are lowercase with no punctuation.
var phrases = map[string]domain.Command{
	"help":                domain.CommandHelp,
	"help me":             domain.CommandHelp,
	"what can i say":      domain.CommandHelp,
	"show commands":       domain.CommandHelp,
	"voice commands":      domain.CommandHelp,
	"what are my options": domain.CommandHelp,

	"pause":            domain.CommandPause,
	"stop":             domain.CommandPause,
	"hold on":          domain.CommandPause,
	"wait":             domain.CommandPause,
	"take a break":     domain.CommandPause,
	"give me a minute": domain.CommandPause,

	"resume":     domain.CommandResume,
	"continue":   domain.CommandResume,
	"keep going": domain.CommandResume,
	"go on":      domain.CommandResume,
	"i'm back":   domain.CommandResume,
	"unpause":    domain.CommandResume,

	"quit":          domain.CommandQuit,
	"exit":          domain.CommandQuit,
	"goodbye":       domain.CommandQuit,
	"end session":   domain.CommandQuit,
	"close the app": domain.CommandQuit,

	"go back":           domain.CommandGoBack,
	"back":              domain.CommandGoBack,
	"previous question": domain.CommandGoBack,

	"skip":          domain.CommandSkip,
	"skip this":     domain.CommandSkip,
	"skip question": domain.CommandSkip,
	"next question": domain.CommandSkip,

	"repeat":              domain.CommandRepeat,
	"say that again":      domain.CommandRepeat,
	"repeat the question": domain.CommandRepeat,
	"come again":          domain.CommandRepeat,

	"start over":         domain.CommandStartOver,
	"restart":            domain.CommandStartOver,
	"begin again":        domain.CommandStartOver,
	"from the beginning": domain.CommandStartOver,

	"save":             domain.CommandSave,
	"save progress":    domain.CommandSave,
	"save my progress": domain.CommandSave,

	"review":                  domain.CommandReview,
	"review my answers":       domain.CommandReview,
	"what do you have so far": domain.CommandReview,
	"read it back":            domain.CommandReview,

	"analyze documents":    domain.CommandAnalyzeDocuments,
	"analyze my documents": domain.CommandAnalyzeDocuments,

	"means test":         domain.CommandMeansTest,
	"run the means test": domain.CommandMeansTest,
	"am i eligible":      domain.CommandMeansTest,

	"generate petition":   domain.CommandGeneratePetition,
	"create the petition": domain.CommandGeneratePetition,
	"generate forms":      domain.CommandGeneratePetition,

	"personal info":        domain.CommandPersonalInfo,
	"personal information": domain.CommandPersonalInfo,
	"income info":          domain.CommandIncomeInfo,
	"income information":   domain.CommandIncomeInfo,
	"expense info":         domain.CommandExpenseInfo,
	"expenses":             domain.CommandExpenseInfo,
	"asset info":           domain.CommandAssetInfo,
	"asset information":    domain.CommandAssetInfo,
	"debt info":            domain.CommandDebtInfo,
	"debt information":     domain.CommandDebtInfo,

	"status":       domain.CommandStatus,
	"where are we": domain.CommandStatus,

	"emergency":       domain.CommandEmergency,
	"i need help now": domain.CommandEmergency,

	"cancel":     domain.CommandCancel,
	"never mind": domain.CommandCancel,
	"nevermind":  domain.CommandCancel,
}

// pauseMenuKeywords are matched by token while the session is paused,
// where any mention of a menu word counts.
var pauseMenuKeywords = []struct {
	command domain.Command
	words   []string
}{
	{domain.CommandResume, []string{"continue", "resume", "c", "go", "start"}},
	{domain.CommandQuit, []string{"quit", "exit", "stop", "q", "end"}},
	{domain.CommandHelp, []string{"help", "h", "options", "what"}},
	{domain.CommandStatus, []string{"status", "where", "progress"}},
}

// interviewOnly commands only make sense while a question is pending.
var interviewOnly = map[domain.Command]bool{
	domain.CommandGoBack: true,
	domain.CommandSkip:   true,
	domain.CommandRepeat: true,
}

var confirmAllowed = map[domain.Command]bool{
	domain.CommandCancel: true,
	domain.CommandHelp:   true,
}

var leadingFillers = []string{
	"um ", "uh ", "okay ", "ok ", "hey ", "so ", "please ", "can you ", "could you ",
	"can we ", "could we ", "i want to ", "i'd like to ", "let's ", "lets ", "just ",
}

var trailingFillers = []string{" please", " now", " thanks", " thank you"}
