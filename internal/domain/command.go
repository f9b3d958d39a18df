package domain

type Command string

const (
	CommandNone             Command = "none"
	CommandHelp             Command = "help"
	CommandPause            Command = "pause"
	CommandResume           Command = "resume"
	CommandQuit             Command = "quit"
	CommandGoBack           Command = "go_back"
	CommandSkip             Command = "skip"
	CommandRepeat           Command = "repeat"
	CommandStartOver        Command = "start_over"
	CommandSave             Command = "save"
	CommandReview           Command = "review"
	CommandAnalyzeDocuments Command = "analyze_documents"
	CommandMeansTest        Command = "means_test"
	CommandGeneratePetition Command = "generate_petition"
	CommandPersonalInfo     Command = "personal_info"
	CommandIncomeInfo       Command = "income_info"
	CommandExpenseInfo      Command = "expense_info"
	CommandAssetInfo        Command = "asset_info"
	CommandDebtInfo         Command = "debt_info"
	CommandStatus           Command = "status"
	CommandEmergency        Command = "emergency"
	CommandCancel           Command = "cancel"
)

// TextCommandPrefix is the marker used to indicate text commands (vs audio)
const TextCommandPrefix = "__TEXT__:"

// VoiceContext tells the recognizer what the foreground is waiting for.
type VoiceContext string

const (
	ContextGeneral   VoiceContext = "general"
	ContextInterview VoiceContext = "interview"
	ContextPauseMenu VoiceContext = "pause_menu"
	ContextConfirm   VoiceContext = "confirm"
)

type IntentResult struct {
	Command    Command
	Text       string
	Phrase     string
	Confidence float64
	Context    VoiceContext
}

// Matched reports whether the utterance resolved to a command.
func (r IntentResult) Matched() bool {
	return r.Command != "" && r.Command != CommandNone
}

// TextCommand wraps text so it can travel through an audio source.
func TextCommand(text string) []byte {
	return []byte(TextCommandPrefix + text)
}

// ParseTextCommand returns the text carried by a text marker.
func ParseTextCommand(data []byte) (string, bool) {
	if len(data) > len(TextCommandPrefix) && string(data[:len(TextCommandPrefix)]) == TextCommandPrefix {
		return string(data[len(TextCommandPrefix):]), true
	}
	return "", false
}
