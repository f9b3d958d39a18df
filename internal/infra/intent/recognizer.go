package intent

import (
	"strings"

	"docketvoice/internal/domain"
)

const (
	defaultThreshold = 0.8
	// Phrases this short or shorter only match exactly.
	maxExactOnlyLength = 4
)

// Recognizer maps utterances to commands using a fixed phrase vocabulary.
// It matches whole utterances, never substrings, so answers that merely
// mention a command word are left alone.
type Recognizer struct {
	threshold float64
}

func NewRecognizer() *Recognizer {
	return &Recognizer{threshold: defaultThreshold}
}

func (r *Recognizer) Recognize(text string, vctx domain.VoiceContext) domain.IntentResult {
	result := domain.IntentResult{
		Command: domain.CommandNone,
		Text:    text,
		Context: vctx,
	}

	norm := Normalize(text)
	if norm == "" {
		return result
	}

	if vctx == domain.ContextPauseMenu {
		if cmd, word, ok := matchKeyword(norm); ok {
			result.Command = cmd
			result.Phrase = word
			result.Confidence = 1
			return result
		}
	}

	cmd, phrase, confidence := r.match(norm)
	if cmd == "" || !allowed(cmd, vctx) {
		return result
	}

	result.Command = cmd
	result.Phrase = phrase
	result.Confidence = confidence
	return result
}

func (r *Recognizer) match(norm string) (domain.Command, string, float64) {
	forms := fillerForms(norm)
	for _, candidate := range forms {
		if cmd, ok := phrases[candidate]; ok {
			return cmd, candidate, 1
		}
	}
	stripped := forms[len(forms)-1]

	var (
		bestCmd    domain.Command
		bestPhrase string
		bestScore  float64
	)
	for phrase, cmd := range phrases {
		if len([]rune(phrase)) <= maxExactOnlyLength {
			continue
		}
		score := similarity(stripped, phrase)
		if score > bestScore || (score == bestScore && phrase < bestPhrase) {
			bestCmd, bestPhrase, bestScore = cmd, phrase, score
		}
	}

	if bestScore < r.threshold {
		return "", "", 0
	}
	return bestCmd, bestPhrase, bestScore
}

func matchKeyword(norm string) (domain.Command, string, bool) {
	tokens := strings.Fields(norm)
	for _, group := range pauseMenuKeywords {
		for _, word := range group.words {
			for _, tok := range tokens {
				if tok == word {
					return group.command, word, true
				}
			}
		}
	}
	return "", "", false
}

func allowed(cmd domain.Command, vctx domain.VoiceContext) bool {
	if interviewOnly[cmd] && vctx != domain.ContextInterview {
		return false
	}
	if vctx == domain.ContextConfirm && !confirmAllowed[cmd] {
		return false
	}
	return true
}

// Normalize lowercases text, drops punctuation and collapses whitespace.
func Normalize(text string) string {
	return domain.CleanText(text)
}

// fillerForms returns s followed by each form left after peeling one
// filler word at a time, leading fillers first.
func fillerForms(s string) []string {
	forms := []string{s}
	for {
		next := stripOneFiller(s)
		if next == s || next == "" {
			return forms
		}
		forms = append(forms, next)
		s = next
	}
}

func stripOneFiller(s string) string {
	for _, f := range leadingFillers {
		if strings.HasPrefix(s, f) {
			return strings.TrimPrefix(s, f)
		}
	}
	for _, f := range trailingFillers {
		if strings.HasSuffix(s, f) {
			return strings.TrimSuffix(s, f)
		}
	}
	return s
}

// similarity scores text against phrase as 1 - distance/len(phrase),
// floored at zero.
func similarity(text, phrase string) float64 {
	rt, rp := []rune(text), []rune(phrase)
	if len(rp) == 0 {
		return 0
	}
	score := 1 - float64(levenshtein(rt, rp))/float64(len(rp))
	return max(score, 0)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
