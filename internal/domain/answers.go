package domain

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	yesWords = map[string]bool{
		"yes": true, "y": true, "yeah": true, "yep": true, "yup": true, "sure": true,
		"true": true, "correct": true, "right": true, "definitely": true,
		"absolutely": true, "affirmative": true,
	}
	// Acknowledgements count as yes only when nothing else decides.
	weakYesWords = map[string]bool{"ok": true, "okay": true, "alright": true}
	noWords = map[string]bool{
		"no": true, "n": true, "nope": true, "nah": true, "false": true,
		"incorrect": true, "wrong": true, "negative": true, "not": true,
		"don't": true, "dont": true, "never": true,
	}
	listDonePhrases = map[string]bool{
		"done": true, "finished": true, "that's all": true, "thats all": true,
		"that is all": true, "no more": true, "nothing else": true, "none": true,
		"no": true, "nope": true, "i'm done": true, "im done": true, "i am done": true,
	}
	skipPhrases = map[string]bool{
		"none": true, "nothing": true, "n a": true, "na": true, "skip": true,
		"not applicable": true,
	}
	spokenDigits = map[string]string{
		"zero": "0", "oh": "0", "o": "0", "one": "1", "two": "2", "three": "3",
		"four": "4", "five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
	}
	smallNumbers = map[string]int{
		"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
		"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
		"thirteen": 13, "fourteen": 14, "fifteen": 15, "sixteen": 16,
		"seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
		"thirty": 30, "forty": 40, "fifty": 50, "sixty": 60, "seventy": 70,
		"eighty": 80, "ninety": 90,
	}

	amountPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(k|thousand|grand)?\b`)
	intPattern    = regexp.MustCompile(`\d+`)
)

// CleanText lowercases s, turns punctuation into spaces and collapses
// whitespace. Apostrophes survive so contractions stay intact.
func CleanText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '’' || r == '\'':
			b.WriteRune('\'')
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ParseYesNo reads a yes or no answer. Any no word wins, so "okay, no"
// and "that's not right" both read as no.
func ParseYesNo(s string) (bool, bool) {
	var yes, weak bool
	for _, w := range strings.Fields(CleanText(s)) {
		switch {
		case noWords[w]:
			return false, true
		case yesWords[w]:
			yes = true
		case weakYesWords[w]:
			weak = true
		}
	}
	if yes || weak {
		return true, true
	}
	return false, false
}

func ParseChapter(s string) (CaseType, bool) {
	var is7, is13 bool
	for _, w := range strings.Fields(CleanText(s)) {
		switch w {
		case "7", "seven", "liquidation":
			is7 = true
		case "13", "thirteen", "repayment":
			is13 = true
		}
	}
	switch {
	case is7 && !is13:
		return CaseChapter7, true
	case is13 && !is7:
		return CaseChapter13, true
	}
	return "", false
}

func ParseMaritalStatus(s string) (MaritalStatus, bool) {
	c := CleanText(s)
	if strings.Contains(c, "never married") || strings.Contains(c, "not married") || strings.Contains(c, "unmarried") {
		return MaritalSingle, true
	}
	for _, w := range strings.Fields(c) {
		switch w {
		case "single":
			return MaritalSingle, true
		case "married":
			return MaritalMarried, true
		case "divorced":
			return MaritalDivorced, true
		case "separated":
			return MaritalSeparated, true
		case "widowed", "widow", "widower":
			return MaritalWidowed, true
		}
	}
	return "", false
}

// spokenDigitString extracts digits from s, accepting spoken digits
// such as "nine oh two one oh".
func spokenDigitString(s string) string {
	var b strings.Builder
	for _, w := range strings.Fields(CleanText(s)) {
		if d, ok := spokenDigits[w]; ok {
			b.WriteString(d)
			continue
		}
		for _, r := range w {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// NormalizeZip returns a 5 digit or ZIP+4 code.
func NormalizeZip(s string) (string, bool) {
	d := spokenDigitString(s)
	switch len(d) {
	case 5:
		return d, true
	case 9:
		return d[:5] + "-" + d[5:], true
	}
	return "", false
}

// NormalizePhone formats a US number as (xxx) xxx-xxxx.
func NormalizePhone(s string) (string, bool) {
	d := spokenDigitString(s)
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) != 10 {
		return "", false
	}
	return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:], true
}

func NormalizeEmail(s string) (string, bool) {
	e := " " + strings.ToLower(strings.TrimSpace(s)) + " "
	replacer := strings.NewReplacer(
		" at ", "@",
		" dot ", ".",
		" underscore ", "_",
		" dash ", "-",
		" hyphen ", "-",
	)
	// Applied twice so adjacent spoken tokens ("dot com at") both convert.
	e = replacer.Replace(e)
	e = replacer.Replace(" " + strings.TrimSpace(e) + " ")
	e = strings.Join(strings.Fields(e), "")
	e = strings.Trim(e, ".")

	at := strings.Index(e, "@")
	if at <= 0 || strings.Count(e, "@") != 1 {
		return "", false
	}
	domainPart := e[at+1:]
	dot := strings.LastIndex(domainPart, ".")
	if dot <= 0 || dot == len(domainPart)-1 {
		return "", false
	}
	return e, true
}

// ParseAmount reads a dollar amount like "$1,250.50", "3k" or
// "two thousand five hundred".
func ParseAmount(s string) (float64, bool) {
	c := strings.ToLower(strings.ReplaceAll(s, ",", ""))
	c = strings.ReplaceAll(c, "$", " ")
	if m := amountPattern.FindStringSubmatch(c); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			if m[2] != "" {
				v *= 1000
			}
			return v, true
		}
	}
	if n, ok := wordsToNumber(strings.Fields(CleanText(s))); ok {
		return float64(n), true
	}
	return 0, false
}

func ParseInt(s string) (int, bool) {
	if m := intPattern.FindString(s); m != "" {
		n, err := strconv.Atoi(m)
		if err == nil {
			return n, true
		}
	}
	return wordsToNumber(strings.Fields(CleanText(s)))
}

func wordsToNumber(tokens []string) (int, bool) {
	total, current := 0, 0
	seen := false
loop:
	for _, t := range tokens {
		if v, ok := smallNumbers[t]; ok {
			current += v
			seen = true
			continue
		}
		switch t {
		case "hundred":
			if current == 0 {
				current = 1
			}
			current *= 100
			seen = true
		case "thousand", "grand":
			if current == 0 {
				current = 1
			}
			total += current * 1000
			current = 0
			seen = true
		case "and", "a":
		default:
			if seen {
				break loop
			}
		}
	}
	return total + current, seen
}

func IsListDone(s string) bool {
	c := CleanText(s)
	return listDonePhrases[c] || strings.HasPrefix(c, "that's all") || strings.HasPrefix(c, "thats all")
}

func IsSkipWord(s string) bool {
	return skipPhrases[CleanText(s)]
}
