package services

import (
	"strings"
	"unicode"
)

// Phrases that signal a user may be at risk of self-harm.
var baseCrisisPhrases = []string{
	"suicide",
	"suicidal",
	"kill myself",
	"end my life",
	"take my life",
	"end it all",
	"self harm",
	"cut myself",
	"hurt myself",
	"harm myself",
	"want to die",
	"wish i was dead",
	"not worth living",
	"better off dead",
	"no reason to live",
	"end myself",
	"unalive",
	"overdose",
}

// crisisPhrases holds baseCrisisPhrases in CleanText form so both sides of
// the comparison are normalised the same way.
var crisisPhrases = func() []string {
	out := make([]string, len(baseCrisisPhrases))
	for i, p := range baseCrisisPhrases {
		out[i] = CleanText(p)
	}
	return out
}()

var obfuscationReplacer = strings.NewReplacer(
	"@", "a",
	"4", "a",
	"3", "e",
	"!", "i",
	"1", "i",
	"0", "o",
	"$", "s",
	"5", "s",
	"7", "t",
	"+", "t",
	"а", "a", // Cyrillic
	"е", "e",
	"і", "i",
	"о", "o",
	"р", "p",
)

// CleanText lowercases text, undoes common character substitutions, turns
// everything that is not a letter into a single space and collapses repeated
// letters ("diiiie" -> "die").
func CleanText(text string) string {
	cleaned := obfuscationReplacer.Replace(strings.ToLower(text))

	var b strings.Builder
	for _, r := range cleaned {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(collapseRepeats(b.String())), " ")
}

// collapseRepeats reduces runs of the same letter to one letter.
func collapseRepeats(text string) string {
	var result strings.Builder
	var last rune
	for _, r := range text {
		if unicode.IsLetter(r) && r == last {
			continue
		}
		result.WriteRune(r)
		last = r
	}
	return result.String()
}

// DetectCrisis reports whether message contains self-harm language and which phrases matched.
func DetectCrisis(message string) (bool, []string) {
	cleaned := " " + CleanText(message) + " "
	var matched []string
	for i, phrase := range crisisPhrases {
		// whole-word match so "skill myself" style substrings don't trigger
		if strings.Contains(cleaned, " "+phrase+" ") {
			matched = append(matched, baseCrisisPhrases[i])
		}
	}
	return len(matched) > 0, matched
}
