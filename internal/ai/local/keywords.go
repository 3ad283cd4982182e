package local

import (
	"strings"
	"unicode"
)

var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "can": true,
	"not": true, "but": true, "all": true, "also": true, "has": true,
	"was": true, "were": true, "been": true, "use": true, "using": true,
	"internship": true, "intern": true, "experience": true, "skills": true,
}

// phrases are multi-word skills searched for in free text as a whole.
var phrases = []string{
	"machine learning", "deep learning", "distributed systems", "data analysis",
	"backend development", "frontend development", "mobile development",
	"system design", "big data", "react native", "embedded systems",
	"real-time systems", "database design", "core data",
}

// keywords is a set of normalized skill terms.
type keywords map[string]bool

// extractKeywords tokenizes free text. Tokens keep + # . so that c++, c#
// and node.js survive; short tokens and stop words are dropped.
func extractKeywords(text string) keywords {
	kw := keywords{}
	lower := strings.ToLower(text)

	var word strings.Builder
	flush := func() {
		w := strings.Trim(word.String(), ".")
		word.Reset()
		if len([]rune(w)) < 2 || stopWords[w] {
			return
		}
		kw[w] = true
	}
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	normalized := " " + strings.Join(strings.Fields(strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) && r != '+' && r != '#' && r != '-' {
			return ' '
		}
		return r
	}, lower)), " ") + " "
	for _, phrase := range phrases {
		if strings.Contains(normalized, " "+phrase+" ") {
			kw[phrase] = true
		}
	}

	return kw
}

// skillKeywords turns a comma separated skill list into keywords. Each
// skill counts as a phrase and by its words.
func skillKeywords(list string) keywords {
	kw := keywords{}
	for _, skill := range strings.Split(list, ",") {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" {
			continue
		}
		kw[skill] = true
		kw.add(extractKeywords(skill))
	}
	return kw
}

func (k keywords) add(other keywords) {
	for w := range other {
		k[w] = true
	}
}

// matches reports whether a required skill is covered: either the whole
// phrase or, for multi-word skills, every significant word of it.
func (k keywords) matches(skill string) bool {
	skill = strings.ToLower(strings.TrimSpace(skill))
	if skill == "" {
		return false
	}
	if k[skill] {
		return true
	}

	words := extractKeywords(skill)
	delete(words, skill)
	if len(words) == 0 {
		return false
	}
	for w := range words {
		if strings.Contains(w, " ") {
			continue
		}
		if !k[w] {
			return false
		}
	}
	return true
}
