// Package textanalyzer provides local NLP utilities: tokenization, stop-word
// removal, stemming, similarity scoring and question-type detection. It is
// used for lightweight pre-LLM analysis and as the fallback analysis path
// when the generative model is unavailable.
package textanalyzer

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Question types produced by DetectQuestionType.
const (
	TypeStatement = "statement"
	TypeGeneral   = "general"
	TypePrice     = "price"
	TypeTime      = "time"
	TypeLocation  = "location"
	TypeHowTo     = "howto"
	TypeWhy       = "why"
)

// QuestionType is the result of question-type detection.
type QuestionType struct {
	Type       string
	Confidence float64 // 0-1, accumulated from independent signals
}

// Analyzer performs local text analysis using a fixed vocabulary.
type Analyzer struct {
	vocab     Vocabulary
	stopWords map[string]struct{}
}

// New creates an analyzer with the given vocabulary.
func New(vocab Vocabulary) *Analyzer {
	stop := make(map[string]struct{}, len(vocab.StopWords))
	for _, w := range vocab.StopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}
	return &Analyzer{vocab: vocab, stopWords: stop}
}

// Preprocess normalizes text into an ordered token sequence: lowercase,
// strip characters outside the permitted scripts, collapse whitespace,
// tokenize, remove stop words, stem, and drop single-character tokens.
func (a *Analyzer) Preprocess(text string) []string {
	cleaned := normalize(text)

	var tokens []string
	for _, tok := range strings.Fields(cleaned) {
		if _, stop := a.stopWords[tok]; stop {
			continue
		}
		tok = stem(tok)
		if utf8.RuneCountInString(tok) <= 1 {
			continue
		}
		if _, stop := a.stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Similarity computes Jaccard similarity over the preprocessed token sets of
// both texts. Returns 0 when either text preprocesses to the empty set.
func (a *Analyzer) Similarity(textA, textB string) float64 {
	setA := toSet(a.Preprocess(textA))
	setB := toSet(a.Preprocess(textB))
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// DetectQuestionType classifies text as a question category or a statement.
// Confidence accumulates from three independent signals: interrogative words
// (+0.4), a question mark (+0.3) and interrogative sentence patterns (+0.3),
// capped at 1.0.
func (a *Analyzer) DetectQuestionType(text string) QuestionType {
	lowered := strings.ToLower(norm.NFC.String(text))

	confidence := 0.0
	if containsAny(lowered, a.vocab.InterrogativeWords) {
		confidence += 0.4
	}
	if strings.ContainsAny(text, "?？") {
		confidence += 0.3
	}
	if containsAny(lowered, a.vocab.QuestionPatterns) {
		confidence += 0.3
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	if confidence == 0 {
		return QuestionType{Type: TypeStatement, Confidence: 0}
	}

	qtype := TypeGeneral
	switch {
	case containsAny(lowered, a.vocab.PriceWords):
		qtype = TypePrice
	case containsAny(lowered, a.vocab.TimeWords):
		qtype = TypeTime
	case containsAny(lowered, a.vocab.LocationWords):
		qtype = TypeLocation
	case containsAny(lowered, a.vocab.HowToWords):
		qtype = TypeHowTo
	case containsAny(lowered, a.vocab.WhyWords):
		qtype = TypeWhy
	}
	return QuestionType{Type: qtype, Confidence: confidence}
}

// ExtractKeywords returns up to maxCount most frequent preprocessed tokens,
// ties broken by first-seen order.
func (a *Analyzer) ExtractKeywords(text string, maxCount int) []string {
	tokens := a.Preprocess(text)
	if len(tokens) == 0 || maxCount <= 0 {
		return nil
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string
	for i, tok := range tokens {
		if _, ok := counts[tok]; !ok {
			firstSeen[tok] = i
			order = append(order, tok)
		}
		counts[tok]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	if len(order) > maxCount {
		order = order[:maxCount]
	}
	return order
}

// normalize lowercases and replaces every rune outside the permitted
// scripts (Thai, Latin, digits) with a space.
func normalize(text string) string {
	lowered := strings.ToLower(norm.NFC.String(text))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if permittedRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func permittedRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case unicode.IsDigit(r):
		return true
	case unicode.Is(unicode.Thai, r):
		return true
	case unicode.IsSpace(r):
		return true
	default:
		return false
	}
}

// stem applies light suffix stripping to Latin tokens. Thai tokens are
// returned unchanged; Thai has no inflectional suffixes to strip.
func stem(tok string) string {
	if tok == "" || !isASCII(tok) {
		return tok
	}
	suffixes := []string{"ingly", "edly", "ing", "tion", "ness", "ment", "ies", "ed", "es", "ly", "s"}
	for _, suf := range suffixes {
		if strings.HasSuffix(tok, suf) && len(tok)-len(suf) >= 3 {
			return tok[:len(tok)-len(suf)]
		}
	}
	return tok
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(s, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
