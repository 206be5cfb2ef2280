// Package format applies the user-visible response formatting rules: link
// rewriting, emphasis stripping, paragraph reflow, courtesy closing lines and
// the polite sentence-final particle.
package format

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Source identifies where a response came from; formatting differs per source.
type Source string

const (
	SourceKeyword  Source = "keyword"
	SourceDocument Source = "document"
	SourceFallback Source = "fallback"
)

var (
	phonePattern = regexp.MustCompile(`\b\d{2,3}-\d{3,4}-\d{4}\b`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	wwwPattern   = regexp.MustCompile(`\bwww\.[A-Za-z0-9.-]+\.[A-Za-z]{2,}(?:/\S*)?`)

	// Trailing internal source tags leaked by upstream text.
	sourceTagPattern = regexp.MustCompile(`\s*\[(?:ai|keyword|doc|document|llm)\]\s*$`)

	bulletPattern   = regexp.MustCompile(`\s+([•·▪-]\s)`)
	numberedPattern = regexp.MustCompile(`\s+(\d{1,2}[.)]\s)`)
	digitRunPattern = regexp.MustCompile(`\d{3}[- ]?\d{3,4}`)
	numericUnitPat  = regexp.MustCompile(`\d+(?:,\d{3})*\s*(?:บาท|ชั่วโมง|นาที|วัน|ครั้ง|คน|%|baht|hours?|days?)`)

	sentenceEndPat = regexp.MustCompile(`([.!?。！？])\s+`)
)

const (
	longSentenceRunes = 80
	defaultLanguage   = "th"
	politeParticle    = "ค่ะ"
)

// Formatter holds the per-deployment formatting settings.
type Formatter struct {
	Language    string
	ClosingLine string
}

// New creates a Formatter. An empty closing line disables the courtesy
// footer for document answers.
func New(language, closingLine string) *Formatter {
	return &Formatter{Language: language, ClosingLine: closingLine}
}

// Apply runs every formatting rule appropriate for the response source.
// Keyword-table answers are hand-authored and pass through almost verbatim:
// only tag stripping and link rewriting apply.
func (f *Formatter) Apply(text string, source Source) string {
	text = StripSourceTags(text)
	if source == SourceKeyword {
		// Hand-authored answers keep their wording; only link rewriting
		// applies.
		return RewriteLinks(strings.TrimSpace(text))
	}

	text = StripEmphasis(text)
	text = Reflow(text)
	text = RewriteLinks(text)
	text = strings.TrimSpace(text)

	if source == SourceDocument && f.ClosingLine != "" && !strings.Contains(text, f.ClosingLine) {
		text += "\n\n" + f.ClosingLine
	}
	return f.appendParticle(text)
}

// appendParticle adds the polite sentence-final particle for the default
// language when the text does not already end in terminal punctuation.
func (f *Formatter) appendParticle(text string) string {
	if f.Language != defaultLanguage || text == "" {
		return text
	}
	if strings.HasSuffix(text, politeParticle) || strings.HasSuffix(text, "ครับ") || strings.HasSuffix(text, "นะคะ") {
		return text
	}
	last, _ := utf8.DecodeLastRuneInString(text)
	switch last {
	case '.', '!', '?', '。', '！', '？':
		return text
	}
	return text + " " + politeParticle
}

// RewriteLinks rewrites phone numbers, email addresses and www URLs into
// markdown link form. Each target is wrapped at most once.
func RewriteLinks(text string) string {
	text = rewriteOnce(text, phonePattern, func(m string) string {
		return "[" + m + "](tel:" + strings.ReplaceAll(m, "-", "") + ")"
	})
	text = rewriteOnce(text, emailPattern, func(m string) string {
		return "[" + m + "](mailto:" + m + ")"
	})
	text = rewriteOnce(text, wwwPattern, func(m string) string {
		return "[" + m + "](https://" + m + ")"
	})
	return text
}

// rewriteOnce wraps each match unless the text already contains the link
// form for that exact target, guarding against double-wrapping when the
// upstream text was formatted before.
func rewriteOnce(text string, pattern *regexp.Regexp, link func(string) string) string {
	return pattern.ReplaceAllStringFunc(text, func(m string) string {
		wrapped := link(m)
		if strings.Contains(text, wrapped) || strings.Contains(text, "["+m+"]") {
			return m
		}
		return wrapped
	})
}

// StripEmphasis removes asterisk emphasis markers the LLM tends to emit.
func StripEmphasis(text string) string {
	return strings.ReplaceAll(text, "*", "")
}

// StripSourceTags removes trailing internal source markers like [ai].
func StripSourceTags(text string) string {
	for {
		stripped := sourceTagPattern.ReplaceAllString(text, "")
		if stripped == text {
			return text
		}
		text = stripped
	}
}

// Reflow inserts paragraph breaks before list markers and after long or
// complex sentences so answers read well in a chat bubble.
func Reflow(text string) string {
	text = bulletPattern.ReplaceAllString(text, "\n$1")
	text = numberedPattern.ReplaceAllString(text, "\n$1")

	var b strings.Builder
	rest := text
	for {
		loc := sentenceEndPat.FindStringSubmatchIndex(rest)
		if loc == nil {
			b.WriteString(rest)
			break
		}
		sentence := rest[:loc[3]]
		b.WriteString(sentence)
		if isComplexSentence(sentence) {
			b.WriteString("\n")
		} else {
			b.WriteString(rest[loc[3]:loc[1]])
		}
		rest = rest[loc[1]:]
	}
	return b.String()
}

// isComplexSentence reports whether a sentence deserves its own paragraph.
func isComplexSentence(s string) bool {
	if len([]rune(s)) > longSentenceRunes {
		return true
	}
	if strings.Count(s, ",")+strings.Count(s, "，") >= 2 {
		return true
	}
	if strings.ContainsAny(s, ":：") {
		return true
	}
	if strings.Contains(s, "(") && strings.Contains(s, ")") {
		return true
	}
	if digitRunPattern.MatchString(s) {
		return true
	}
	return numericUnitPat.MatchString(s)
}
