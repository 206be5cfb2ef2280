package genai

import (
	"fmt"
	"strings"
)

// intentPrompt asks the model to classify one user message, grounded with
// whatever business context is available. The model must answer with bare
// JSON matching IntentResult.
func intentPrompt(message, contextText string) string {
	var b strings.Builder
	b.WriteString("You classify customer-support messages for a Thai business chatbot.\n")
	if contextText != "" {
		b.WriteString("Business context:\n")
		b.WriteString(contextText)
		b.WriteString("\n\n")
	}
	b.WriteString("Classify this message and respond with ONLY a JSON object, no markdown:\n")
	b.WriteString(`{"questionType":"price|time|location|howto|why|general","intent":"short_snake_case","isSpecific":bool,"isGeneral":bool,"confidence":0-100,"suggestedKeywords":["..."],"typoCorrection":"corrected message or empty"}`)
	b.WriteString("\n\nMessage: ")
	b.WriteString(message)
	return b.String()
}

// groundedPrompt composes persona, labeled context and the user message, in
// that order. Missing sections are simply omitted.
func groundedPrompt(message, contextText, personaText string) string {
	var b strings.Builder
	if personaText != "" {
		b.WriteString(personaText)
		b.WriteString("\n\n")
	}
	if contextText != "" {
		b.WriteString("ข้อมูลสำหรับตอบคำถาม:\n")
		b.WriteString(contextText)
		b.WriteString("\n\n")
	}
	b.WriteString("คำถามจากลูกค้า: ")
	b.WriteString(message)
	b.WriteString("\nตอบโดยอ้างอิงข้อมูลข้างต้นเท่านั้น ถ้าไม่มีข้อมูลให้บอกตามตรง")
	return b.String()
}

// bestAnswerPrompt asks the model to select or synthesize the best answer
// from the supplied corpus, tolerating typos in the message.
func bestAnswerPrompt(message, corpus, contextText string) string {
	var b strings.Builder
	b.WriteString("You match customer messages against a support knowledge base, tolerating typos.\n")
	b.WriteString("Knowledge base:\n")
	b.WriteString(corpus)
	b.WriteString("\n\n")
	if contextText != "" {
		b.WriteString("Additional context:\n")
		b.WriteString(contextText)
		b.WriteString("\n\n")
	}
	b.WriteString("Pick the best answer for the message below. Respond with ONLY a JSON object, no markdown:\n")
	b.WriteString(`{"keyword":"matched keyword or empty","answer":"the answer text","confidence":0-100,"matchType":"exact|partial|semantic|typo|none","typoCorrected":bool}`)
	b.WriteString("\nUse matchType \"none\" and confidence 0 when nothing fits.\n\nMessage: ")
	b.WriteString(message)
	return b.String()
}

// stripCodeFences removes markdown code fences the model sometimes wraps
// around JSON, then narrows to the outermost object.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// corpusExcerpt truncates an over-long corpus so prompts stay within model
// input limits.
func corpusExcerpt(corpus string, maxRunes int) string {
	runes := []rune(corpus)
	if len(runes) <= maxRunes {
		return corpus
	}
	return fmt.Sprintf("%s\n[ตัดข้อความส่วนที่เหลือ]", string(runes[:maxRunes]))
}
