package docstore

import (
	"strings"
	"unicode/utf8"
)

// Persona is the best-effort structured record extracted from the document.
// Extraction is heuristic: fields stay at their zero value when the document
// does not carry the corresponding label.
type Persona struct {
	BotName         string
	Identity        string
	PersonaText     string
	DefaultResponse string
	Language        string
	Tone            string

	BusinessInfo []string
	Services     []string
	Courses      []string
	Contact      []string
	About        []string

	FullContent string
}

// minTopicalValueLen filters noise lines out of the topical groups.
const minTopicalValueLen = 10

// maxContinuationLines caps how many unlabeled lines are concatenated into a
// labeled field when the label's own line carries no value.
const maxContinuationLines = 4

type fieldLabel struct {
	labels []string
	assign func(*Persona, string)
}

var fieldLabels = []fieldLabel{
	{[]string{"ชื่อบอท", "bot name", "botname"}, func(p *Persona, v string) { p.BotName = v }},
	{[]string{"บุคลิก", "persona"}, func(p *Persona, v string) { p.PersonaText = v }},
	{[]string{"ตัวตน", "identity"}, func(p *Persona, v string) { p.Identity = v }},
	{[]string{"คำตอบเริ่มต้น", "default response", "default answer"}, func(p *Persona, v string) { p.DefaultResponse = v }},
	{[]string{"ภาษา", "language"}, func(p *Persona, v string) { p.Language = v }},
	{[]string{"น้ำเสียง", "โทน", "tone"}, func(p *Persona, v string) { p.Tone = v }},
}

type topicBucket struct {
	terms  []string
	assign func(*Persona, string)
}

var topicBuckets = []topicBucket{
	{[]string{"เวลาทำการ", "เปิด", "ปิด", "ที่อยู่", "สาขา", "business", "hours", "address"},
		func(p *Persona, v string) { p.BusinessInfo = append(p.BusinessInfo, v) }},
	{[]string{"บริการ", "service"},
		func(p *Persona, v string) { p.Services = append(p.Services, v) }},
	{[]string{"คอร์ส", "หลักสูตร", "เรียน", "อบรม", "course", "training"},
		func(p *Persona, v string) { p.Courses = append(p.Courses, v) }},
	{[]string{"ติดต่อ", "โทร", "อีเมล", "ไลน์", "contact", "phone", "email", "line:"},
		func(p *Persona, v string) { p.Contact = append(p.Contact, v) }},
	{[]string{"เกี่ยวกับ", "ประวัติ", "about"},
		func(p *Persona, v string) { p.About = append(p.About, v) }},
}

// ExtractStructuredFields scans the content's lines for labeled persona
// fields and buckets the rest into topical groups. Best-effort only: the
// result is a gracefully partially-populated record, never an error.
func ExtractStructuredFields(content string) Persona {
	persona := Persona{FullContent: content}

	raw := strings.Split(content, "\n")
	lines := make([]string, len(raw))
	for i, line := range raw {
		lines[i] = strings.TrimSpace(line)
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			continue
		}

		if label := matchFieldLabel(line); label != nil {
			value := valueAfterSeparator(line)
			if value == "" {
				// Concatenate following unlabeled lines until the next label,
				// a blank line, or the continuation cap. Consumed lines belong
				// to the field, not to the topical groups.
				var parts []string
				j := i + 1
				for ; j < len(lines) && len(parts) < maxContinuationLines; j++ {
					if lines[j] == "" || matchFieldLabel(lines[j]) != nil {
						break
					}
					parts = append(parts, lines[j])
				}
				value = strings.Join(parts, " ")
				i = j - 1
			}
			if value != "" {
				label.assign(&persona, value)
			}
			continue
		}

		if utf8.RuneCountInString(line) < minTopicalValueLen {
			continue
		}
		for _, bucket := range topicBuckets {
			if containsAnyTerm(line, bucket.terms) {
				bucket.assign(&persona, line)
				break
			}
		}
	}

	return persona
}

func matchFieldLabel(line string) *fieldLabel {
	// Labels only count within the leading part of a line; a mention deep in
	// running text is content, not a label.
	head := strings.ToLower(line)
	if cut := strings.IndexAny(head, ":："); cut >= 0 {
		head = head[:cut]
	}
	if utf8.RuneCountInString(head) > 30 {
		return nil
	}
	for i := range fieldLabels {
		for _, label := range fieldLabels[i].labels {
			if strings.Contains(head, label) {
				return &fieldLabels[i]
			}
		}
	}
	return nil
}

func valueAfterSeparator(line string) string {
	if cut := strings.IndexAny(line, ":："); cut >= 0 {
		_, width := utf8.DecodeRuneInString(line[cut:])
		return strings.TrimSpace(line[cut+width:])
	}
	return ""
}
