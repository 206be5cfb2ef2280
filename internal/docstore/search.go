package docstore

import "strings"

// SearchVocabulary holds the domain term buckets consulted by the last
// search pass. Owned by the instantiator so the business vocabulary can be
// swapped without touching the search logic.
type SearchVocabulary struct {
	CourseTerms   []string // narrow bucket: course/training vocabulary
	BusinessTerms []string // broad bucket: business/contact vocabulary
}

// DefaultSearchVocabulary returns the built-in Thai/English buckets.
func DefaultSearchVocabulary() SearchVocabulary {
	return SearchVocabulary{
		CourseTerms: []string{
			"คอร์ส", "หลักสูตร", "เรียน", "อบรม", "สอน", "course", "training", "class",
		},
		BusinessTerms: []string{
			"ติดต่อ", "โทร", "อีเมล", "ที่อยู่", "เวลาทำการ", "เปิด", "ปิด", "ราคา",
			"บริการ", "contact", "phone", "email", "address", "hours", "price", "service",
		},
	}
}

// Search runs multi-pass matching over the cached content's non-empty
// trimmed lines; the first pass that produces a hit wins.
func (s *Store) Search(query string) string {
	lines := contentLines(s.Cached())
	if len(lines) == 0 {
		return ""
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return firstLines(lines, 5)
	}
	loweredQuery := strings.ToLower(query)

	// Pass 1: verbatim containment.
	for _, line := range lines {
		if strings.Contains(strings.ToLower(line), loweredQuery) {
			return line
		}
	}

	// Pass 2: fraction of query words present in the line; best line wins,
	// ties broken by first occurrence.
	words := strings.Fields(loweredQuery)
	if len(words) > 0 {
		bestScore := 0.0
		bestLine := ""
		for _, line := range lines {
			lowered := strings.ToLower(line)
			hits := 0
			for _, w := range words {
				if strings.Contains(lowered, w) {
					hits++
				}
			}
			score := float64(hits) / float64(len(words))
			if score > bestScore {
				bestScore = score
				bestLine = line
			}
		}
		if bestScore > 0 {
			return bestLine
		}
	}

	// Pass 3: domain buckets, narrow before broad.
	for _, line := range lines {
		if containsAnyTerm(line, s.vocab.CourseTerms) {
			return line
		}
	}
	var broad []string
	for _, line := range lines {
		if containsAnyTerm(line, s.vocab.BusinessTerms) {
			broad = append(broad, line)
			if len(broad) == 5 {
				break
			}
		}
	}
	if len(broad) > 0 {
		return strings.Join(broad, "\n")
	}

	// Last resort: leading context.
	return firstLines(lines, 5)
}

func contentLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

func firstLines(lines []string, n int) string {
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

func containsAnyTerm(line string, terms []string) bool {
	lowered := strings.ToLower(line)
	for _, term := range terms {
		if term != "" && strings.Contains(lowered, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
