package keywordtable

import "strings"

// Match is a scored lookup result.
type Match struct {
	Entry     Entry
	Score     float64
	MatchType string // exact, contains, word_overlap, fuzzy, intent_bucket
}

// matcher is one strategy in the lookup pipeline. Strategies are tried in
// order; the first non-nil result wins.
type matcher interface {
	try(message string, entries []Entry) *Match
}

// exactMatcher matches on normalized equality, score 1.0.
type exactMatcher struct{}

func (exactMatcher) try(message string, entries []Entry) *Match {
	for _, e := range entries {
		if normalize(e.Keyword) == message {
			return &Match{Entry: e, Score: 1.0, MatchType: "exact"}
		}
	}
	return nil
}

// containMatcher matches substring containment either direction, score 0.9.
type containMatcher struct{}

func (containMatcher) try(message string, entries []Entry) *Match {
	for _, e := range entries {
		kw := normalize(e.Keyword)
		if kw == "" {
			continue
		}
		if strings.Contains(message, kw) || strings.Contains(kw, message) {
			return &Match{Entry: e, Score: 0.9, MatchType: "contains"}
		}
	}
	return nil
}

// overlapMatcher scores entries by word overlap and returns the best entry
// at or above the threshold, ties broken by first occurrence.
type overlapMatcher struct {
	threshold float64
}

func (m overlapMatcher) try(message string, entries []Entry) *Match {
	var best *Match
	for _, e := range entries {
		score := wordOverlapScore(message, normalize(e.Keyword))
		if score < m.threshold {
			continue
		}
		if best == nil || score > best.Score {
			best = &Match{Entry: e, Score: score, MatchType: "word_overlap"}
		}
	}
	return best
}

// fuzzyMatcher handles single-word near-misses with a Levenshtein ratio.
// Accepted matches carry the fixed low score 0.4.
type fuzzyMatcher struct {
	minRatio float64
}

func (m fuzzyMatcher) try(message string, entries []Entry) *Match {
	if len(strings.Fields(message)) != 1 {
		return nil
	}
	var best Entry
	bestRatio := 0.0
	for _, e := range entries {
		kw := normalize(e.Keyword)
		if kw == "" || strings.Contains(kw, " ") {
			continue
		}
		if ratio := similarityRatio(message, kw); ratio > bestRatio {
			bestRatio = ratio
			best = e
		}
	}
	if bestRatio >= m.minRatio {
		return &Match{Entry: best, Score: 0.4, MatchType: "fuzzy"}
	}
	return nil
}

// bucketMatcher maps domain intent buckets (contact terms and the like) to
// entries whose keyword carries the matched bucket term. Fixed score 0.35.
type bucketMatcher struct {
	buckets [][]string
}

func (m bucketMatcher) try(message string, entries []Entry) *Match {
	for _, bucket := range m.buckets {
		for _, term := range bucket {
			term = normalize(term)
			if term == "" || !strings.Contains(message, term) {
				continue
			}
			for _, e := range entries {
				if strings.Contains(normalize(e.Keyword), term) {
					return &Match{Entry: e, Score: 0.35, MatchType: "intent_bucket"}
				}
			}
		}
	}
	return nil
}

// wordOverlapScore counts message words that equal, contain, or are
// contained by any keyword word, normalized by the larger word count.
func wordOverlapScore(message, keyword string) float64 {
	msgWords := strings.Fields(message)
	kwWords := strings.Fields(keyword)
	if len(msgWords) == 0 || len(kwWords) == 0 {
		return 0
	}

	matched := 0
	for _, mw := range msgWords {
		for _, kw := range kwWords {
			if mw == kw || strings.Contains(mw, kw) || strings.Contains(kw, mw) {
				matched++
				break
			}
		}
	}

	denom := len(msgWords)
	if len(kwWords) > denom {
		denom = len(kwWords)
	}
	return float64(matched) / float64(denom)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
