package textanalyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestAnalyzer() *Analyzer {
	return New(DefaultVocabulary())
}

func TestPreprocess(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "lowercases and strips punctuation",
			input: "Hello, World!!",
			want:  []string{"hello", "world"},
		},
		{
			name:  "removes stop words",
			input: "the price of the course",
			want:  []string{"price", "course"},
		},
		{
			name:  "drops single character tokens",
			input: "a b ราคา c",
			want:  []string{"ราคา"},
		},
		{
			name:  "keeps thai text",
			input: "ราคา คอร์สเรียน เท่าไหร่",
			want:  []string{"ราคา", "คอร์สเรียน", "เท่าไหร่"},
		},
		{
			name:  "empty input",
			input: "   ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Preprocess(tt.input))
		})
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"running", "runn"},
		{"courses", "cours"},
		{"booked", "book"},
		{"thai", "thai"},
		{"ราคา", "ราคา"},
		{"es", "es"}, // too short to strip
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stem(tt.input), "stem(%q)", tt.input)
	}
}

func TestSimilarity_Identity(t *testing.T) {
	a := newTestAnalyzer()

	// Identical non-empty texts must score exactly 1.0.
	for _, text := range []string{"ราคา คอร์ส", "opening hours today", "สอนขับรถ ที่ไหน"} {
		assert.Equal(t, 1.0, a.Similarity(text, text), "Similarity(%q, %q)", text, text)
	}
}

func TestSimilarity_EmptyIsZero(t *testing.T) {
	a := newTestAnalyzer()

	assert.Equal(t, 0.0, a.Similarity("", "ราคา"))
	assert.Equal(t, 0.0, a.Similarity("ราคา", "!!!"))
}

func TestSimilarity_PartialOverlap(t *testing.T) {
	a := newTestAnalyzer()

	got := a.Similarity("ราคา คอร์สเรียน", "ราคา โปรโมชั่น")
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, 1.0)
}

func TestDetectQuestionType(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		name           string
		input          string
		wantType       string
		wantConfidence float64
	}{
		{
			name:           "statement",
			input:          "สวัสดี",
			wantType:       TypeStatement,
			wantConfidence: 0,
		},
		{
			name:           "price question with all signals",
			input:          "อยากทราบ ราคาเท่าไหร่ คะ?",
			wantType:       TypePrice,
			wantConfidence: 1.0,
		},
		{
			name:           "question mark only",
			input:          "เปิดรับสมัคร?",
			wantType:       TypeGeneral,
			wantConfidence: 0.3,
		},
		{
			name:           "location question",
			input:          "ร้านอยู่ที่ไหน",
			wantType:       TypeLocation,
			wantConfidence: 0.4,
		},
		{
			name:           "howto question",
			input:          "สมัครยังไง",
			wantType:       TypeHowTo,
			wantConfidence: 0.4,
		},
		{
			name:           "why question in english",
			input:          "why was my order cancelled?",
			wantType:       TypeWhy,
			wantConfidence: 0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.DetectQuestionType(tt.input)
			assert.Equal(t, tt.wantType, got.Type)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 0.001)
		})
	}
}

func TestExtractKeywords(t *testing.T) {
	a := newTestAnalyzer()

	got := a.ExtractKeywords("ราคา ราคา คอร์สเรียน สมัคร คอร์สเรียน ราคา", 2)
	assert.Equal(t, []string{"ราคา", "คอร์สเรียน"}, got)
}

func TestExtractKeywords_TieFirstSeen(t *testing.T) {
	a := newTestAnalyzer()

	// Equal frequency: first-seen order wins.
	got := a.ExtractKeywords("สมัคร ราคา สมัคร ราคา", 2)
	assert.Equal(t, []string{"สมัคร", "ราคา"}, got)
}

func TestExtractKeywords_Empty(t *testing.T) {
	a := newTestAnalyzer()
	assert.Nil(t, a.ExtractKeywords("", 5))
	assert.Nil(t, a.ExtractKeywords("ราคา", 0))
}
