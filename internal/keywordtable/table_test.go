package keywordtable

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pakawat-dev/support-linebot-go/internal/logger"
)

type fakeProvider struct {
	pages map[string][][]string
	errs  map[string]error
	calls int
}

func (f *fakeProvider) FetchRows(_ context.Context, page string) ([][]string, error) {
	f.calls++
	if err, ok := f.errs[page]; ok {
		return nil, err
	}
	return f.pages[page], nil
}

func newTestTable(t *testing.T, provider RowProvider, pages ...string) *Table {
	t.Helper()
	log := logger.NewWithWriter("error", io.Discard)
	return New(provider, Config{Pages: pages}, log, nil)
}

func TestRefresh_LoadsEntries(t *testing.T) {
	provider := &fakeProvider{pages: map[string][][]string{
		"FAQ": {
			{"คำถาม", "คำตอบ"}, // header row
			{"ราคา", "1000 บาท"},
			{"เวลาเปิด", "9:00-18:00"},
			{"incomplete"},
		},
	}}
	table := newTestTable(t, provider, "FAQ")

	require.NoError(t, table.Refresh(context.Background()))
	assert.Equal(t, 2, table.Count())
	assert.False(t, table.LastRefresh().IsZero())

	// Data is visible immediately post-refresh.
	match := table.FindBestMatch("ราคา", 0.6)
	require.NotNil(t, match)
	assert.Equal(t, "1000 บาท", match.Entry.Answer)
}

func TestRefresh_PartialPageFailure(t *testing.T) {
	provider := &fakeProvider{
		pages: map[string][][]string{
			"FAQ": {{"ราคา", "1000 บาท"}},
		},
		errs: map[string]error{"Courses": errors.New("HTTP 500")},
	}
	table := newTestTable(t, provider, "FAQ", "Courses")

	// One failing page is skipped without aborting the refresh.
	require.NoError(t, table.Refresh(context.Background()))
	assert.Equal(t, 1, table.Count())
}

func TestRefresh_TotalFailureClearsCollection(t *testing.T) {
	provider := &fakeProvider{pages: map[string][][]string{
		"FAQ": {{"ราคา", "1000 บาท"}},
	}}
	table := newTestTable(t, provider, "FAQ")
	require.NoError(t, table.Refresh(context.Background()))
	require.Equal(t, 1, table.Count())

	provider.errs = map[string]error{"FAQ": errors.New("HTTP 503")}
	err := table.Refresh(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, table.Count())
}

func TestFindBestMatch_Exact(t *testing.T) {
	table := newTestTable(t, &fakeProvider{}, "FAQ")
	table.Replace([]Entry{
		{Keyword: "ราคา", Answer: "1000 บาท"},
		{Keyword: "เวลาเปิด", Answer: "9:00"},
	}, table.LastRefresh())

	// Case/whitespace-normalized equality scores exactly 1.0.
	match := table.FindBestMatch("  ราคา ", 0.6)
	require.NotNil(t, match)
	assert.Equal(t, 1.0, match.Score)
	assert.Equal(t, "exact", match.MatchType)
	assert.Equal(t, "1000 บาท", match.Entry.Answer)
}

func TestFindBestMatch_Containment(t *testing.T) {
	table := newTestTable(t, &fakeProvider{}, "FAQ")
	table.Replace([]Entry{{Keyword: "โปรโมชั่น", Answer: "ลด 20%"}}, table.LastRefresh())

	match := table.FindBestMatch("มีโปรโมชั่นอะไรบ้าง", 0.6)
	require.NotNil(t, match)
	assert.Equal(t, 0.9, match.Score)
	assert.Equal(t, "contains", match.MatchType)
}

func TestFindBestMatch_WordOverlap(t *testing.T) {
	table := newTestTable(t, &fakeProvider{}, "FAQ")
	table.Replace([]Entry{
		{Keyword: "driving course price", Answer: "5000"},
		{Keyword: "train timetable", Answer: "hourly"},
	}, table.LastRefresh())

	match := table.FindBestMatch("course price today", 0.6)
	require.NotNil(t, match)
	assert.Equal(t, "word_overlap", match.MatchType)
	assert.Equal(t, "5000", match.Entry.Answer)
	assert.InDelta(t, 2.0/3.0, match.Score, 0.001)
}

func TestFindBestMatch_FuzzySingleWord(t *testing.T) {
	table := newTestTable(t, &fakeProvider{}, "FAQ")
	table.Replace([]Entry{{Keyword: "ประกันภัย", Answer: "คุ้มครอง 1 ปี"}}, table.LastRefresh())

	// One-character edit of the keyword, no other signal.
	match := table.FindBestMatch("ประกันภับ", 0.6)
	require.NotNil(t, match)
	assert.Equal(t, 0.4, match.Score)
	assert.Equal(t, "fuzzy", match.MatchType)
}

func TestFindBestMatch_IntentBucket(t *testing.T) {
	table := newTestTable(t, &fakeProvider{}, "FAQ")
	table.Replace([]Entry{
		{Keyword: "ช่องทางติดต่อ", Answer: "โทร 02-123-4567"},
		{Keyword: "ราคา", Answer: "1000"},
	}, table.LastRefresh())

	match := table.FindBestMatch("ขอ ติดต่อ เจ้าหน้าที่ หน่อย ครับ นะ", 0.99)
	require.NotNil(t, match)
	assert.Equal(t, "intent_bucket", match.MatchType)
	assert.Equal(t, "โทร 02-123-4567", match.Entry.Answer)
	assert.InDelta(t, 0.35, match.Score, 0.001)
}

func TestFindBestMatch_NoMatch(t *testing.T) {
	table := newTestTable(t, &fakeProvider{}, "FAQ")
	table.Replace([]Entry{{Keyword: "สาขา กรุงเทพ", Answer: "สีลม"}}, table.LastRefresh())

	assert.Nil(t, table.FindBestMatch("weather forecast tomorrow", 0.6))
	assert.Nil(t, table.FindBestMatch("", 0.6))
}

func TestFindTopMatches(t *testing.T) {
	table := newTestTable(t, &fakeProvider{}, "FAQ")
	table.Replace([]Entry{
		{Keyword: "course price", Answer: "a"},
		{Keyword: "course price list full", Answer: "b"},
		{Keyword: "opening time", Answer: "c"},
	}, table.LastRefresh())

	matches := table.FindTopMatches("course price", 0.4, 10)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].Entry.Answer)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)

	limited := table.FindTopMatches("course price", 0.4, 1)
	assert.Len(t, limited, 1)
}

func TestCorpus(t *testing.T) {
	table := newTestTable(t, &fakeProvider{}, "FAQ")
	table.Replace([]Entry{{Keyword: "ราคา", Answer: "1000 บาท"}}, table.LastRefresh())

	assert.Equal(t, "ราคา | 1000 บาท\n", table.Corpus())
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"ราคา", "ราคา", 0},
		{"ประกันภัย", "ประกันภับ", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshtein(tt.a, tt.b), "levenshtein(%q, %q)", tt.a, tt.b)
	}
}

func TestSimilarityRatio(t *testing.T) {
	assert.Equal(t, 1.0, similarityRatio("", ""))
	assert.Equal(t, 1.0, similarityRatio("ราคา", "ราคา"))
	assert.InDelta(t, 8.0/9.0, similarityRatio("ประกันภัย", "ประกันภับ"), 0.001)
	assert.Equal(t, 0.0, similarityRatio("ab", "cd"))
}
