package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteLinks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "email",
			in:   "ติดต่อ contact@example.com",
			want: "ติดต่อ [contact@example.com](mailto:contact@example.com)",
		},
		{
			name: "phone",
			in:   "โทร 02-123-4567 ได้เลย",
			want: "โทร [02-123-4567](tel:021234567) ได้เลย",
		},
		{
			name: "www url",
			in:   "ดูที่ www.example.com นะ",
			want: "ดูที่ [www.example.com](https://www.example.com) นะ",
		},
		{
			name: "already wrapped email stays wrapped once",
			in:   "ติดต่อ [contact@example.com](mailto:contact@example.com)",
			want: "ติดต่อ [contact@example.com](mailto:contact@example.com)",
		},
		{
			name: "no targets",
			in:   "สวัสดีค่ะ",
			want: "สวัสดีค่ะ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RewriteLinks(tt.in))
		})
	}
}

func TestStripEmphasis(t *testing.T) {
	assert.Equal(t, "ราคา 1000 บาท", StripEmphasis("**ราคา** *1000* บาท"))
}

func TestStripSourceTags(t *testing.T) {
	assert.Equal(t, "คำตอบ", StripSourceTags("คำตอบ [ai]"))
	assert.Equal(t, "คำตอบ", StripSourceTags("คำตอบ [keyword] [ai]"))
	assert.Equal(t, "ข้อความ [ai] กลางประโยค", StripSourceTags("ข้อความ [ai] กลางประโยค"))
}

func TestReflow_ListMarkers(t *testing.T) {
	in := "มีหลักสูตรดังนี้ 1. ขับรถยนต์ 2. ขับจักรยานยนต์"
	out := Reflow(in)
	assert.Contains(t, out, "\n1. ")
	assert.Contains(t, out, "\n2. ")
}

func TestReflow_ComplexSentenceBreaks(t *testing.T) {
	in := "Our office hours are 9:00 to 17:00. See you soon."
	out := Reflow(in)
	assert.Contains(t, out, "17:00.\nSee")
}

func TestReflow_ShortSentencesUntouched(t *testing.T) {
	in := "Hello. Bye."
	assert.Equal(t, in, Reflow(in))
}

func TestApply_KeywordVerbatim(t *testing.T) {
	f := New("th", "สอบถามเพิ่มเติมได้เลยนะคะ")

	out := f.Apply("ราคา 1000 บาท", SourceKeyword)
	assert.Equal(t, "ราคา 1000 บาท", out, "hand-authored answers return verbatim")
	assert.NotContains(t, out, "สอบถามเพิ่มเติม")
}

func TestApply_DocumentGetsClosingLine(t *testing.T) {
	f := New("th", "สอบถามเพิ่มเติมได้เลยนะคะ")

	out := f.Apply("เปิดทุกวัน 9 โมงเช้า", SourceDocument)
	assert.True(t, strings.HasSuffix(out, "สอบถามเพิ่มเติมได้เลยนะคะ"))
}

func TestApply_ClosingLineNotDuplicated(t *testing.T) {
	f := New("th", "สอบถามเพิ่มเติมได้เลยนะคะ")

	out := f.Apply("เปิดทุกวัน สอบถามเพิ่มเติมได้เลยนะคะ", SourceDocument)
	assert.Equal(t, 1, strings.Count(out, "สอบถามเพิ่มเติมได้เลยนะคะ"))
}

func TestApply_PoliteParticle(t *testing.T) {
	f := New("th", "")

	assert.Equal(t, "ยินดีต้อนรับ ค่ะ", f.Apply("ยินดีต้อนรับ", SourceFallback))
	assert.Equal(t, "สวัสดีค่ะ", f.Apply("สวัสดีค่ะ", SourceFallback))
	assert.Equal(t, "Welcome!", f.Apply("Welcome!", SourceFallback))
}

func TestApply_NonDefaultLanguageSkipsParticle(t *testing.T) {
	f := New("en", "")
	assert.Equal(t, "Welcome", f.Apply("Welcome", SourceFallback))
}

func TestApply_StripsAsterisksOnLLMPaths(t *testing.T) {
	f := New("th", "")
	out := f.Apply("**สำคัญ** เปิดทุกวันค่ะ", SourceFallback)
	assert.NotContains(t, out, "*")
}
