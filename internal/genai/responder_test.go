package genai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pakawat-dev/support-linebot-go/internal/errors"
	"github.com/pakawat-dev/support-linebot-go/internal/logger"
)

// scriptedGenerator returns its steps in order; a step is either text or err.
type scriptedGenerator struct {
	name  string
	steps []scriptedStep
	calls int
}

type scriptedStep struct {
	text string
	err  error
}

func (g *scriptedGenerator) GenerateText(_ context.Context, _ string) (string, error) {
	if g.calls >= len(g.steps) {
		return "", errors.New("no more scripted responses")
	}
	step := g.steps[g.calls]
	g.calls++
	return step.text, step.err
}

func (g *scriptedGenerator) Provider() string {
	if g.name != "" {
		return g.name
	}
	return "scripted"
}

func (g *scriptedGenerator) Close() error { return nil }

func quotaErr(msg string) error {
	return &apperrors.QuotaError{Err: errors.New(msg)}
}

func testResponder(gen TextGenerator) *Responder {
	retry := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}
	return NewResponder(gen, retry, logger.NewNop(), nil)
}

func TestGenerate_Success(t *testing.T) {
	gen := &scriptedGenerator{steps: []scriptedStep{{text: "  สวัสดีค่ะ  "}}}
	r := testResponder(gen)

	text, err := r.Generate(context.Background(), "สวัสดี", "", "")
	require.NoError(t, err)
	assert.Equal(t, "สวัสดีค่ะ", text)
	assert.Equal(t, 1, gen.calls)
}

func TestGenerate_RetriesQuotaThenSucceeds(t *testing.T) {
	gen := &scriptedGenerator{steps: []scriptedStep{
		{err: quotaErr("429 resource exhausted")},
		{err: quotaErr("429 resource exhausted")},
		{text: "answer"},
	}}
	r := testResponder(gen)

	text, err := r.Generate(context.Background(), "q", "", "")
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
	assert.Equal(t, 3, gen.calls)
}

func TestGenerate_QuotaExhaustedAfterMaxAttempts(t *testing.T) {
	gen := &scriptedGenerator{steps: []scriptedStep{
		{err: quotaErr("quota")},
		{err: quotaErr("quota")},
		{err: quotaErr("quota")},
	}}
	r := testResponder(gen)

	_, err := r.Generate(context.Background(), "q", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSourceUnavailable)
	assert.Equal(t, 3, gen.calls)
}

func TestGenerate_NonQuotaFailsImmediately(t *testing.T) {
	gen := &scriptedGenerator{steps: []scriptedStep{
		{err: errors.New("connection refused")},
	}}
	r := testResponder(gen)

	_, err := r.Generate(context.Background(), "q", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrGenerationFailed)
	assert.Equal(t, 1, gen.calls, "non-quota errors must not be retried")
}

func TestGenerate_NilGenerator(t *testing.T) {
	r := testResponder(nil)

	_, err := r.Generate(context.Background(), "q", "", "")
	assert.ErrorIs(t, err, apperrors.ErrSourceUnavailable)
}

func TestGenerate_ContextCancelled(t *testing.T) {
	gen := &scriptedGenerator{steps: []scriptedStep{
		{err: quotaErr("quota")},
		{text: "never reached"},
	}}
	r := testResponder(gen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Generate(ctx, "q", "", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifyIntent_ParsesFencedJSON(t *testing.T) {
	gen := &scriptedGenerator{steps: []scriptedStep{
		{text: "```json\n{\"questionType\":\"price\",\"intent\":\"course_price\",\"isSpecific\":true,\"isGeneral\":false,\"confidence\":90,\"suggestedKeywords\":[\"ราคา\"],\"typoCorrection\":\"\"}\n```"},
	}}
	r := testResponder(gen)

	result, err := r.ClassifyIntent(context.Background(), "ราคาเท่าไหร่", "")
	require.NoError(t, err)
	assert.Equal(t, "price", result.QuestionType)
	assert.Equal(t, "course_price", result.Intent)
	assert.True(t, result.IsSpecific)
	assert.Equal(t, 90, result.Confidence)
	assert.Equal(t, []string{"ราคา"}, result.SuggestedKeywords)
}

func TestClassifyIntent_MalformedJSONReturnsNeutral(t *testing.T) {
	gen := &scriptedGenerator{steps: []scriptedStep{
		{text: "I think this is a price question."},
	}}
	r := testResponder(gen)

	result, err := r.ClassifyIntent(context.Background(), "q", "")
	require.NoError(t, err)
	assert.Equal(t, NeutralIntent(), result)
}

func TestClassifyIntent_ProviderErrorReturnsNeutralWithError(t *testing.T) {
	gen := &scriptedGenerator{steps: []scriptedStep{
		{err: errors.New("boom")},
	}}
	r := testResponder(gen)

	result, err := r.ClassifyIntent(context.Background(), "q", "")
	require.Error(t, err)
	assert.Equal(t, NeutralIntent(), result)
}

func TestFindBestAnswer_Match(t *testing.T) {
	gen := &scriptedGenerator{steps: []scriptedStep{
		{text: `{"keyword":"ราคา","answer":"1000 บาท","confidence":85,"matchType":"typo","typoCorrected":true}`},
	}}
	r := testResponder(gen)

	answer, err := r.FindBestAnswer(context.Background(), "ราคส", "ราคา | 1000 บาท\n", "")
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Equal(t, "1000 บาท", answer.Answer)
	assert.Equal(t, "typo", answer.MatchType)
	assert.True(t, answer.TypoCorrected)
}

func TestFindBestAnswer_NoneIsNil(t *testing.T) {
	gen := &scriptedGenerator{steps: []scriptedStep{
		{text: `{"keyword":"","answer":"","confidence":0,"matchType":"none","typoCorrected":false}`},
	}}
	r := testResponder(gen)

	answer, err := r.FindBestAnswer(context.Background(), "q", "corpus", "")
	require.NoError(t, err)
	assert.Nil(t, answer)
}

func TestFindBestAnswer_EmptyCorpusSkipsCall(t *testing.T) {
	gen := &scriptedGenerator{steps: []scriptedStep{{text: "unused"}}}
	r := testResponder(gen)

	answer, err := r.FindBestAnswer(context.Background(), "q", "   ", "")
	require.NoError(t, err)
	assert.Nil(t, answer)
	assert.Equal(t, 0, gen.calls)
}

func TestChain_FallsBackOnQuota(t *testing.T) {
	primary := &scriptedGenerator{name: "gemini", steps: []scriptedStep{
		{err: quotaErr("quota exceeded")},
	}}
	secondary := &scriptedGenerator{name: "openai_compatible", steps: []scriptedStep{
		{text: "fallback answer"},
	}}

	chain := NewChain(logger.NewNop(), primary, secondary)
	require.NotNil(t, chain)

	text, err := chain.GenerateText(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "fallback answer", text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestChain_NonQuotaDoesNotFallBack(t *testing.T) {
	primary := &scriptedGenerator{name: "gemini", steps: []scriptedStep{
		{err: errors.New("bad request")},
	}}
	secondary := &scriptedGenerator{name: "openai_compatible", steps: []scriptedStep{
		{text: "never reached"},
	}}

	chain := NewChain(logger.NewNop(), primary, secondary)

	_, err := chain.GenerateText(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, 0, secondary.calls)
}

func TestChain_NilGeneratorsFiltered(t *testing.T) {
	assert.Nil(t, NewChain(logger.NewNop()))

	only := &scriptedGenerator{name: "gemini"}
	assert.Equal(t, TextGenerator(only), NewChain(logger.NewNop(), nil, only))
}

func TestClassifyProviderError(t *testing.T) {
	assert.True(t, apperrors.IsQuota(classifyProviderError(errors.New("RESOURCE_EXHAUSTED: try later"))))
	assert.True(t, apperrors.IsQuota(classifyProviderError(errors.New("429 Too Many Requests"))))
	assert.False(t, apperrors.IsQuota(classifyProviderError(errors.New("invalid api key"))))
	assert.Nil(t, classifyProviderError(nil))
}

func TestParseStructured(t *testing.T) {
	var answer BestAnswer
	err := parseStructured("ขออภัยค่ะ ไม่สามารถตอบเป็น JSON ได้", &answer)
	assert.ErrorIs(t, err, apperrors.ErrParseFailed)

	require.NoError(t, parseStructured("```json\n{\"answer\":\"5000 บาท\",\"matchType\":\"exact\"}\n```", &answer))
	assert.Equal(t, "5000 บาท", answer.Answer)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("noise before {\"a\":1} noise after"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`{"a":1}`))
}
