// Package orchestrator runs the per-message decision pipeline: analyze the
// message, pick a primary source, try keyword and document answers with
// acceptance thresholds, and fall back deterministically when the generative
// layer cannot help.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pakawat-dev/support-linebot-go/internal/docstore"
	"github.com/pakawat-dev/support-linebot-go/internal/format"
	"github.com/pakawat-dev/support-linebot-go/internal/genai"
	"github.com/pakawat-dev/support-linebot-go/internal/keywordtable"
	"github.com/pakawat-dev/support-linebot-go/internal/logger"
	"github.com/pakawat-dev/support-linebot-go/internal/metrics"
	"github.com/pakawat-dev/support-linebot-go/internal/textanalyzer"
)

const maxExtractedKeywords = 5

// Config carries the pipeline thresholds and canned responses.
type Config struct {
	DocAcceptThreshold     int     // 0-100, document-backed answers
	KeywordAcceptThreshold int     // 0-100, keyword-backed answers
	KeywordMatchThreshold  float64 // 0-1, local word-overlap matcher
	DefaultResponse        string
}

// Orchestrator composes the analyzer, both data sources and the generative
// responder into one handle pipeline.
type Orchestrator struct {
	analyzer  *textanalyzer.Analyzer
	docs      *docstore.Store
	table     *keywordtable.Table
	responder *genai.Responder
	policy    SourcePolicy
	formatter *format.Formatter
	cfg       Config
	log       *logger.Logger
	metrics   *metrics.Metrics

	personaMu   sync.RWMutex
	lastPersona docstore.Persona
}

// New creates an orchestrator.
func New(analyzer *textanalyzer.Analyzer, docs *docstore.Store, table *keywordtable.Table, responder *genai.Responder, policy SourcePolicy, formatter *format.Formatter, cfg Config, log *logger.Logger, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		analyzer:  analyzer,
		docs:      docs,
		table:     table,
		responder: responder,
		policy:    policy,
		formatter: formatter,
		cfg:       cfg,
		log:       log.WithModule("orchestrator"),
		metrics:   m,
	}
}

// Handle produces the reply for one message. It always returns usable text:
// when every source fails the configured default response comes back
// unchanged. The error return exists for context expiry only.
func (o *Orchestrator) Handle(ctx context.Context, userID, text string) (string, error) {
	log := o.log.WithUserID(userID)

	analysis := o.analyze(ctx, text)
	primary := o.policy.SelectPrimary(analysis)
	secondary := other(primary)

	log.WithField("question_type", analysis.QuestionType.Type).
		WithField("primary_source", string(primary)).
		Debug("message analyzed")

	if answer, ok := o.attempt(ctx, primary, text); ok {
		o.metrics.RecordResponsePath("primary_" + string(primary))
		return o.formatter.Apply(answer, sourceOf(primary)), nil
	}
	if answer, ok := o.attempt(ctx, secondary, text); ok {
		o.metrics.RecordResponsePath("secondary_" + string(secondary))
		return o.formatter.Apply(answer, sourceOf(secondary)), nil
	}

	if answer, ok := o.deterministicFallback(ctx, text, analysis); ok {
		o.metrics.RecordResponsePath("generative_fallback")
		return o.formatter.Apply(answer, format.SourceFallback), nil
	}

	return o.hardFallback(text), nil
}

// analyze runs the local analyzer and the best-effort LLM intent
// classification. Classification failures never abort the pipeline.
func (o *Orchestrator) analyze(ctx context.Context, text string) Analysis {
	analysis := Analysis{
		QuestionType: o.analyzer.DetectQuestionType(text),
		Keywords:     o.analyzer.ExtractKeywords(text, maxExtractedKeywords),
		Intent:       genai.NeutralIntent(),
	}

	if _, ok := o.policy.(ClassifierPolicy); ok && o.responder.Enabled() {
		intent, err := o.responder.ClassifyIntent(ctx, text, o.contextSnippet())
		if err != nil {
			o.log.WithError(err).Debug("intent classification unavailable")
		} else {
			analysis.Intent = intent
		}
	}
	return analysis
}

func (o *Orchestrator) attempt(ctx context.Context, source PrimarySource, text string) (string, bool) {
	switch source {
	case PrimaryKeyword:
		return o.attemptKeyword(ctx, text)
	default:
		return o.attemptDocument(ctx, text)
	}
}

// attemptKeyword tries the local matcher pipeline first; high-scoring local
// matches are hand-authored answers and return verbatim. Weaker matches are
// only accepted when the generative gate confirms them, unless no LLM is
// configured at all.
func (o *Orchestrator) attemptKeyword(ctx context.Context, text string) (string, bool) {
	match := o.table.FindBestMatch(text, o.cfg.KeywordMatchThreshold)
	if match != nil {
		if int(match.Score*100) >= o.cfg.KeywordAcceptThreshold || !o.responder.Enabled() {
			o.metrics.RecordSourceAttempt("keyword_table", "hit")
			return match.Entry.Answer, true
		}
	}

	if o.responder.Enabled() {
		answer, err := o.responder.FindBestAnswer(ctx, text, o.table.Corpus(), o.contextSnippet())
		if err != nil {
			o.metrics.RecordSourceAttempt("keyword_table", "error")
			return "", false
		}
		if answer != nil && answer.Confidence >= o.cfg.KeywordAcceptThreshold {
			o.metrics.RecordSourceAttempt("keyword_table", "hit")
			return answer.Answer, true
		}
	}

	o.metrics.RecordSourceAttempt("keyword_table", "miss")
	return "", false
}

// attemptDocument gates document-derived answers at a lower threshold than
// keyword answers; extractive answers are noisier and the lower bar keeps
// good-enough ones.
func (o *Orchestrator) attemptDocument(ctx context.Context, text string) (string, bool) {
	content, err := o.docs.GetContent(ctx, false)
	if err != nil || strings.TrimSpace(content) == "" {
		o.metrics.RecordSourceAttempt("document", "unavailable")
		return "", false
	}
	o.rememberPersona(content)

	if !o.responder.Enabled() {
		o.metrics.RecordSourceAttempt("document", "miss")
		return "", false
	}

	answer, err := o.responder.FindBestAnswer(ctx, text, content, "")
	if err != nil {
		o.metrics.RecordSourceAttempt("document", "error")
		return "", false
	}
	if answer != nil && answer.Confidence >= o.cfg.DocAcceptThreshold {
		o.metrics.RecordSourceAttempt("document", "hit")
		return answer.Answer, true
	}

	o.metrics.RecordSourceAttempt("document", "miss")
	return "", false
}

// deterministicFallback retrieves context without AI ranking and asks the
// generative layer for a grounded free-text answer.
func (o *Orchestrator) deterministicFallback(ctx context.Context, text string, analysis Analysis) (string, bool) {
	if !o.responder.Enabled() {
		return "", false
	}

	query := strings.Join(analysis.Keywords, " ")
	if query == "" {
		query = text
	}

	contextText := o.docs.Search(query)
	persona := o.persona()
	if contextText == "" {
		if len(persona.BusinessInfo) > 0 {
			contextText = strings.Join(persona.BusinessInfo, "\n")
		} else {
			contextText = persona.FullContent
		}
	}

	answer, err := o.responder.Generate(ctx, text, contextText, persona.PersonaText)
	if err != nil {
		o.log.WithError(err).Warn("generative fallback failed")
		return "", false
	}
	return answer, true
}

// hardFallback assembles a reply without any AI: raw document retrieval
// first, the configured default response last. The default response is a
// hand-authored string and returns unchanged.
func (o *Orchestrator) hardFallback(text string) string {
	if retrieved := o.docs.Search(text); retrieved != "" {
		o.metrics.RecordResponsePath("hard_fallback_document")
		return o.formatter.Apply(retrieved, format.SourceDocument)
	}

	o.metrics.RecordResponsePath("hard_fallback_default")
	return o.cfg.DefaultResponse
}

// ForceRefresh refreshes both sources concurrently. Used by the admin
// endpoint; partial failure reports the first error but both refreshes run.
func (o *Orchestrator) ForceRefresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return o.table.Refresh(gctx) })
	g.Go(func() error {
		content, err := o.docs.GetContent(gctx, true)
		if err == nil {
			o.rememberPersona(content)
		}
		return err
	})
	return g.Wait()
}

// Status reports the pipeline's data-source state for the admin endpoint.
type Status struct {
	KeywordCount       int       `json:"keywordCount"`
	KeywordLastRefresh time.Time `json:"keywordLastRefresh"`
	DocumentAvailable  bool      `json:"documentAvailable"`
	DocumentLastFetch  time.Time `json:"documentLastFetch"`
	LLMEnabled         bool      `json:"llmEnabled"`
	SourcePolicy       string    `json:"sourcePolicy"`
}

func (o *Orchestrator) Status() Status {
	return Status{
		KeywordCount:       o.table.Count(),
		KeywordLastRefresh: o.table.LastRefresh(),
		DocumentAvailable:  o.docs.Available(),
		DocumentLastFetch:  o.docs.LastFetched(),
		LLMEnabled:         o.responder.Enabled(),
		SourcePolicy:       o.policy.Name(),
	}
}

// rememberPersona re-extracts structured fields whenever fresh document
// content passes through, so the fallback path has persona data even after
// the document source goes down.
func (o *Orchestrator) rememberPersona(content string) {
	persona := docstore.ExtractStructuredFields(content)

	o.personaMu.Lock()
	o.lastPersona = persona
	o.personaMu.Unlock()
}

func (o *Orchestrator) persona() docstore.Persona {
	o.personaMu.RLock()
	defer o.personaMu.RUnlock()
	return o.lastPersona
}

// contextSnippet gives the classifier a short business-context hint.
func (o *Orchestrator) contextSnippet() string {
	persona := o.persona()
	if len(persona.BusinessInfo) > 0 {
		return strings.Join(persona.BusinessInfo, "\n")
	}
	return ""
}

func other(source PrimarySource) PrimarySource {
	if source == PrimaryKeyword {
		return PrimaryDocument
	}
	return PrimaryKeyword
}

func sourceOf(source PrimarySource) format.Source {
	if source == PrimaryKeyword {
		return format.SourceKeyword
	}
	return format.SourceDocument
}
