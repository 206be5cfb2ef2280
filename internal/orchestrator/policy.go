package orchestrator

import (
	"github.com/pakawat-dev/support-linebot-go/internal/genai"
	"github.com/pakawat-dev/support-linebot-go/internal/textanalyzer"
)

// PrimarySource names which data source the pipeline tries first.
type PrimarySource string

const (
	PrimaryKeyword  PrimarySource = "keyword_table"
	PrimaryDocument PrimarySource = "document"
)

// Analysis is the per-message pre-processing result fed into source
// selection. Produced fresh for every message, never cached.
type Analysis struct {
	QuestionType textanalyzer.QuestionType
	Keywords     []string
	Intent       genai.IntentResult
}

// SourcePolicy decides which source a message should try first. The two
// strategies are interchangeable; the heuristic one is the default.
type SourcePolicy interface {
	Name() string
	SelectPrimary(analysis Analysis) PrimarySource
}

// HeuristicPolicy picks by locally detected question type: generic messages
// go to the hand-authored keyword table, anything specific goes to the
// document.
type HeuristicPolicy struct{}

func (HeuristicPolicy) Name() string { return "heuristic" }

func (HeuristicPolicy) SelectPrimary(analysis Analysis) PrimarySource {
	switch analysis.QuestionType.Type {
	case textanalyzer.TypeGeneral, textanalyzer.TypeStatement:
		return PrimaryKeyword
	}
	return PrimaryDocument
}

// ClassifierPolicy defers to the LLM intent classification when it carries
// enough confidence, falling back to the heuristic rule otherwise.
type ClassifierPolicy struct {
	// MinConfidence is the intent confidence (0-100) below which the
	// heuristic rule decides instead.
	MinConfidence int
}

func (ClassifierPolicy) Name() string { return "classifier" }

func (p ClassifierPolicy) SelectPrimary(analysis Analysis) PrimarySource {
	if analysis.Intent.Confidence >= p.MinConfidence {
		if analysis.Intent.IsGeneral && !analysis.Intent.IsSpecific {
			return PrimaryKeyword
		}
		return PrimaryDocument
	}
	return HeuristicPolicy{}.SelectPrimary(analysis)
}

// PolicyFromName maps a configured policy name to its implementation.
// Unknown names get the heuristic policy.
func PolicyFromName(name string) SourcePolicy {
	if name == "classifier" {
		return ClassifierPolicy{MinConfidence: 60}
	}
	return HeuristicPolicy{}
}
