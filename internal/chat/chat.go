package chat

import (
	"context"

	"github.com/ZanzyTHEbar/mvp-o-meter/internal/analysis"
)

// Intent is the handler a message is routed to.
type Intent string

const (
	IntentImprovement Intent = "improvement"
	IntentExplanation Intent = "explanation"
	IntentComparison  Intent = "comparison"
	IntentGeneral     Intent = "general"
)

// ReplyType tells the client how to render a reply.
type ReplyType string

const (
	ReplyInstruction ReplyType = "instruction"
	ReplyImprovement ReplyType = "improvement"
	ReplyExplanation ReplyType = "explanation"
	ReplyComparison  ReplyType = "comparison"
	ReplyGeneral     ReplyType = "general"
	ReplyError       ReplyType = "error"
)

// Request is one user message, optionally carrying a fresh stat line.
type Request struct {
	Message        string
	PredictionData analysis.Profile
	SessionID      string
}

// Reply is the router's answer.
type Reply struct {
	Response        string                `json:"response"`
	Type            ReplyType             `json:"type"`
	Suggestions     []analysis.Suggestion `json:"suggestions,omitempty"`
	ExplanationData *analysis.Explanation `json:"explanation_data,omitempty"`
	ComparisonData  *analysis.Explanation `json:"comparison_data,omitempty"`
}

// Rewriter restyles a technical answer. Implementations return text unchanged on any failure.
type Rewriter interface {
	Rewrite(ctx context.Context, question, text string) string
}

// Answerer answers free-form MVP questions.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// NoopRewriter returns text as is.
type NoopRewriter struct{}

func (NoopRewriter) Rewrite(_ context.Context, _, text string) string {
	return text
}
