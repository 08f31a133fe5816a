package chat

import (
	"context"
	"log/slog"

	"github.com/ZanzyTHEbar/mvp-o-meter/internal/analysis"
)

// Router answers chat messages about the caller's last submitted stat line.
type Router struct {
	explainer *analysis.Explainer
	sessions  SessionStore
	rewriter  Rewriter
	answerer  Answerer
	budget    Budget
	logger    *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithRewriter restyles improvement and explanation replies.
func WithRewriter(rw Rewriter) Option {
	return func(r *Router) { r.rewriter = rw }
}

// WithAnswerer answers general questions. Without one they get the apology reply.
func WithAnswerer(a Answerer) Option {
	return func(r *Router) { r.answerer = a }
}

// WithBudget caps rewriter and answerer calls. Without one calls are unlimited.
func WithBudget(b Budget) Option {
	return func(r *Router) { r.budget = b }
}

// WithLogger sets the logger for session store failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// NewRouter creates a router keeping per-session context in sessions.
func NewRouter(explainer *analysis.Explainer, sessions SessionStore, opts ...Option) *Router {
	r := &Router{
		explainer: explainer,
		sessions:  sessions,
		rewriter:  NoopRewriter{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleMessage routes req to its handler. It never fails: problems surface
// as instruction or error replies.
func (r *Router) HandleMessage(ctx context.Context, req Request) Reply {
	profile, ok := r.profileFor(ctx, req)

	switch ClassifyIntent(req.Message) {
	case IntentImprovement:
		if !ok {
			return Reply{Response: needPredictionForImprovement, Type: ReplyInstruction}
		}
		return r.improvement(ctx, req.Message, profile)
	case IntentExplanation:
		if !ok {
			return Reply{Response: needPredictionForExplanation, Type: ReplyInstruction}
		}
		return r.explanation(ctx, req.Message, profile)
	case IntentComparison:
		if !ok {
			return Reply{Response: needPredictionForComparison, Type: ReplyInstruction}
		}
		return r.comparison(profile)
	default:
		return r.general(ctx, req.Message)
	}
}

// profileFor stores a fresh profile from req or loads the session's last one.
func (r *Router) profileFor(ctx context.Context, req Request) (analysis.Profile, bool) {
	if len(req.PredictionData) > 0 {
		if err := r.sessions.Save(ctx, req.SessionID, req.PredictionData); err != nil {
			r.logger.Warn("Failed to save chat session", "session_id", req.SessionID, "error", err)
		}
		return req.PredictionData, true
	}

	profile, ok, err := r.sessions.Load(ctx, req.SessionID)
	if err != nil {
		r.logger.Warn("Failed to load chat session", "session_id", req.SessionID, "error", err)
		return nil, false
	}
	return profile, ok
}

func (r *Router) improvement(ctx context.Context, message string, profile analysis.Profile) Reply {
	suggestions := r.explainer.Suggest(profile)
	return Reply{
		Response:    r.rewrite(ctx, message, improvementText(suggestions)),
		Type:        ReplyImprovement,
		Suggestions: suggestions,
	}
}

func (r *Router) explanation(ctx context.Context, message string, profile analysis.Profile) Reply {
	ex := r.explainer.Explain(profile)
	return Reply{
		Response:        r.rewrite(ctx, message, explanationText(ex)),
		Type:            ReplyExplanation,
		ExplanationData: &ex,
	}
}

func (r *Router) comparison(profile analysis.Profile) Reply {
	ex := r.explainer.Explain(profile)
	return Reply{
		Response:       comparisonText(ex),
		Type:           ReplyComparison,
		ComparisonData: &ex,
	}
}

func (r *Router) general(ctx context.Context, message string) Reply {
	if r.answerer == nil {
		return Reply{Response: generalFailureText, Type: ReplyError}
	}
	if r.budget != nil && !r.budget.Acquire(ctx) {
		return Reply{Response: budgetExhaustedText, Type: ReplyError}
	}

	answer, err := r.answerer.Answer(ctx, message)
	if err != nil {
		r.logger.Warn("General chat answer failed", "error", err)
		return Reply{Response: generalFailureText, Type: ReplyError}
	}
	return Reply{Response: answer, Type: ReplyGeneral}
}

// rewrite returns text unchanged once the budget is spent.
func (r *Router) rewrite(ctx context.Context, message, text string) string {
	if _, noop := r.rewriter.(NoopRewriter); noop {
		return text
	}
	if r.budget != nil && !r.budget.Acquire(ctx) {
		return text
	}
	return r.rewriter.Rewrite(ctx, message, text)
}
