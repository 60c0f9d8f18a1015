package agents

import (
	"context"
	"fmt"

	"github.com/campusmesh/campusmesh/core"
	"github.com/campusmesh/campusmesh/logging"
	"github.com/campusmesh/campusmesh/trace"
)

// RAGAgentID identifies the retrieval-augmented fallback agent.
const RAGAgentID = "rag"

// ragFallbackText is returned when even the fallback backend fails. The
// catch-all must always produce an answer.
const ragFallbackText = "I'm sorry, I could not process your request right now. Please try again in a moment."

// RAGOptions configures a RAGAgent.
type RAGOptions struct {
	Logger logging.Logger
}

// RAGAgent is the universal catch-all. It claims every turn and never returns
// an error: when the answering backend fails the agent degrades to a canned
// apology instead of failing the turn.
type RAGAgent struct {
	answerer core.Answerer
	logger   logging.Logger
}

// NewRAGAgent constructs the fallback agent around an answering backend.
func NewRAGAgent(answerer core.Answerer, optFns ...func(o *RAGOptions)) *RAGAgent {
	opts := RAGOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RAGAgent{answerer: answerer, logger: opts.Logger}
}

// ID implements the agent contract.
func (a *RAGAgent) ID() string { return RAGAgentID }

// CanHandle always claims the turn.
func (a *RAGAgent) CanHandle(_ *core.TurnContext, _ *core.Session) bool { return true }

// Handle answers the turn through the generic backend with the full turn
// context a specialized agent would get.
func (a *RAGAgent) Handle(ctx context.Context, tc *core.TurnContext, sess *core.Session, rec *trace.Recorder) (*core.Result, error) {
	req := core.AnswerRequest{
		Query:          tc.Query,
		Session:        sess,
		Classification: tc.Intent(),
	}
	if req.Classification != nil {
		req.Intent = req.Classification.Intent
	}

	step := rec.AddStep("answer",
		fmt.Sprintf("Answering %q through the generic backend", tc.Query),
		"answer")

	text, err := a.answerer.Answer(ctx, req)
	if err != nil || text == "" {
		if err != nil {
			a.logger.Error("rag: answer failed session=%s err=%v", tc.SessionID, err)
			rec.UpdateObservation(step, fmt.Sprintf("error: %v", err))
		} else {
			rec.UpdateObservation(step, "empty answer")
		}
		text = ragFallbackText
	} else {
		rec.UpdateObservation(step, "answered")
	}

	return &core.Result{
		AnswerText: text,
		Status:     core.StatusOK,
		Intent:     req.Intent,
		AgentID:    RAGAgentID,
	}, nil
}
