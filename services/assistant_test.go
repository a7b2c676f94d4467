package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCompleter struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, systemMessage, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.response, f.err
}

func TestAssistantRoute(t *testing.T) {
	assistant := NewAssistant(nil, nil, zap.NewNop())

	tests := []struct {
		message  string
		expected string
	}{
		{"Which journals are the most subscribed?", "top_journals"},
		{"show me the TOP JOURNALS please", "top_journals"},
		{"how much do we spend per year?", "spending"},
		{"what is the most expensive subscription?", "spending"},
		{"who should get a trial offer?", "trial_candidates"},
		{"journals browsed but not subscribed", "trial_candidates"},
		{"how is engagement looking?", "engagement"},
		{"average session length?", "engagement"},
		{"breakdown by subject area", "subjects"},
		{"which publisher dominates?", "publishers"},
		{"compare the universities", "comparison"},
		{"Aalborg vs Lund", "comparison"},
		{"hello there", "overview"},
		{"", "overview"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.expected, assistant.Route(tt.message))
		})
	}
}

func TestAssistantAnswerWithoutLLM(t *testing.T) {
	db := newTestDB(t)
	seedReportData(t, db)
	assistant := NewAssistant(NewReportService(db, zap.NewNop()), nil, zap.NewNop())

	reply, err := assistant.Answer(context.Background(), "give me an overview")
	require.NoError(t, err)
	assert.Equal(t, "template", reply.Source)
	assert.Equal(t, "overview", reply.Report)
	assert.Contains(t, reply.Answer, "2 universities")
}

func TestAssistantAnswerWithLLM(t *testing.T) {
	db := newTestDB(t)
	seedReportData(t, db)
	llm := &fakeCompleter{response: "You track two universities."}
	assistant := NewAssistant(NewReportService(db, zap.NewNop()), llm, zap.NewNop())

	reply, err := assistant.Answer(context.Background(), "give me an overview")
	require.NoError(t, err)
	assert.Equal(t, "llm", reply.Source)
	assert.Equal(t, "You track two universities.", reply.Answer)
	assert.Contains(t, llm.lastPrompt, "give me an overview")
	assert.Contains(t, llm.lastPrompt, "2 universities", "the rendered report must be part of the prompt")
}

func TestAssistantFallsBackOnLLMError(t *testing.T) {
	db := newTestDB(t)
	seedReportData(t, db)
	llm := &fakeCompleter{err: errors.New("upstream timeout")}
	assistant := NewAssistant(NewReportService(db, zap.NewNop()), llm, zap.NewNop())

	reply, err := assistant.Answer(context.Background(), "what do we spend?")
	require.NoError(t, err, "LLM failures must never surface as chat errors")
	assert.Equal(t, "template", reply.Source)
	assert.Equal(t, "spending", reply.Report)
	assert.Contains(t, reply.Answer, "Aalborg University")
}

func TestAssistantFallsBackOnBlankLLMResponse(t *testing.T) {
	db := newTestDB(t)
	seedReportData(t, db)
	llm := &fakeCompleter{response: "   "}
	assistant := NewAssistant(NewReportService(db, zap.NewNop()), llm, zap.NewNop())

	reply, err := assistant.Answer(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "template", reply.Source)
	assert.NotEmpty(t, reply.Answer)
}

func TestAssistantAnswerOnEmptyDatabase(t *testing.T) {
	assistant := NewAssistant(NewReportService(newTestDB(t), zap.NewNop()), nil, zap.NewNop())

	reply, err := assistant.Answer(context.Background(), "top journals?")
	require.NoError(t, err)
	assert.Equal(t, NoDataMessage, reply.Answer)
}
