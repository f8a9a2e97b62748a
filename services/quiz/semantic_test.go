package quiz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	content string
	err     error
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.content}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

func TestScoreSemantic(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		wantCorrect bool
		wantScore   float64
	}{
		{name: "full credit", response: `{"score": 1.0, "reasoning": "exact"}`, wantCorrect: true, wantScore: 1.0},
		{name: "synonym above threshold", response: `{"score": 0.85, "reasoning": "synonym"}`, wantCorrect: true, wantScore: 0.85},
		{name: "below threshold", response: `{"score": 0.4, "reasoning": "different meaning"}`, wantCorrect: false, wantScore: 0.4},
		{name: "fenced output", response: "```json\n{\"score\": 0.9, \"reasoning\": \"ok\"}\n```", wantCorrect: true, wantScore: 0.9},
		{name: "clamped above one", response: `{"score": 1.4, "reasoning": "overshoot"}`, wantCorrect: true, wantScore: 1.0},
		{name: "clamped below zero", response: `{"score": -0.2, "reasoning": "undershoot"}`, wantCorrect: false, wantScore: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Service{llm: &fakeModel{content: tt.response}}
			got := s.scoreSemantic(context.Background(), "fill in the blank", "jardín", "jardín", 0.3)
			assert.Equal(t, tt.wantCorrect, got.Correct)
			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
		})
	}
}

func TestScoreSemanticFallsBackOnError(t *testing.T) {
	s := &Service{llm: &fakeModel{err: errors.New("model unavailable")}}
	got := s.scoreSemantic(context.Background(), "fill in the blank", "jardín", "jardin", 0.3)
	// Literal ladder takes over: accent-only difference.
	assert.True(t, got.Correct)
	assert.InDelta(t, 0.95, got.Score, 1e-9)
}

func TestScoreSemanticFallsBackOnBadJSON(t *testing.T) {
	s := &Service{llm: &fakeModel{content: "not json at all"}}
	got := s.scoreSemantic(context.Background(), "fill in the blank", "jardín", "mesa", 0.3)
	assert.False(t, got.Correct)
	assert.Zero(t, got.Score)
}
