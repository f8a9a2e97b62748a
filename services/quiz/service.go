package quiz

import (
	"context"
	"fmt"

	"github.com/shokouhi/HootieChat/models"
	"github.com/shokouhi/HootieChat/services"
	"github.com/shokouhi/HootieChat/services/cefr"
	"github.com/shokouhi/HootieChat/services/media"
	"github.com/shokouhi/HootieChat/services/speech"

	"github.com/mmcdole/gofeed"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Service generates and validates the six exercise kinds. The media and
// speech collaborators are optional; when unavailable the exercises ship
// degraded (no image, no audio, zero speech scores) instead of failing.
type Service struct {
	llm      llms.Model
	sessions *services.SessionService
	media    *media.Service
	speech   *speech.Service
	parser   *gofeed.Parser
	feedURL  string
}

func NewService(sessions *services.SessionService, mediaService *media.Service, speechService *speech.Service, apiKey, feedURL string) (*Service, error) {
	llm, err := openai.New(
		openai.WithModel("gpt-4o-mini"),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %v", err)
	}

	return &Service{
		llm:      llm,
		sessions: sessions,
		media:    mediaService,
		speech:   speechService,
		parser:   gofeed.NewParser(),
		feedURL:  feedURL,
	}, nil
}

func (s *Service) complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := s.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, llms.WithTemperature(0.7))
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return resp.Choices[0].Content, nil
}

// learnerContext is the per-session view the generators work from.
type learnerContext struct {
	language  string
	interests string
	level     string
	results   []models.QuizResult
}

func (s *Service) learner(sessionID string) (*learnerContext, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Profile.TargetLanguage == "" {
		return nil, fmt.Errorf("target language must be set before generating exercises")
	}

	scores := make([]float64, len(session.QuizResults))
	for i, qr := range session.QuizResults {
		scores[i] = qr.Score
	}

	return &learnerContext{
		language:  session.Profile.TargetLanguage,
		interests: session.Profile.Interests,
		level:     cefr.Resolve(session.Profile.LanguageLevel, scores),
		results:   session.QuizResults,
	}, nil
}
