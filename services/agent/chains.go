package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/shokouhi/HootieChat/models"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/tmc/langchaingo/llms"
)

// Auxiliary chains: single completion calls that shape the tutor's turn.
// Each one parses JSON out of the model's reply and degrades to a sane
// default when the reply is unusable, so a bad completion never fails a
// chat request.

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

// generateQuizIntro produces the one-line announcement that rolls a
// feedback turn into the next exercise, in the learner's target language.
func (s *Service) generateQuizIntro(ctx context.Context, targetLanguage, testType string) string {
	raw, err := s.complete(ctx, quizIntroSystemPrompt, quizIntroPrompt(targetLanguage, testType))
	if err != nil {
		log.Printf("[ERROR] Quiz intro generation failed: %v", err)
		return fallbackQuizIntros[testType]
	}
	intro := strings.Trim(strings.TrimSpace(raw), `"`)
	if intro == "" || len(intro) > 200 || strings.Contains(intro, "\n") {
		return fallbackQuizIntros[testType]
	}
	return intro
}

// stripCodeFences removes a markdown ```json wrapper around JSON output.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = text[len("```json"):]
	} else if strings.HasPrefix(text, "```") {
		text = text[len("```"):]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func (s *Service) assessMessage(ctx context.Context, lastUser string) models.Assessment {
	fallback := models.Assessment{Level: "A1", Reason: "Parse error", NextTarget: "Basic vocabulary"}

	prompt := fmt.Sprintf("Evaluate this message per CEFR rubric.\n\nUser:\n%s\n\nRubric:\n%s", lastUser, cefrRubric)
	raw, err := s.complete(ctx, cefrRubric, prompt)
	if err != nil {
		log.Printf("[ERROR] CEFR assessment failed: %v", err)
		return fallback
	}

	var assessment models.Assessment
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &assessment); err != nil || assessment.Level == "" {
		log.Printf("[ERROR] CEFR assessment parse failed: %v", err)
		return fallback
	}
	return assessment
}

type correction struct {
	Correction         string `json:"correction"`
	Explanation        string `json:"explanation"`
	NaturalAlternative string `json:"natural_alternative"`
}

func (s *Service) correctMessage(ctx context.Context, lastUser string) string {
	prompt := fmt.Sprintf("Apply the correction policy and return JSON.\n\nUser:\n%s\n\nPolicy:\n%s", lastUser, correctionPolicy)
	raw, err := s.complete(ctx, correctionPolicy, prompt)
	if err != nil {
		log.Printf("[ERROR] Correction chain failed: %v", err)
		return "{}"
	}

	raw = stripCodeFences(raw)
	var c correction
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		// Pass the raw text through; the tutor prompt tolerates prose here.
		return raw
	}
	return raw
}

type lessonPlan struct {
	Objective  string `json:"objective"`
	Prompt     string `json:"prompt"`
	Support    string `json:"support"`
	Difficulty string `json:"difficulty"`
}

func (s *Service) planLesson(ctx context.Context, profile models.Profile, assessment models.Assessment) lessonPlan {
	fallback := lessonPlan{
		Objective:  "Basic vocabulary",
		Prompt:     "Practice basic words",
		Support:    "Use simple examples",
		Difficulty: "A1",
	}

	profileJSON, _ := json.Marshal(profile)
	assessmentJSON, _ := json.Marshal(assessment)
	prompt := fmt.Sprintf("You are planning the next micro-lesson.\nUser Profile JSON:\n%s\n\nLatest Assessment JSON:\n%s\n\nReturn JSON per spec:\n%s", profileJSON, assessmentJSON, lessonPlanner)

	raw, err := s.complete(ctx, "You are planning the next micro-lesson.", prompt)
	if err != nil {
		log.Printf("[ERROR] Lesson planning failed: %v", err)
		return fallback
	}

	var plan lessonPlan
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &plan); err != nil || plan.Objective == "" {
		log.Printf("[ERROR] Lesson plan parse failed: %v", err)
		return fallback
	}
	return plan
}

type quizAssessment struct {
	Level           string  `json:"level"`
	Reason          string  `json:"reason"`
	Confidence      string  `json:"confidence"`
	AverageScore    float64 `json:"average_score"`
	Recommendations string  `json:"recommendations"`
}

func (s *Service) assessQuizHistory(ctx context.Context, results []models.QuizResult) *quizAssessment {
	if len(results) == 0 {
		return nil
	}

	var lines []string
	total := 0.0
	for _, qr := range results {
		input := qr.UserInput
		if len(input) > 100 {
			input = input[:100]
		}
		lines = append(lines, fmt.Sprintf("Test: %s, Score: %.1f%%, Input: %s", qr.TestType, qr.Score*100, input))
		total += qr.Score
	}
	avg := total / float64(len(results))
	summary := fmt.Sprintf("%s\n\nAverage Score: %.1f%%\nTotal Tests: %d", strings.Join(lines, "\n"), avg*100, len(results))

	prompt := fmt.Sprintf("Evaluate this user's overall language proficiency in their target language based on ALL their quiz results:\n\n%s\n\nRubric:\n%s", summary, quizCEFRAssessment)
	raw, err := s.complete(ctx, quizCEFRAssessment, prompt)
	if err != nil {
		log.Printf("[ERROR] Quiz history assessment failed: %v", err)
		return &quizAssessment{Level: "A1", Reason: "Assessment pending", AverageScore: avg}
	}

	var assessment quizAssessment
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &assessment); err != nil || assessment.Level == "" {
		log.Printf("[ERROR] Quiz history assessment parse failed: %v", err)
		return &quizAssessment{Level: "A1", Reason: "Assessment pending", AverageScore: avg}
	}
	return &assessment
}

type userIntent struct {
	IsHelpRequest       bool           `json:"is_help_request"`
	IsLanguageQuestion  bool           `json:"is_language_question"`
	RequestedTestType   string         `json:"requested_test_type"`
	TestTypePreferences map[string]int `json:"test_type_preferences"`
}

func (s *Service) detectIntent(ctx context.Context, userMessage string) userIntent {
	prompt := fmt.Sprintf(`User message: %s

Return JSON: {"is_help_request": bool, "is_language_question": bool, "requested_test_type": "string or null", "test_type_preferences": {"unit_completion": 0, "keyword_match": 0, "pronunciation": 0, "podcast": 0, "reading": 0, "image_detection": 0}}`, userMessage)

	raw, err := s.complete(ctx, intentSystemPrompt, prompt)
	if err != nil {
		log.Printf("[ERROR] Intent detection failed: %v", err)
		return fallbackIntent(userMessage)
	}

	var intent userIntent
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &intent); err != nil {
		log.Printf("[ERROR] Intent detection parse failed: %v", err)
		return fallbackIntent(userMessage)
	}

	if intent.RequestedTestType != "" && !isKnownTestType(intent.RequestedTestType) {
		intent.RequestedTestType = ""
	}
	return intent
}

// fallbackIntent is a fuzzy keyword pass for when the model's intent JSON
// is unusable. It only tries to catch explicit test type requests, with a
// small edit-distance tolerance for typos.
func fallbackIntent(userMessage string) userIntent {
	var intent userIntent

	words := strings.Fields(strings.ToLower(userMessage))
	for _, testType := range TestTypes {
		for _, labelWord := range strings.Split(testType, "_") {
			if len(labelWord) < 5 {
				continue
			}
			for _, word := range words {
				word = strings.Trim(word, ".,!?¿¡")
				if rank := fuzzy.RankMatchNormalizedFold(word, labelWord); rank >= 0 && rank <= 2 {
					intent.RequestedTestType = testType
					return intent
				}
			}
		}
	}
	return intent
}
