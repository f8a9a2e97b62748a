package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/shokouhi/HootieChat/models"
)

const semanticThreshold = 0.8

const semanticSystemPrompt = `You are grading a language learner's answer for semantic equivalence with the expected answer. Judge meaning, not surface form: synonyms, valid alternative phrasings, and harmless spelling slips count toward the score. Return ONLY a JSON object: {"score": <0.0-1.0>, "reasoning": "<1-2 sentences>"}`

type semanticGrade struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// scoreSemantic grades an answer by meaning via one completion call. Any
// failure (call error, unparseable output) falls back to the literal
// ladder, so grading never fails a validation request.
func (s *Service) scoreSemantic(ctx context.Context, exercise, expected, given string, containmentScore float64) models.Validation {
	prompt := fmt.Sprintf(`Exercise context:
%s

Expected answer: %s
Learner's answer: %s

Score the learner's answer for semantic equivalence. Return JSON only.`, exercise, expected, given)

	raw, err := s.complete(ctx, semanticSystemPrompt, prompt)
	if err != nil {
		log.Printf("[ERROR] Semantic grading failed, using literal match: %v", err)
		return scoreLiteral(given, expected, containmentScore)
	}

	var grade semanticGrade
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &grade); err != nil {
		log.Printf("[ERROR] Semantic grading returned unparseable output, using literal match: %v", err)
		return scoreLiteral(given, expected, containmentScore)
	}

	if grade.Score < 0 {
		grade.Score = 0
	}
	if grade.Score > 1 {
		grade.Score = 1
	}

	validation := models.Validation{
		Correct: grade.Score >= semanticThreshold,
		Score:   grade.Score,
	}
	switch {
	case validation.Correct && grade.Score >= 1.0:
		validation.Feedback = "Correct! Well done."
	case validation.Correct:
		validation.Feedback = fmt.Sprintf("That works! The expected answer was '%s'.", expected)
	default:
		validation.Feedback = fmt.Sprintf("Not quite. The correct answer is '%s'. Keep practicing!", expected)
	}
	return validation
}

// stripCodeFences removes a markdown ```json wrapper the model sometimes
// adds around JSON output.
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
