package quiz

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shokouhi/HootieChat/models"
	"github.com/shokouhi/HootieChat/services/cefr"
)

var (
	correctAnswerMarker = regexp.MustCompile(`(?i)CORRECT_ANSWER:\s*(.+)`)
	hintMarker          = regexp.MustCompile(`(?i)HINT:\s*(.+)`)
)

// GenerateUnitCompletion builds a fill-in-the-blank exercise: a short
// passage with one word replaced by [MASK], plus a hint. The masked word
// is pinned server side for validation.
func (s *Service) GenerateUnitCompletion(ctx context.Context, sessionID string) (*models.UnitCompletionQuiz, error) {
	lc, err := s.learner(sessionID)
	if err != nil {
		return nil, err
	}

	targetLevel := cefr.TargetBand(lc.level, false)
	recent := recentQuizContent(lc.results)

	prompt := fmt.Sprintf(`Generate a %s sentence completion exercise for a student at the following CEFR level:

%s

Requirements:
- Create 2-3 short, related sentences (total 15-30 words)
- The content should match the student's language abilities as described above%s
- NEVER use the student's actual name, age, or personal details in the content
- Use generic subjects (people, someone, a student) rather than specific names
- Choose ONE key word to mask (noun, verb, adjective, or adverb)
- The masked word should be appropriate for the student's level as described above
- Make the context clear enough that the word can be guessed based on the student's level%s

Format:
1. Write the sentences with [MASK] where the word should go
2. On a new line, write "CORRECT_ANSWER: [the masked word in %s]"
3. On another line, write "HINT: [a brief hint in %s, max 5 words]"

Generate the exercise now:`,
		lc.language,
		cefr.FormatForPrompt(targetLevel),
		interestsClause(lc.interests),
		avoidClause("answers", recent.Answers),
		lc.language, lc.language)

	system := fmt.Sprintf("You are a %s language teacher creating sentence completion exercises. Always respond in the requested format.", lc.language)
	content, err := s.complete(ctx, system, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate unit completion exercise: %w", err)
	}

	sentence, answer, hint := parseUnitCompletion(content)
	if answer == "" {
		return nil, fmt.Errorf("generated exercise is missing an answer")
	}

	if err := s.sessions.SetActiveQuiz(sessionID, &models.ActiveQuiz{
		TestType:   "unit_completion",
		Answer:     answer,
		Sentence:   sentence,
		Hint:       hint,
		Difficulty: targetLevel,
	}); err != nil {
		return nil, err
	}

	return &models.UnitCompletionQuiz{
		Sentence:      sentence,
		MaskedWord:    answer,
		Hint:          hint,
		Difficulty:    targetLevel,
		OriginalLevel: lc.level,
	}, nil
}

func parseUnitCompletion(content string) (sentence, answer, hint string) {
	loc := correctAnswerMarker.FindStringSubmatchIndex(content)
	if loc == nil {
		return "", "", ""
	}
	sentence = collapseWhitespace(content[:loc[0]])
	answer = strings.ToLower(strings.TrimSpace(content[loc[2]:loc[3]]))

	if m := hintMarker.FindStringSubmatch(content); m != nil {
		hint = strings.TrimSpace(m[1])
	}

	// Re-insert the mask if the model wrote the passage without it.
	if !strings.Contains(strings.ToUpper(sentence), "[MASK]") && answer != "" {
		wordRe, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(answer) + `\b`)
		if err == nil {
			sentence = wordRe.ReplaceAllString(sentence, "[MASK]")
		}
	}
	return sentence, answer, hint
}

// ValidateUnitCompletion grades the learner's word against the pinned
// answer, semantic-first with the literal ladder as fallback, and records
// the result.
func (s *Service) ValidateUnitCompletion(ctx context.Context, sessionID, userAnswer string) (*models.Validation, error) {
	active, err := s.sessions.TakeActiveQuiz(sessionID, "unit_completion")
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, fmt.Errorf("no unit completion exercise is in progress")
	}

	exercise := fmt.Sprintf("Fill in the blank: %s", active.Sentence)
	validation := s.scoreSemantic(ctx, exercise, active.Answer, userAnswer, 0.3)
	validation.CorrectAnswer = active.Answer

	if _, err := s.sessions.SaveQuizResult(sessionID, "unit_completion", userAnswer, validation.Score, &models.QuizContext{
		ExpectedAnswer:  active.Answer,
		DifficultyLevel: active.Difficulty,
	}); err != nil {
		return nil, err
	}
	return &validation, nil
}
