package quiz

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/shokouhi/HootieChat/models"
	"github.com/shokouhi/HootieChat/services/cefr"
)

var nonLetterRun = regexp.MustCompile(`[^\p{L}]`)

// GenerateImageDetection picks a level-appropriate noun, renders it as a
// cartoon illustration, and asks the learner to name the object. Image
// generation failures degrade to a word-only exercise.
func (s *Service) GenerateImageDetection(ctx context.Context, sessionID string) (*models.ImageDetectionQuiz, error) {
	lc, err := s.learner(sessionID)
	if err != nil {
		return nil, err
	}

	targetLevel := cefr.TargetBand(lc.level, false)
	recent := recentQuizContent(lc.results)

	prompt := fmt.Sprintf(`Select a %s word for a common, recognizable object appropriate for a student at the following CEFR level:

%s

The word should be:
- A noun (object/item)
- Common and easily recognizable
- Appropriate vocabulary for the student's level as described above
- Something that can be clearly illustrated in a simple cartoon style%s%s

Return ONLY the %s word, nothing else.

Return the word now:`,
		lc.language,
		cefr.FormatForPrompt(targetLevel),
		interestsClause(lc.interests),
		avoidClause("words", recent.Words),
		lc.language)

	system := fmt.Sprintf("You are a %s teacher selecting vocabulary words. Respond with ONLY the %s word.", lc.language, lc.language)
	content, err := s.complete(ctx, system, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to pick an object word: %w", err)
	}

	objectWord := nonLetterRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(content)), "")
	if objectWord == "" {
		return nil, fmt.Errorf("word selection returned no usable word")
	}

	var imageURL, imageBase64 string
	if s.media != nil {
		imageURL, imageBase64, err = s.media.GenerateWordImage(ctx, objectWord)
		if err != nil {
			log.Printf("[ERROR] Image generation failed for %q: %v", objectWord, err)
			imageURL, imageBase64 = "", ""
		}
	}

	if err := s.sessions.SetActiveQuiz(sessionID, &models.ActiveQuiz{
		TestType:   "image_detection",
		Answer:     objectWord,
		Difficulty: targetLevel,
	}); err != nil {
		return nil, err
	}

	return &models.ImageDetectionQuiz{
		ObjectWord:    objectWord,
		ImageURL:      imageURL,
		ImageBase64:   imageBase64,
		Difficulty:    targetLevel,
		OriginalLevel: lc.level,
	}, nil
}

// ValidateImageDetection grades the learner's word for the pictured object
// and records the result.
func (s *Service) ValidateImageDetection(ctx context.Context, sessionID, userAnswer string) (*models.Validation, error) {
	active, err := s.sessions.TakeActiveQuiz(sessionID, "image_detection")
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, fmt.Errorf("no image detection exercise is in progress")
	}

	exercise := fmt.Sprintf("Name the object shown in the picture. The pictured object is '%s'.", active.Answer)
	validation := s.scoreSemantic(ctx, exercise, active.Answer, userAnswer, 0.0)
	validation.CorrectAnswer = active.Answer

	if _, err := s.sessions.SaveQuizResult(sessionID, "image_detection", userAnswer, validation.Score, &models.QuizContext{
		ExpectedAnswer:  active.Answer,
		DifficultyLevel: active.Difficulty,
	}); err != nil {
		return nil, err
	}
	return &validation, nil
}
