package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shokouhi/HootieChat/models"
	"github.com/shokouhi/HootieChat/services/cefr"
)

// GeneratePronunciation builds a short sentence (3-8 words) for the
// learner to read aloud.
func (s *Service) GeneratePronunciation(ctx context.Context, sessionID string) (*models.PronunciationQuiz, error) {
	lc, err := s.learner(sessionID)
	if err != nil {
		return nil, err
	}

	targetLevel := cefr.TargetBand(lc.level, false)
	recent := recentQuizContent(lc.results)

	prompt := fmt.Sprintf(`Generate a short %s sentence (3-8 words) for pronunciation practice.

Student's CEFR Level:
%s

Requirements:
- The sentence should match the student's language abilities as described above%s
- NEVER use the student's actual name, age, or personal details
- Sentence should be natural and conversational
- Vocabulary and complexity should match the level described above
- Good for pronunciation practice (mix of vowels, consonants, common sounds)
- Maximum 8 words, minimum 3 words%s

Return ONLY the sentence, nothing else. No punctuation marks except period at the end if needed.

Generate the sentence now:`,
		lc.language,
		cefr.FormatForPrompt(targetLevel),
		interestsClause(lc.interests),
		avoidClause("sentences", recent.Sentences))

	system := fmt.Sprintf("You are a %s teacher creating pronunciation exercises. Respond with ONLY the %s sentence.", lc.language, lc.language)
	content, err := s.complete(ctx, system, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate pronunciation sentence: %w", err)
	}

	sentence := strings.TrimRight(collapseWhitespace(content), ".")
	if sentence == "" {
		return nil, fmt.Errorf("generated pronunciation sentence is empty")
	}

	if err := s.sessions.SetActiveQuiz(sessionID, &models.ActiveQuiz{
		TestType:   "pronunciation",
		Sentence:   sentence,
		Difficulty: targetLevel,
	}); err != nil {
		return nil, err
	}

	return &models.PronunciationQuiz{
		Sentence:      sentence,
		Difficulty:    targetLevel,
		OriginalLevel: lc.level,
	}, nil
}

// ValidatePronunciation scores recorded audio against the pinned sentence
// and records the normalized pronunciation score. Assessment failures
// surface as zero scores with an error message, never as a request error.
func (s *Service) ValidatePronunciation(ctx context.Context, sessionID string, audio []byte, referenceText string) (*models.PronunciationValidation, error) {
	active, err := s.sessions.TakeActiveQuiz(sessionID, "pronunciation")
	if err != nil {
		return nil, err
	}

	reference := referenceText
	difficulty := ""
	if active != nil {
		if active.Sentence != "" {
			reference = active.Sentence
		}
		difficulty = active.Difficulty
	}
	if reference == "" {
		return nil, fmt.Errorf("no reference sentence to assess against")
	}

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	var validation *models.PronunciationValidation
	if s.speech != nil {
		validation = s.speech.Assess(ctx, audio, reference, session.Profile.TargetLanguage)
	} else {
		validation = &models.PronunciationValidation{Error: "speech assessment not configured"}
	}

	metrics, _ := json.Marshal(validation)
	if _, err := s.sessions.SaveQuizResult(sessionID, "pronunciation", reference, validation.PronunciationScore/100.0, &models.QuizContext{
		ExpectedAnswer:  reference,
		DifficultyLevel: difficulty,
		RawMetrics:      string(metrics),
	}); err != nil {
		return nil, err
	}
	return validation, nil
}
