package quiz

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shokouhi/HootieChat/models"
	"github.com/shokouhi/HootieChat/services/cefr"
)

const keywordPairCount = 5

// defaultWordPairs pads a short generation so the exercise always ships
// with a full set.
var defaultWordPairs = []models.WordPair{
	{Word: "casa", English: "house"},
	{Word: "perro", English: "dog"},
	{Word: "agua", English: "water"},
	{Word: "libro", English: "book"},
	{Word: "mesa", English: "table"},
}

var (
	targetWordLine  = regexp.MustCompile(`(?i)^WORD\d+_TARGET:\s*(.+)$`)
	englishWordLine = regexp.MustCompile(`(?i)^WORD\d+_ENGLISH:\s*(.+)$`)
	loosePairLine   = regexp.MustCompile(`(\w+)\s*:\s*(\w+)`)
)

// GenerateKeywordMatch builds a vocabulary matching exercise of five
// target-language/English word pairs and pins them for validation.
func (s *Service) GenerateKeywordMatch(ctx context.Context, sessionID string) (*models.KeywordMatchQuiz, error) {
	lc, err := s.learner(sessionID)
	if err != nil {
		return nil, err
	}

	targetLevel := cefr.TargetBand(lc.level, false)
	recent := recentQuizContent(lc.results)

	prompt := fmt.Sprintf(`Generate %d %s-English word pairs for a vocabulary matching exercise.

Student's CEFR Level:
%s

Requirements:
- Choose vocabulary appropriate for the student's language abilities as described above%s
- NEVER use the student's actual name, age, or personal details
- Generate exactly %d pairs
- Each pair should be one %s word and its English translation
- Words should match the vocabulary level described above
- Mix different word types (nouns, verbs, adjectives, etc.)%s

Format your response EXACTLY like this:
WORD1_TARGET: word in %s
WORD1_ENGLISH: word in English

WORD2_TARGET: word in %s
WORD2_ENGLISH: word in English

(Continue for all %d pairs)

Generate %d pairs now for %s level:`,
		keywordPairCount, lc.language,
		cefr.FormatForPrompt(targetLevel),
		interestsClause(lc.interests),
		keywordPairCount, lc.language,
		avoidClause("words", recent.Words),
		lc.language, lc.language,
		keywordPairCount, keywordPairCount, targetLevel)

	system := fmt.Sprintf("You are a %s language teacher creating vocabulary matching exercises. Always respond in the exact format requested.", lc.language)
	content, err := s.complete(ctx, system, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keyword match exercise: %w", err)
	}

	pairs := parseWordPairs(content)

	if err := s.sessions.SetActiveQuiz(sessionID, &models.ActiveQuiz{
		TestType:   "keyword_match",
		Pairs:      pairs,
		Difficulty: targetLevel,
	}); err != nil {
		return nil, err
	}

	return &models.KeywordMatchQuiz{
		Pairs:         pairs,
		Difficulty:    targetLevel,
		OriginalLevel: lc.level,
	}, nil
}

func parseWordPairs(content string) []models.WordPair {
	var pairs []models.WordPair
	var currentWord string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if m := targetWordLine.FindStringSubmatch(line); m != nil {
			currentWord = strings.TrimSpace(m[1])
		} else if m := englishWordLine.FindStringSubmatch(line); m != nil && currentWord != "" {
			pairs = append(pairs, models.WordPair{Word: currentWord, English: strings.TrimSpace(m[1])})
			currentWord = ""
		}
	}

	// Looser parse when the model ignored the markers entirely.
	if len(pairs) == 0 {
		for _, m := range loosePairLine.FindAllStringSubmatch(content, keywordPairCount) {
			if len(pairs) >= keywordPairCount {
				break
			}
			pairs = append(pairs, models.WordPair{Word: strings.TrimSpace(m[1]), English: strings.TrimSpace(m[2])})
		}
	}

	for len(pairs) < keywordPairCount {
		pairs = append(pairs, defaultWordPairs[len(pairs)])
	}
	return pairs[:keywordPairCount]
}

// ValidateKeywordMatch grades the learner's attempted matches against the
// pinned pairs and records the fraction correct.
func (s *Service) ValidateKeywordMatch(ctx context.Context, sessionID string, matches []models.WordPair) (*models.KeywordMatchValidation, error) {
	active, err := s.sessions.TakeActiveQuiz(sessionID, "keyword_match")
	if err != nil {
		return nil, err
	}
	if active == nil || len(active.Pairs) == 0 {
		return nil, fmt.Errorf("no keyword match exercise is in progress")
	}

	correctMap := make(map[string]string, len(active.Pairs))
	words := make([]string, 0, len(active.Pairs))
	for _, pair := range active.Pairs {
		correctMap[strings.ToLower(strings.TrimSpace(pair.Word))] = strings.ToLower(strings.TrimSpace(pair.English))
		words = append(words, pair.Word)
	}

	validation := &models.KeywordMatchValidation{Results: make([]models.MatchResult, 0, len(matches))}
	for _, match := range matches {
		word := strings.ToLower(strings.TrimSpace(match.Word))
		english := strings.ToLower(strings.TrimSpace(match.English))

		correctEnglish, known := correctMap[word]
		isCorrect := known && english == correctEnglish
		if isCorrect {
			validation.CorrectCount++
		}

		result := models.MatchResult{Word: match.Word, English: match.English, IsCorrect: isCorrect}
		if !isCorrect {
			result.CorrectEnglish = correctEnglish
		}
		validation.Results = append(validation.Results, result)
	}

	validation.Total = len(validation.Results)
	if validation.Total > 0 {
		validation.Score = float64(validation.CorrectCount) / float64(validation.Total)
	}
	validation.AllCorrect = validation.Total > 0 && validation.CorrectCount == validation.Total

	userInput := formatMatches(matches)
	if _, err := s.sessions.SaveQuizResult(sessionID, "keyword_match", userInput, validation.Score, &models.QuizContext{
		DifficultyLevel: active.Difficulty,
		Words:           words,
	}); err != nil {
		return nil, err
	}
	return validation, nil
}

func formatMatches(matches []models.WordPair) string {
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = fmt.Sprintf("%s=%s", m.Word, m.English)
	}
	return strings.Join(parts, ", ")
}
