package quiz

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shokouhi/HootieChat/models"

	"github.com/samber/lo"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	htmlTag       = regexp.MustCompile(`<[^>]+>`)
)

// collapseWhitespace flattens model output into a single line.
func collapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

func stripHTML(text string) string {
	return htmlTag.ReplaceAllString(text, "")
}

var accentFolds = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n",
)

// foldAccents lowercases and strips the common diacritics so accent slips
// grade as near-misses rather than failures.
func foldAccents(text string) string {
	return accentFolds.Replace(strings.ToLower(strings.TrimSpace(text)))
}

// scoreLiteral grades an answer on the fixed ladder: exact 1.0, accent-only
// difference 0.95, containment partial credit, otherwise 0.0.
func scoreLiteral(userAnswer, correctAnswer string, containmentScore float64) models.Validation {
	user := strings.ToLower(strings.TrimSpace(userAnswer))
	correct := strings.ToLower(strings.TrimSpace(correctAnswer))

	if user == correct {
		return models.Validation{Correct: true, Score: 1.0, Feedback: "Correct! Well done."}
	}

	if foldAccents(user) == foldAccents(correct) {
		return models.Validation{
			Correct:  true,
			Score:    0.95,
			Feedback: fmt.Sprintf("Almost perfect! The correct answer is '%s' (watch the accents).", correctAnswer),
		}
	}

	if user != "" && (strings.Contains(user, correct) || strings.Contains(correct, user)) {
		return models.Validation{
			Correct:  false,
			Score:    containmentScore,
			Feedback: fmt.Sprintf("Close, but not exact. The correct answer is '%s'.", correctAnswer),
		}
	}

	return models.Validation{
		Correct:  false,
		Score:    0.0,
		Feedback: fmt.Sprintf("The correct answer is '%s'. Keep practicing!", correctAnswer),
	}
}

// recentContent gathers words and answers from the last few results so
// generators can steer away from repeats.
type recentContent struct {
	Words     []string
	Answers   []string
	Sentences []string
}

const recentWindow = 5

func recentQuizContent(results []models.QuizResult) recentContent {
	var content recentContent
	if len(results) > recentWindow {
		results = results[len(results)-recentWindow:]
	}

	for _, qr := range results {
		if qr.Context == nil {
			continue
		}
		expected := strings.ToLower(strings.TrimSpace(qr.Context.ExpectedAnswer))

		switch qr.TestType {
		case "image_detection":
			if expected != "" {
				content.Words = append(content.Words, expected)
			}
		case "keyword_match":
			for _, w := range qr.Context.Words {
				if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
					content.Words = append(content.Words, w)
				}
			}
		case "unit_completion", "podcast", "reading":
			if expected != "" {
				content.Answers = append(content.Answers, expected)
			}
		case "pronunciation":
			if expected != "" {
				content.Sentences = append(content.Sentences, expected)
			}
		}
	}

	content.Words = lo.Uniq(content.Words)
	content.Answers = lo.Uniq(content.Answers)
	content.Sentences = lo.Uniq(content.Sentences)
	return content
}

// avoidClause renders an avoid-list line for a generation prompt, or an
// empty string when there is nothing to avoid.
func avoidClause(label string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	return fmt.Sprintf("\n- Do NOT reuse these recent %s: %s", label, strings.Join(items, ", "))
}

// interestsClause renders the topic-only personalization rule.
func interestsClause(interests string) string {
	if interests == "" {
		return ""
	}
	return fmt.Sprintf("\n- If interests provided (%s), use that TOPIC/THEME for content (e.g., if \"tennis\", write about tennis in general, NOT about the specific student)", interests)
}
