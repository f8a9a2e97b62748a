package quiz

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/shokouhi/HootieChat/models"
	"github.com/shokouhi/HootieChat/services/cefr"

	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"
)

const articleWordCap = 500

// fallbackArticle covers feed outages so the exercise always has source
// material.
var fallbackArticle = sourceArticle{
	Title:   "Man City wins Premier League match",
	Summary: "Manchester City defeated their opponents 2-1 in an exciting Premier League match. The team played well and scored two goals in the second half.",
	URL:     "https://www.bbc.com/sport/football",
}

type sourceArticle struct {
	Title   string
	Summary string
	URL     string
}

var (
	titleMarker    = regexp.MustCompile(`(?is)TITLE:\s*(.+?)(?:TEXT:|$)`)
	textMarker     = regexp.MustCompile(`(?is)TEXT:\s*(.+)`)
	questionMarker = regexp.MustCompile(`(?is)QUESTION:\s*(.+)`)
	scoreMarker    = regexp.MustCompile(`(?i)SCORE:\s*(\d+(?:\.\d+)?)`)
	feedbackMarker = regexp.MustCompile(`(?is)FEEDBACK:\s*(.+?)(?:EXPLANATION:|$)`)
	explainMarker  = regexp.MustCompile(`(?is)EXPLANATION:\s*(.+)`)
)

// GenerateReading pulls a news article from the RSS feed, translates it to
// the learner's language at their exact level, and asks one comprehension
// question. Reading stays at the resolved level rather than one band up.
func (s *Service) GenerateReading(ctx context.Context, sessionID string) (*models.ReadingQuiz, error) {
	lc, err := s.learner(sessionID)
	if err != nil {
		return nil, err
	}

	targetLevel := cefr.TargetBand(lc.level, true)
	article := s.fetchArticle(ctx)

	translationPrompt := fmt.Sprintf(`Translate the following English sports news article to %s, adapting it for a student at the following CEFR level:

%s

Original Title: %s

Original Article: %s

Requirements:
- Translate to natural but SIMPLE %s appropriate for the student's exact level
- Match the vocabulary and sentence complexity EXACTLY to the level described above
- For A1/A2: HEAVILY simplify, using only the most basic %s vocabulary and grammar, with short sentences
- Break long sentences into multiple short sentences
- Maintain all key information and facts
- Keep it engaging and readable at the student's exact level
- Maximum 150 words for A1, 200 words for A2, up to 400 for higher levels

Format your response EXACTLY like this:

TITLE: [Translated %s title]
TEXT: [Translated %s article text]

Translate now:`,
		lc.language,
		cefr.FormatForPrompt(targetLevel),
		article.Title, article.Summary,
		lc.language, lc.language, lc.language, lc.language)

	system := fmt.Sprintf("You are a %s teacher translating articles for language learners. Follow the format exactly.", lc.language)
	translation, err := s.complete(ctx, system, translationPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to translate article: %w", err)
	}

	title, text := article.Title, article.Summary
	if m := titleMarker.FindStringSubmatch(translation); m != nil {
		title = collapseWhitespace(m[1])
	}
	if m := textMarker.FindStringSubmatch(translation); m != nil {
		text = collapseWhitespace(m[1])
	}

	questionPrompt := fmt.Sprintf(`Based on the following %s sports article, generate ONE reading comprehension question for a student at the following CEFR level:

%s

Article Title: %s

Article Text: %s

Requirements:
- Question should be in %s
- The question complexity should match the student's language abilities as described above
- Question should test understanding of key information from the article
- Question should have a clear answer that can be found in the text
- Question should be answerable with 1-3 sentences, appropriate for the student's level

Format your response EXACTLY like this:

QUESTION: [Your question in %s]

Generate the question now:`,
		lc.language,
		cefr.FormatForPrompt(targetLevel),
		title, text, lc.language, lc.language)

	questionSystem := fmt.Sprintf("You are a %s teacher creating reading comprehension questions. Respond with ONLY the question in the specified format.", lc.language)
	questionContent, err := s.complete(ctx, questionSystem, questionPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate comprehension question: %w", err)
	}

	question := "¿Qué ocurrió en el artículo?"
	if m := questionMarker.FindStringSubmatch(questionContent); m != nil {
		question = strings.TrimSpace(m[1])
	}

	if err := s.sessions.SetActiveQuiz(sessionID, &models.ActiveQuiz{
		TestType:    "reading",
		Question:    question,
		ArticleText: text,
		Difficulty:  targetLevel,
	}); err != nil {
		return nil, err
	}

	return &models.ReadingQuiz{
		ArticleTitle:  title,
		ArticleText:   text,
		Question:      question,
		OriginalURL:   article.URL,
		Difficulty:    targetLevel,
		OriginalLevel: lc.level,
	}, nil
}

func (s *Service) fetchArticle(ctx context.Context) sourceArticle {
	feed, err := s.parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		log.Printf("[ERROR] RSS fetch failed, using fallback article: %v", err)
		return fallbackArticle
	}

	items := lo.Filter(feed.Items, func(item *gofeed.Item, _ int) bool {
		return item != nil && item.Title != "" && item.Description != ""
	})
	if len(items) == 0 {
		log.Printf("[ERROR] RSS feed had no usable entries, using fallback article")
		return fallbackArticle
	}

	item := items[rand.Intn(len(items))]
	summary := collapseWhitespace(stripHTML(item.Description))
	if words := strings.Fields(summary); len(words) > articleWordCap {
		summary = strings.Join(words[:articleWordCap], " ")
	}

	return sourceArticle{Title: item.Title, Summary: summary, URL: item.Link}
}

// ValidateReading grades a free-form answer on a 1-10 rubric via the model
// and records the normalized score.
func (s *Service) ValidateReading(ctx context.Context, sessionID, userAnswer string) (*models.ReadingValidation, error) {
	active, err := s.sessions.TakeActiveQuiz(sessionID, "reading")
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, fmt.Errorf("no reading exercise is in progress")
	}

	prompt := fmt.Sprintf(`Evaluate the student's answer to a reading comprehension question.

Article:
%s

Question:
%s

Student's answer:
%s

Evaluate the answer:
1. Does it show understanding of the article?
2. Does it correctly answer the question?
3. Is it well expressed in the article's language?

Assign a score from 1 to 10:
- 9-10: Excellent answer, complete understanding, answers perfectly
- 7-8: Good answer, solid understanding with minor details missing
- 5-6: Acceptable answer, basic understanding but missing important information
- 3-4: Partial answer, limited understanding
- 1-2: Incorrect or very incomplete answer

Format your response EXACTLY like this:

SCORE: [number from 1 to 10]
FEEDBACK: [brief, encouraging comment in the article's language, 1-2 sentences]
EXPLANATION: [why this score, in the article's language, 1-2 sentences]

Evaluate now:`, active.ArticleText, active.Question, userAnswer)

	content, err := s.complete(ctx, "You are a language teacher grading reading comprehension answers. Follow the format exactly.", prompt)

	validation := &models.ReadingValidation{
		Score:       5.0,
		Feedback:    "Answer received.",
		Explanation: "Evaluation complete.",
	}
	if err != nil {
		log.Printf("[ERROR] Reading evaluation failed, using default score: %v", err)
	} else {
		if m := scoreMarker.FindStringSubmatch(content); m != nil {
			if score, err := strconv.ParseFloat(m[1], 64); err == nil {
				validation.Score = clampFloat(score, 1.0, 10.0)
			}
		}
		if m := feedbackMarker.FindStringSubmatch(content); m != nil {
			validation.Feedback = strings.TrimSpace(m[1])
		}
		if m := explainMarker.FindStringSubmatch(content); m != nil {
			validation.Explanation = strings.TrimSpace(m[1])
		}
	}

	validation.NormalizedScore = validation.Score / 10.0

	if _, err := s.sessions.SaveQuizResult(sessionID, "reading", userAnswer, validation.NormalizedScore, &models.QuizContext{
		DifficultyLevel: active.Difficulty,
	}); err != nil {
		return nil, err
	}
	return validation, nil
}

func clampFloat(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
