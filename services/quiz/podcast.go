package quiz

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"strings"

	"github.com/shokouhi/HootieChat/models"
	"github.com/shokouhi/HootieChat/services/cefr"
)

// fallbackTopics seed a dialogue when the learner has not shared interests.
var fallbackTopics = []string{"sports", "food", "travel", "music", "movies", "books", "animals", "technology"}

const (
	fallbackConversation = "María: Hola. ¿Cómo estás?\nJuan: Bien, gracias. ¿Y tú?"
	fallbackQuestion     = "¿Qué dijo Juan?"
	fallbackAnswer       = "bien"
)

var (
	conversationBlock = regexp.MustCompile(`(?is)CONVERSATION:\s*(.*?)(?:QUESTION:|$)`)
	questionLine      = regexp.MustCompile(`(?is)QUESTION:\s*(.+?)(?:ANSWER:|$)`)
	answerLine        = regexp.MustCompile(`(?is)ANSWER:\s*(.+?)(?:\n\n|\n$|$)`)
	quotedWord        = regexp.MustCompile(`["']([^"']+)["']`)
	anyQuestion       = regexp.MustCompile(`([^?\n]+\?)`)
)

// GeneratePodcast builds a listening exercise: a short two-speaker dialogue
// with a one-word comprehension question, synthesized to audio when the
// media service is available.
func (s *Service) GeneratePodcast(ctx context.Context, sessionID string) (*models.PodcastQuiz, error) {
	lc, err := s.learner(sessionID)
	if err != nil {
		return nil, err
	}

	targetLevel := cefr.TargetBand(lc.level, false)
	topic := strings.TrimSpace(lc.interests)
	if topic == "" {
		topic = fallbackTopics[rand.Intn(len(fallbackTopics))]
	}

	prompt := fmt.Sprintf(`Generate a short %s conversation between two people (María (female) and Juan (male)) for a listening comprehension exercise.

Student's CEFR Level:
%s

Requirements:
- The conversation should match the student's language abilities as described above
- Topic/theme: %s (use this topic generally, e.g., if "tennis", write about tennis in general)
- NEVER use the student's actual name, age, or personal details in the conversation
- Always use María (female) and Juan (male) as the speakers
- Maximum 7 sentences total (distributed between both speakers)
- Natural, conversational %s appropriate for the student's level
- Clear dialogue with speaker labels (María:, Juan:)
- Output PLAIN TEXT ONLY - NO HTML, NO audio tags, NO markdown formatting

After the conversation, generate ONE comprehension question based on the conversation content. The answer should ideally be just ONE WORD in %s.

Format your response EXACTLY like this (PLAIN TEXT ONLY):

CONVERSATION:
María: [first sentence]
Juan: [response]
[Continue until max 7 sentences total]

QUESTION: [One question in %s about the conversation]
ANSWER: [The correct answer, ideally one word]

Generate now:`,
		lc.language,
		cefr.FormatForPrompt(targetLevel),
		topic, lc.language, lc.language, lc.language)

	system := fmt.Sprintf("You are a %s teacher creating listening comprehension exercises. Follow the format exactly.", lc.language)
	content, err := s.complete(ctx, system, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate podcast exercise: %w", err)
	}

	conversation, question, answer := parsePodcast(content)

	var audioBase64 string
	if s.media != nil {
		audioBase64, err = s.media.SynthesizeDialogue(ctx, conversation)
		if err != nil {
			log.Printf("[ERROR] Podcast audio synthesis failed: %v", err)
			audioBase64 = ""
		}
	}

	if err := s.sessions.SetActiveQuiz(sessionID, &models.ActiveQuiz{
		TestType:   "podcast",
		Answer:     answer,
		Question:   question,
		Sentence:   conversation,
		Difficulty: targetLevel,
	}); err != nil {
		return nil, err
	}

	return &models.PodcastQuiz{
		Conversation:  conversation,
		Question:      question,
		Answer:        answer,
		Topic:         topic,
		AudioBase64:   audioBase64,
		Difficulty:    targetLevel,
		OriginalLevel: lc.level,
	}, nil
}

func parsePodcast(content string) (conversation, question, answer string) {
	if m := conversationBlock.FindStringSubmatch(content); m != nil {
		conversation = strings.TrimSpace(stripHTML(m[1]))
	} else if pos := strings.Index(content, "QUESTION:"); pos > 0 {
		conversation = strings.TrimSpace(stripHTML(content[:pos]))
	}

	if m := questionLine.FindStringSubmatch(content); m != nil {
		question = strings.TrimSpace(stripHTML(m[1]))
	} else if m := anyQuestion.FindStringSubmatch(content); m != nil {
		question = strings.TrimSpace(m[1])
	}

	if m := answerLine.FindStringSubmatch(content); m != nil {
		answer = firstAnswerWord(m[1])
	}

	if conversation == "" {
		conversation = fallbackConversation
	}
	if question == "" {
		question = fallbackQuestion
	}
	if answer == "" {
		answer = fallbackAnswer
	}
	return conversation, question, answer
}

// firstAnswerWord reduces a multi-word answer to its key word, preferring
// a quoted word when one is present.
func firstAnswerWord(raw string) string {
	raw = strings.TrimSpace(raw)
	words := strings.Fields(raw)
	if len(words) <= 1 {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	if m := quotedWord.FindStringSubmatch(raw); m != nil {
		return strings.ToLower(strings.TrimSpace(m[1]))
	}
	return strings.ToLower(words[0])
}

// ValidatePodcast grades the learner's answer to the comprehension question
// and records the result.
func (s *Service) ValidatePodcast(ctx context.Context, sessionID, userAnswer string) (*models.Validation, error) {
	active, err := s.sessions.TakeActiveQuiz(sessionID, "podcast")
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, fmt.Errorf("no podcast exercise is in progress")
	}

	exercise := fmt.Sprintf("Listening comprehension. Conversation:\n%s\n\nQuestion: %s", active.Sentence, active.Question)
	validation := s.scoreSemantic(ctx, exercise, active.Answer, userAnswer, 0.5)
	validation.CorrectAnswer = active.Answer

	if _, err := s.sessions.SaveQuizResult(sessionID, "podcast", userAnswer, validation.Score, &models.QuizContext{
		ExpectedAnswer:  active.Answer,
		DifficultyLevel: active.Difficulty,
	}); err != nil {
		return nil, err
	}
	return &validation, nil
}
