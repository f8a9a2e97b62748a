package quiz

import (
	"testing"

	"github.com/shokouhi/HootieChat/models"

	"github.com/stretchr/testify/assert"
)

func TestParseUnitCompletion(t *testing.T) {
	content := `El gato está en el [MASK]. Me gusta mucho este lugar.
CORRECT_ANSWER: jardín
HINT: Un lugar al aire libre`

	sentence, answer, hint := parseUnitCompletion(content)
	assert.Equal(t, "El gato está en el [MASK]. Me gusta mucho este lugar.", sentence)
	assert.Equal(t, "jardín", answer)
	assert.Equal(t, "Un lugar al aire libre", hint)
}

func TestParseUnitCompletionReinsertsMask(t *testing.T) {
	content := `El gato está en el jardín.
CORRECT_ANSWER: jardín`

	sentence, answer, hint := parseUnitCompletion(content)
	assert.Equal(t, "El gato está en el [MASK].", sentence)
	assert.Equal(t, "jardín", answer)
	assert.Empty(t, hint)
}

func TestParseUnitCompletionMissingAnswer(t *testing.T) {
	_, answer, _ := parseUnitCompletion("just some prose with no markers")
	assert.Empty(t, answer)
}

func TestParseWordPairs(t *testing.T) {
	content := `WORD1_TARGET: gato
WORD1_ENGLISH: cat

WORD2_TARGET: cocinar
WORD2_ENGLISH: to cook

WORD3_TARGET: grande
WORD3_ENGLISH: big

WORD4_TARGET: mesa
WORD4_ENGLISH: table

WORD5_TARGET: correr
WORD5_ENGLISH: to run`

	pairs := parseWordPairs(content)
	assert.Len(t, pairs, keywordPairCount)
	assert.Equal(t, models.WordPair{Word: "gato", English: "cat"}, pairs[0])
	assert.Equal(t, models.WordPair{Word: "correr", English: "to run"}, pairs[4])
}

func TestParseWordPairsPadsShortOutput(t *testing.T) {
	content := `WORD1_TARGET: gato
WORD1_ENGLISH: cat`

	pairs := parseWordPairs(content)
	assert.Len(t, pairs, keywordPairCount)
	assert.Equal(t, "gato", pairs[0].Word)
	// Padding comes from the default set, skipping the slot already used.
	assert.Equal(t, "perro", pairs[1].Word)
}

func TestParseWordPairsFallsBackToDefaults(t *testing.T) {
	pairs := parseWordPairs("no usable output here")
	assert.Len(t, pairs, keywordPairCount)
}

func TestParsePodcast(t *testing.T) {
	content := `CONVERSATION:
María: Hola Juan, ¿viste el partido de tenis?
Juan: Sí, fue increíble.

QUESTION: ¿Qué vieron María y Juan?
ANSWER: tenis`

	conversation, question, answer := parsePodcast(content)
	assert.Contains(t, conversation, "María: Hola Juan")
	assert.Contains(t, conversation, "Juan: Sí")
	assert.Equal(t, "¿Qué vieron María y Juan?", question)
	assert.Equal(t, "tenis", answer)
}

func TestParsePodcastDefaults(t *testing.T) {
	conversation, question, answer := parsePodcast("garbage with no structure")
	assert.Equal(t, fallbackConversation, conversation)
	assert.Equal(t, fallbackQuestion, question)
	assert.Equal(t, fallbackAnswer, answer)
}

func TestParsePodcastStripsHTML(t *testing.T) {
	content := `CONVERSATION:
María: <b>Hola</b>
Juan: Adiós

QUESTION: ¿Quién habla?
ANSWER: María`

	conversation, _, _ := parsePodcast(content)
	assert.NotContains(t, conversation, "<b>")
}

func TestFirstAnswerWord(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"tenis", "tenis"},
		{"Tenis ", "tenis"},
		{"la palabra es 'tenis'", "tenis"},
		{`dijo "bien" al final`, "bien"},
		{"bien gracias", "bien"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, firstAnswerWord(tt.raw), "raw=%q", tt.raw)
	}
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"score": 1}`, stripCodeFences("```json\n{\"score\": 1}\n```"))
	assert.Equal(t, `{"score": 1}`, stripCodeFences("```\n{\"score\": 1}\n```"))
	assert.Equal(t, `{"score": 1}`, stripCodeFences(`{"score": 1}`))
}
