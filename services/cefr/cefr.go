// Package cefr maps learner self-descriptions and quiz performance onto the
// CEFR scale and renders level descriptions for generation prompts.
package cefr

import (
	"fmt"
	"strings"
)

var Levels = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

// expectedScoreRange is the score band a learner at each level typically
// produces. Performance far outside the band nudges the resolved level.
var expectedScoreRange = map[string][2]float64{
	"A1": {0.3, 0.6},
	"A2": {0.4, 0.7},
	"B1": {0.5, 0.8},
	"B2": {0.6, 0.9},
	"C1": {0.75, 0.95},
	"C2": {0.85, 1.0},
}

// Normalize converts a stated level to a CEFR code. Colloquial labels map
// to the conventional codes; unknown input defaults to A1.
func Normalize(input string) string {
	if input == "" {
		return "A1"
	}
	lower := strings.ToLower(strings.TrimSpace(input))

	switch lower {
	case "a1", "a2", "b1", "b2", "c1", "c2":
		return strings.ToUpper(lower)
	}

	contains := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	switch {
	case contains("beginner", "basico", "básico", "basic", "start", "just starting"):
		return "A1"
	case contains("intermediate", "intermedio", "medio", "middle"):
		return "B1"
	case contains("advanced", "avanzado", "high", "fluent", "fluency"):
		return "B2"
	case contains("expert", "native", "proficient", "nativo"):
		return "C1"
	}
	return "A1"
}

// Resolve returns the learner's working level given their stated level and
// quiz scores. A stated level anchors the result and is stepped at most one
// level when the mean score falls well outside its expected band. With no
// stated level the mean score alone buckets the learner.
func Resolve(statedLevel string, scores []float64) string {
	if statedLevel != "" {
		level := Normalize(statedLevel)
		if len(scores) == 0 {
			return level
		}

		avg := mean(scores)
		band := expectedScoreRange[level]
		idx := levelIndex(level)

		if avg < band[0]-0.20 && idx > 0 {
			return Levels[idx-1]
		}
		// Strictly more than 0.15 above the band top steps up; a mean
		// landing exactly on band top + 0.15 keeps the stated level.
		if avg > band[1]+0.15 && idx < len(Levels)-1 {
			return Levels[idx+1]
		}
		return level
	}

	if len(scores) == 0 {
		return "A1"
	}

	switch avg := mean(scores); {
	case avg >= 0.9:
		return "C2"
	case avg >= 0.85:
		return "C1"
	case avg >= 0.7:
		return "B2"
	case avg >= 0.6:
		return "B1"
	case avg >= 0.5:
		return "A2"
	default:
		return "A1"
	}
}

// TargetBand returns the difficulty band to generate content at. Content is
// pitched one notch above the resolved level, except for exercises that
// must stay at the exact level (reading, which is demanding enough as is).
func TargetBand(level string, exact bool) string {
	level = strings.ToUpper(level)
	if levelIndex(level) < 0 {
		level = "A1"
	}
	if exact {
		return level
	}
	bands := map[string]string{
		"A1": "A1-A2",
		"A2": "A2-B1",
		"B1": "B1-B2",
		"B2": "B2-C1",
		"C1": "C1-C2",
		"C2": "C2",
	}
	return bands[level]
}

func levelIndex(level string) int {
	for i, l := range Levels {
		if l == level {
			return i
		}
	}
	return -1
}

func mean(scores []float64) float64 {
	total := 0.0
	for _, s := range scores {
		total += s
	}
	return total / float64(len(scores))
}

var levelTitles = map[string]string{
	"A1": "Breakthrough",
	"A2": "Waystage",
	"B1": "Threshold",
	"B2": "Vantage",
	"C1": "Advanced",
	"C2": "Mastery",
}

var levelDescriptions = map[string]string{
	"A1": "Can understand and use familiar everyday expressions and very basic phrases aimed at the satisfaction of needs of a concrete type. Can introduce themselves to others and can ask and answer questions about personal details such as where they live, people they know and things they have. Can interact in a simple way provided the other person talks slowly and clearly and is prepared to help.",
	"A2": "Can understand sentences and frequently used expressions related to areas of most immediate relevance (e.g. very basic personal and family information, shopping, local geography, employment). Can communicate in simple and routine tasks requiring a simple and direct exchange of information on familiar and routine matters. Can describe in simple terms aspects of their background, immediate environment and matters in areas of immediate need.",
	"B1": "Can understand the main points of clear standard input on familiar matters regularly encountered in work, school, leisure, etc. Can deal with most situations likely to arise while travelling in an area where the language is spoken. Can produce simple connected text on topics that are familiar or of personal interest. Can describe experiences and events, dreams, hopes and ambitions and briefly give reasons and explanations for opinions and plans.",
	"B2": "Can understand the main ideas of complex text on both concrete and abstract topics, including technical discussions in their field of specialisation. Can interact with a degree of fluency and spontaneity that makes regular interaction with native speakers quite possible without strain for either party. Can produce clear, detailed text on a wide range of subjects and explain a viewpoint on a topical issue giving the advantages and disadvantages of various options.",
	"C1": "Can understand a wide range of demanding, longer clauses and recognise implicit meaning. Can express ideas fluently and spontaneously without much obvious searching for expressions. Can use language flexibly and effectively for social, academic and professional purposes. Can produce clear, well-structured, detailed text on complex subjects, showing controlled use of organisational patterns, connectors and cohesive devices.",
	"C2": "Can understand with ease virtually everything heard or read. Can summarise information from different spoken and written sources, reconstructing arguments and accounts in a coherent presentation. Can express themselves spontaneously, very fluently and precisely, differentiating finer shades of meaning even in the most complex situations.",
}

// Description returns the can-do text for a level. For a range band like
// "A1-A2" the description of the higher level applies.
func Description(level string) string {
	level = strings.ToUpper(strings.TrimSpace(level))
	if parts := strings.Split(level, "-"); len(parts) == 2 {
		level = strings.TrimSpace(parts[1])
	}
	if desc, ok := levelDescriptions[level]; ok {
		return desc
	}
	return levelDescriptions["A1"]
}

// FormatForPrompt renders a level or band with its title and description,
// the way generation prompts embed it.
func FormatForPrompt(level string) string {
	level = strings.ToUpper(strings.TrimSpace(level))
	title := ""
	if parts := strings.Split(level, "-"); len(parts) == 2 {
		title = levelTitles[strings.TrimSpace(parts[1])]
	} else {
		title = levelTitles[level]
	}
	if title == "" {
		return fmt.Sprintf("%s: %s", level, Description(level))
	}
	return fmt.Sprintf("%s (%s): %s", level, title, Description(level))
}
