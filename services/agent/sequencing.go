package agent

import (
	"math/rand"

	"github.com/shokouhi/HootieChat/models"

	"github.com/samber/lo"
)

// TestTypes is the canonical exercise order. New learners work through it
// sequentially before preference-weighted random selection kicks in.
var TestTypes = []string{
	"image_detection",
	"unit_completion",
	"keyword_match",
	"pronunciation",
	"podcast",
	"reading",
}

func isKnownTestType(testType string) bool {
	return lo.Contains(TestTypes, testType)
}

func completedTypes(results []models.QuizResult) map[string]bool {
	completed := make(map[string]bool, len(TestTypes))
	for _, qr := range results {
		completed[qr.TestType] = true
	}
	return completed
}

func allCompletedOnce(results []models.QuizResult) bool {
	completed := completedTypes(results)
	return lo.EveryBy(TestTypes, func(t string) bool { return completed[t] })
}

// selectTestType picks the next exercise: an explicit request wins, then
// the next uncompleted type in canonical order, then a preference-weighted
// random draw once every type has been seen. The draw honors preference
// weights but may repeat the previous kind; only the feedback auto-continue
// path excludes it.
func selectTestType(results []models.QuizResult, preferences map[string]int, requested string) string {
	if requested != "" && isKnownTestType(requested) {
		return requested
	}

	if !allCompletedOnce(results) {
		completed := completedTypes(results)
		for _, t := range TestTypes {
			if !completed[t] {
				return t
			}
		}
	}

	return weightedRandomType(preferences, "")
}

// nextTestTypeAfterFeedback picks the exercise that auto-continues after
// quiz feedback, never repeating the type just completed. Unlike the
// initial selection it draws uniformly, without preference weights.
func nextTestTypeAfterFeedback(results []models.QuizResult, lastType string) string {
	if !allCompletedOnce(results) {
		completed := completedTypes(results)
		for _, t := range TestTypes {
			if !completed[t] {
				return t
			}
		}
	}
	return weightedRandomType(nil, lastType)
}

func weightedRandomType(preferences map[string]int, exclude string) string {
	candidates := lo.Filter(TestTypes, func(t string, _ int) bool { return t != exclude })
	if len(candidates) == 0 {
		candidates = TestTypes
	}

	if len(preferences) == 0 {
		return candidates[rand.Intn(len(candidates))]
	}

	var weighted []string
	for _, t := range candidates {
		weight := preferences[t]
		if weight < 1 {
			weight = 1
		}
		for i := 0; i < weight; i++ {
			weighted = append(weighted, t)
		}
	}
	return weighted[rand.Intn(len(weighted))]
}
