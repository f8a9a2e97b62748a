package services

import "strings"

// SupportedLanguages are the languages the tutor can teach. Profile writes
// are validated against this set.
var SupportedLanguages = []string{
	"English",
	"Mandarin Chinese",
	"Hindi",
	"Spanish",
	"French",
	"Modern Standard Arabic",
	"Bengali",
	"Portuguese",
	"Russian",
	"Urdu",
}

var languageAliases = map[string]string{
	"english":                "English",
	"mandarin chinese":       "Mandarin Chinese",
	"chinese":                "Mandarin Chinese",
	"mandarin":               "Mandarin Chinese",
	"hindi":                  "Hindi",
	"spanish":                "Spanish",
	"french":                 "French",
	"modern standard arabic": "Modern Standard Arabic",
	"arabic":                 "Modern Standard Arabic",
	"msa":                    "Modern Standard Arabic",
	"bengali":                "Bengali",
	"portuguese":             "Portuguese",
	"russian":                "Russian",
	"urdu":                   "Urdu",
}

// NormalizeLanguage maps a learner-stated language to its canonical name.
// It returns an empty string when the language is not supported.
func NormalizeLanguage(language string) string {
	if language == "" {
		return ""
	}
	return languageAliases[strings.ToLower(strings.TrimSpace(language))]
}

func IsLanguageSupported(language string) bool {
	return NormalizeLanguage(language) != ""
}
