// Package speech scores spoken audio against a reference sentence using
// the Azure pronunciation assessment REST endpoint. Missing credentials or
// a failed call produce a zero-score result with an error note rather than
// an error: pronunciation exercises always complete.
package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/shokouhi/HootieChat/models"
)

type Service struct {
	key        string
	region     string
	httpClient *http.Client
}

func NewService(key, region string) *Service {
	return &Service{
		key:        key,
		region:     region,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// locales maps supported tutoring languages to the recognition locale used
// for assessment.
var locales = map[string]string{
	"English":                "en-US",
	"Mandarin Chinese":       "zh-CN",
	"Hindi":                  "hi-IN",
	"Spanish":                "es-ES",
	"French":                 "fr-FR",
	"Modern Standard Arabic": "ar-SA",
	"Bengali":                "bn-IN",
	"Portuguese":             "pt-PT",
	"Russian":                "ru-RU",
	"Urdu":                   "ur-PK",
}

type assessmentConfig struct {
	ReferenceText string `json:"ReferenceText"`
	GradingSystem string `json:"GradingSystem"`
	Granularity   string `json:"Granularity"`
	EnableMiscue  bool   `json:"EnableMiscue"`
}

type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	NBest             []struct {
		Display                 string `json:"Display"`
		PronunciationAssessment struct {
			AccuracyScore     float64 `json:"AccuracyScore"`
			FluencyScore      float64 `json:"FluencyScore"`
			CompletenessScore float64 `json:"CompletenessScore"`
			PronScore         float64 `json:"PronScore"`
		} `json:"PronunciationAssessment"`
	} `json:"NBest"`
}

// Assess scores audio against referenceText in the given target language.
// Sub-scores use the hundred-mark scale.
func (s *Service) Assess(ctx context.Context, audio []byte, referenceText, targetLanguage string) *models.PronunciationValidation {
	if s.key == "" {
		log.Printf("[ERROR] Pronunciation assessment skipped: SPEECH_KEY not configured")
		return degraded("SPEECH_KEY not configured")
	}

	locale, ok := locales[targetLanguage]
	if !ok {
		locale = "es-ES"
	}

	cfg, err := json.Marshal(assessmentConfig{
		ReferenceText: referenceText,
		GradingSystem: "HundredMark",
		Granularity:   "Phoneme",
		EnableMiscue:  true,
	})
	if err != nil {
		return degraded(err.Error())
	}

	url := fmt.Sprintf("https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1?language=%s", s.region, locale)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(audio))
	if err != nil {
		return degraded(err.Error())
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.key)
	req.Header.Set("Pronunciation-Assessment", base64.StdEncoding.EncodeToString(cfg))
	req.Header.Set("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=16000")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("[ERROR] Pronunciation assessment request failed: %v", err)
		return degraded(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return degraded(err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[ERROR] Pronunciation assessment returned status %d: %s", resp.StatusCode, string(body))
		return degraded(fmt.Sprintf("speech service returned status %d", resp.StatusCode))
	}

	var recognition recognitionResponse
	if err := json.Unmarshal(body, &recognition); err != nil {
		return degraded(fmt.Sprintf("failed to parse speech response: %v", err))
	}
	if len(recognition.NBest) == 0 {
		return degraded("no recognition candidates returned")
	}

	best := recognition.NBest[0].PronunciationAssessment
	overall := (best.AccuracyScore + best.FluencyScore + best.CompletenessScore) / 3.0

	recognized := recognition.DisplayText
	if recognized == "" {
		recognized = recognition.NBest[0].Display
	}

	return &models.PronunciationValidation{
		AccuracyScore:      best.AccuracyScore,
		FluencyScore:       best.FluencyScore,
		CompletenessScore:  best.CompletenessScore,
		PronunciationScore: overall,
		RecognizedText:     recognized,
	}
}

func degraded(reason string) *models.PronunciationValidation {
	return &models.PronunciationValidation{Error: reason}
}
