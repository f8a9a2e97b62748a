package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/shokouhi/HootieChat/models"
	"github.com/shokouhi/HootieChat/services/quiz"

	"github.com/gorilla/mux"
)

type QuizGenerateRequest struct {
	SessionID string `json:"sessionId"`
}

type AnswerValidateRequest struct {
	SessionID  string `json:"sessionId"`
	UserAnswer string `json:"userAnswer"`
}

type KeywordMatchValidateRequest struct {
	SessionID string            `json:"sessionId"`
	Matches   []models.WordPair `json:"matches"`
}

type quizEnvelope struct {
	Success bool `json:"success"`
	Quiz    any  `json:"quiz"`
}

type validationEnvelope struct {
	Success bool `json:"success"`
	*models.Validation
	AgentNotification string `json:"agent_notification,omitempty"`
}

// answerNotification is the completion summary the client can relay into
// the chat to trigger the feedback turn.
func answerNotification(label, userAnswer string, v *models.Validation) string {
	return fmt.Sprintf("The student completed the %s exercise. Their answer: '%s'. Correct answer: '%s'. Score: %.0f%%.",
		label, userAnswer, v.CorrectAnswer, v.Score*100)
}

type QuizHandler struct {
	service *quiz.Service
}

func NewQuizHandler(service *quiz.Service) *QuizHandler {
	return &QuizHandler{service: service}
}

func (h *QuizHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/quiz/unit-completion/generate", h.GenerateUnitCompletion).Methods("POST")
	router.HandleFunc("/api/quiz/unit-completion/validate", h.ValidateUnitCompletion).Methods("POST")
	router.HandleFunc("/api/quiz/keyword-match/generate", h.GenerateKeywordMatch).Methods("POST")
	router.HandleFunc("/api/quiz/keyword-match/validate", h.ValidateKeywordMatch).Methods("POST")
	router.HandleFunc("/api/quiz/image-detection/generate", h.GenerateImageDetection).Methods("POST")
	router.HandleFunc("/api/quiz/image-detection/validate", h.ValidateImageDetection).Methods("POST")
	router.HandleFunc("/api/quiz/podcast/generate", h.GeneratePodcast).Methods("POST")
	router.HandleFunc("/api/quiz/podcast/validate", h.ValidatePodcast).Methods("POST")
	router.HandleFunc("/api/quiz/pronunciation/generate", h.GeneratePronunciation).Methods("POST")
	router.HandleFunc("/api/quiz/pronunciation/validate", h.ValidatePronunciation).Methods("POST")
	router.HandleFunc("/api/quiz/reading/generate", h.GenerateReading).Methods("POST")
	router.HandleFunc("/api/quiz/reading/validate", h.ValidateReading).Methods("POST")
}

func (h *QuizHandler) GenerateUnitCompletion(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGenerateRequest(w, r)
	if !ok {
		return
	}
	log.Printf("[INFO] Generating unit completion exercise for session %s", req.SessionID)

	quizData, err := h.service.GenerateUnitCompletion(r.Context(), req.SessionID)
	if err != nil {
		log.Printf("[ERROR] Unit completion generation failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSONResponse(w, http.StatusOK, quizEnvelope{Success: true, Quiz: quizData})
}

func (h *QuizHandler) ValidateUnitCompletion(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeValidateRequest(w, r)
	if !ok {
		return
	}
	log.Printf("[INFO] Validating unit completion answer for session %s", req.SessionID)

	validation, err := h.service.ValidateUnitCompletion(r.Context(), req.SessionID, req.UserAnswer)
	if err != nil {
		log.Printf("[ERROR] Unit completion validation failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSONResponse(w, http.StatusOK, validationEnvelope{
		Success:           true,
		Validation:        validation,
		AgentNotification: answerNotification("sentence completion", req.UserAnswer, validation),
	})
}

func (h *QuizHandler) GenerateKeywordMatch(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGenerateRequest(w, r)
	if !ok {
		return
	}
	log.Printf("[INFO] Generating keyword match exercise for session %s", req.SessionID)

	quizData, err := h.service.GenerateKeywordMatch(r.Context(), req.SessionID)
	if err != nil {
		log.Printf("[ERROR] Keyword match generation failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSONResponse(w, http.StatusOK, quizEnvelope{Success: true, Quiz: quizData})
}

func (h *QuizHandler) ValidateKeywordMatch(w http.ResponseWriter, r *http.Request) {
	var req KeywordMatchValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode keyword match validation request: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.SessionID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	log.Printf("[INFO] Validating %d keyword matches for session %s", len(req.Matches), req.SessionID)

	validation, err := h.service.ValidateKeywordMatch(r.Context(), req.SessionID, req.Matches)
	if err != nil {
		log.Printf("[ERROR] Keyword match validation failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	// The matching UI lets the learner keep going until every pair is
	// placed, so the chat is only notified once the board is complete.
	notification := ""
	if validation.AllCorrect {
		notification = fmt.Sprintf("The student completed the vocabulary matching exercise. Score: %.0f%% (%d/%d correct).",
			validation.Score*100, validation.CorrectCount, validation.Total)
	}
	h.writeJSONResponse(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*models.KeywordMatchValidation
		AgentNotification string `json:"agent_notification,omitempty"`
	}{true, validation, notification})
}

func (h *QuizHandler) GenerateImageDetection(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGenerateRequest(w, r)
	if !ok {
		return
	}
	log.Printf("[INFO] Generating image detection exercise for session %s", req.SessionID)

	quizData, err := h.service.GenerateImageDetection(r.Context(), req.SessionID)
	if err != nil {
		log.Printf("[ERROR] Image detection generation failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSONResponse(w, http.StatusOK, quizEnvelope{Success: true, Quiz: quizData})
}

func (h *QuizHandler) ValidateImageDetection(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeValidateRequest(w, r)
	if !ok {
		return
	}
	log.Printf("[INFO] Validating image detection answer for session %s", req.SessionID)

	validation, err := h.service.ValidateImageDetection(r.Context(), req.SessionID, req.UserAnswer)
	if err != nil {
		log.Printf("[ERROR] Image detection validation failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSONResponse(w, http.StatusOK, validationEnvelope{
		Success:           true,
		Validation:        validation,
		AgentNotification: answerNotification("image recognition", req.UserAnswer, validation),
	})
}

func (h *QuizHandler) GeneratePodcast(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGenerateRequest(w, r)
	if !ok {
		return
	}
	log.Printf("[INFO] Generating podcast exercise for session %s", req.SessionID)

	quizData, err := h.service.GeneratePodcast(r.Context(), req.SessionID)
	if err != nil {
		log.Printf("[ERROR] Podcast generation failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSONResponse(w, http.StatusOK, quizEnvelope{Success: true, Quiz: quizData})
}

func (h *QuizHandler) ValidatePodcast(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeValidateRequest(w, r)
	if !ok {
		return
	}
	log.Printf("[INFO] Validating podcast answer for session %s", req.SessionID)

	validation, err := h.service.ValidatePodcast(r.Context(), req.SessionID, req.UserAnswer)
	if err != nil {
		log.Printf("[ERROR] Podcast validation failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSONResponse(w, http.StatusOK, validationEnvelope{
		Success:           true,
		Validation:        validation,
		AgentNotification: answerNotification("listening comprehension", req.UserAnswer, validation),
	})
}

func (h *QuizHandler) GeneratePronunciation(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGenerateRequest(w, r)
	if !ok {
		return
	}
	log.Printf("[INFO] Generating pronunciation exercise for session %s", req.SessionID)

	quizData, err := h.service.GeneratePronunciation(r.Context(), req.SessionID)
	if err != nil {
		log.Printf("[ERROR] Pronunciation generation failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSONResponse(w, http.StatusOK, quizEnvelope{Success: true, Quiz: quizData})
}

// ValidatePronunciation accepts a multipart form with the recorded audio
// rather than a JSON body.
func (h *QuizHandler) ValidatePronunciation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		log.Printf("[ERROR] Failed to parse pronunciation form: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	sessionID := r.FormValue("sessionId")
	referenceText := r.FormValue("referenceText")
	if sessionID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		log.Printf("[ERROR] Missing audio file in pronunciation request: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		log.Printf("[ERROR] Failed to read audio file: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "failed to read audio file")
		return
	}
	log.Printf("[INFO] Validating pronunciation for session %s (%d audio bytes)", sessionID, len(audio))

	validation, err := h.service.ValidatePronunciation(r.Context(), sessionID, audio, referenceText)
	if err != nil {
		log.Printf("[ERROR] Pronunciation validation failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	notification := fmt.Sprintf("The student completed the pronunciation exercise. Phrase: '%s'. Pronunciation score: %.1f/100 (accuracy %.1f, fluency %.1f, completeness %.1f).",
		referenceText, validation.PronunciationScore, validation.AccuracyScore, validation.FluencyScore, validation.CompletenessScore)
	h.writeJSONResponse(w, http.StatusOK, struct {
		Success bool    `json:"success"`
		Score   float64 `json:"score"`
		*models.PronunciationValidation
		AgentNotification string `json:"agent_notification"`
	}{true, validation.PronunciationScore / 100.0, validation, notification})
}

func (h *QuizHandler) GenerateReading(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGenerateRequest(w, r)
	if !ok {
		return
	}
	log.Printf("[INFO] Generating reading exercise for session %s", req.SessionID)

	quizData, err := h.service.GenerateReading(r.Context(), req.SessionID)
	if err != nil {
		log.Printf("[ERROR] Reading generation failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSONResponse(w, http.StatusOK, quizEnvelope{Success: true, Quiz: quizData})
}

func (h *QuizHandler) ValidateReading(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeValidateRequest(w, r)
	if !ok {
		return
	}
	log.Printf("[INFO] Validating reading answer for session %s", req.SessionID)

	validation, err := h.service.ValidateReading(r.Context(), req.SessionID, req.UserAnswer)
	if err != nil {
		log.Printf("[ERROR] Reading validation failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	notification := fmt.Sprintf("The student completed the reading comprehension exercise. Their answer: '%s'. Score: %.1f/10.",
		req.UserAnswer, validation.Score)
	h.writeJSONResponse(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*models.ReadingValidation
		AgentNotification string `json:"agent_notification"`
	}{true, validation, notification})
}

func (h *QuizHandler) decodeGenerateRequest(w http.ResponseWriter, r *http.Request) (QuizGenerateRequest, bool) {
	var req QuizGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode quiz generation request: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return req, false
	}
	if req.SessionID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "sessionId is required")
		return req, false
	}
	return req, true
}

func (h *QuizHandler) decodeValidateRequest(w http.ResponseWriter, r *http.Request) (AnswerValidateRequest, bool) {
	var req AnswerValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode quiz validation request: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return req, false
	}
	if req.SessionID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "sessionId is required")
		return req, false
	}
	return req, true
}

func (h *QuizHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *QuizHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
