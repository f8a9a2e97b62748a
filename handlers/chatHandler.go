package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/shokouhi/HootieChat/models"
	"github.com/shokouhi/HootieChat/services"
	"github.com/shokouhi/HootieChat/services/agent"

	"github.com/gorilla/mux"
)

// chatChunkSize is how many runes of the reply go into each SSE chunk.
const chatChunkSize = 200

type ChatHandler struct {
	agent    *agent.Service
	sessions *services.SessionService
}

func NewChatHandler(agentService *agent.Service, sessions *services.SessionService) *ChatHandler {
	return &ChatHandler{agent: agentService, sessions: sessions}
}

func (h *ChatHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/chat", h.Chat).Methods("POST")
	router.HandleFunc("/api/quiz-result", h.SubmitQuizResult).Methods("POST")
}

// Chat runs one tutor turn and streams the reply as server-sent events.
// When the turn surfaces an exercise, its type is sent first so the client
// can open the quiz container before the message finishes streaming.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode chat request: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.SessionID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	log.Printf("[INFO] Chat turn for session %s (%d chars)", req.SessionID, len(req.Message))

	reply, err := h.agent.RunTurn(r.Context(), req.SessionID, req.Message)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if err != nil {
		log.Printf("[ERROR] Chat turn failed: %v", err)
		h.writeSSE(w, map[string]any{"error": err.Error()})
		return
	}

	if reply.TestType != "" {
		h.writeSSE(w, map[string]any{"test_type": reply.TestType})
	}
	for _, chunk := range chunkRunes(reply.Reply, chatChunkSize) {
		h.writeSSE(w, map[string]any{"chunk": chunk})
	}
	h.writeSSE(w, map[string]any{"done": true})
}

// SubmitQuizResult records an externally graded exercise result and runs a
// feedback turn. The empty message is the orchestrator's feedback trigger.
func (h *ChatHandler) SubmitQuizResult(w http.ResponseWriter, r *http.Request) {
	var req models.QuizResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode quiz result request: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.SessionID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	log.Printf("[INFO] Quiz result for session %s: %s scored %.2f", req.SessionID, req.TestType, req.Score)

	result, err := h.sessions.SaveQuizResult(req.SessionID, req.TestType, req.UserInput, req.Score, nil)
	if err != nil {
		log.Printf("[ERROR] Failed to save quiz result: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	reply, err := h.agent.RunTurn(r.Context(), req.SessionID, "")
	if err != nil {
		log.Printf("[ERROR] Feedback turn failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, models.QuizResultResponse{
		Success:  true,
		Result:   result,
		Feedback: reply.Reply,
		TestType: reply.TestType,
	})
}

func (h *ChatHandler) writeSSE(w http.ResponseWriter, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// chunkRunes splits text into rune-safe pieces of at most size runes.
func chunkRunes(text string, size int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return []string{""}
	}
	var chunks []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

func (h *ChatHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *ChatHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
