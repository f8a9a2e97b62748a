package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/shokouhi/HootieChat/config"
	"github.com/shokouhi/HootieChat/db"
	"github.com/shokouhi/HootieChat/handlers"
	"github.com/shokouhi/HootieChat/services"
	"github.com/shokouhi/HootieChat/services/agent"
	"github.com/shokouhi/HootieChat/services/media"
	"github.com/shokouhi/HootieChat/services/quiz"
	"github.com/shokouhi/HootieChat/services/speech"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()

	if cfg.AnthropicAPIKey == "" {
		log.Fatal("ANTHROPIC_API_KEY environment variable is required")
	}

	if cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}

	var sessionRepo db.SessionRepository
	if cfg.DatabaseURL != "" {
		pgRepo, err := db.NewPostgresSessionRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize session database: %v", err)
		}
		defer pgRepo.Close()
		sessionRepo = pgRepo
	} else {
		log.Printf("[INFO] DB_URL not set, sessions are kept in memory")
		sessionRepo = db.NewMemorySessionRepository()
	}

	sessionService := services.NewSessionService(sessionRepo)

	mediaService := media.NewService(cfg.OpenAIAPIKey)

	var speechService *speech.Service
	if cfg.SpeechKey != "" {
		speechService = speech.NewService(cfg.SpeechKey, cfg.SpeechRegion)
	} else {
		log.Printf("[INFO] SPEECH_KEY not set, pronunciation scoring is disabled")
	}

	quizService, err := quiz.NewService(sessionService, mediaService, speechService, cfg.OpenAIAPIKey, cfg.NewsFeedURL)
	if err != nil {
		log.Fatalf("Failed to initialize quiz service: %v", err)
	}
	quizHandler := handlers.NewQuizHandler(quizService)

	agentService, err := agent.NewService(cfg.AnthropicAPIKey, cfg.OpenAIAPIKey, sessionService)
	if err != nil {
		log.Fatalf("Failed to initialize agent service: %v", err)
	}
	chatHandler := handlers.NewChatHandler(agentService, sessionService)

	router := mux.NewRouter()

	router.Use(corsMiddleware)
	router.Use(jsonMiddleware)

	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("OPTIONS")

	chatHandler.RegisterRoutes(router)
	quizHandler.RegisterRoutes(router)

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	addr := ":" + cfg.Port
	fmt.Printf("Server starting on port %s\n", cfg.Port)

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Expose-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"ok": true}`))
}
