package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ddc002021/MapServerMCP/config"
	"github.com/ddc002021/MapServerMCP/db"
	"github.com/ddc002021/MapServerMCP/handlers"
	"github.com/ddc002021/MapServerMCP/services"
	"github.com/ddc002021/MapServerMCP/services/agent"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()

	model, err := newModelClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize model client: %v", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	tripRepo, err := newTripRepository(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize trip repository: %v", err)
	}
	defer tripRepo.Close()

	coreParams := services.DefaultCoreMapParams()
	coreParams.RateLimitDelay = cfg.RateLimitDelay
	coreService := services.NewCoreMapService(httpClient, coreParams)
	defer coreService.Close()

	weatherParams := services.DefaultWeatherParams()
	weatherParams.RateLimitDelay = cfg.RateLimitDelay
	weatherService := services.NewWeatherService(httpClient, weatherParams)
	defer weatherService.Close()

	historyService := services.NewHistoryService(tripRepo)

	registry := agent.NewRegistry()
	if err := agent.RegisterMapTools(registry, coreService, historyService, weatherService); err != nil {
		log.Fatalf("Failed to register tools: %v", err)
	}

	agentService := agent.NewService(model, registry, cfg.MaxToolRounds, cfg.Verbose)
	agentHandler := handlers.NewAgentHandler(agentService)

	router := mux.NewRouter()

	router.Use(corsMiddleware)
	router.Use(jsonMiddleware)

	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("OPTIONS")

	agentHandler.RegisterRoutes(router)

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	addr := ":" + cfg.Port
	fmt.Printf("Server starting on port %s\n", cfg.Port)

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func newModelClient(cfg *config.Config) (agent.ModelClient, error) {
	switch cfg.ModelProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatal("OPENAI_API_KEY environment variable is required")
		}
		return agent.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.Model)
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatal("ANTHROPIC_API_KEY environment variable is required")
		}
		return agent.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.ModelProvider)
	}
}

func newTripRepository(cfg *config.Config) (db.TripRepository, error) {
	if cfg.DatabaseURL != "" {
		return db.NewPostgresTripRepository(cfg.DatabaseURL)
	}
	return db.NewJSONTripRepository(cfg.TripDataFile)
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
	w.Write([]byte(`{"status": "healthy"}`))
}
