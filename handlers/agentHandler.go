package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/ddc002021/MapServerMCP/models"
	"github.com/ddc002021/MapServerMCP/services/agent"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// AgentHandler exposes the agent over HTTP. Each session id maps to its own
// conversation; the registry and backends behind the service are shared.
type AgentHandler struct {
	service  *agent.Service
	mu       sync.Mutex
	sessions map[string]*agent.Session
}

func NewAgentHandler(service *agent.Service) *AgentHandler {
	return &AgentHandler{
		service:  service,
		sessions: make(map[string]*agent.Session),
	}
}

func (h *AgentHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/agent/chat", h.Chat).Methods("POST")
	router.HandleFunc("/agent/reset", h.Reset).Methods("POST")
}

func (h *AgentHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode chat request JSON: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if req.Message == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "Message is required")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	session := h.session(sessionID)

	answer, err := session.Chat(r.Context(), req.Message)
	if err != nil {
		log.Printf("[ERROR] Chat round failed for session %s: %v", sessionID, err)
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, models.ChatResponse{
		SessionID: sessionID,
		Answer:    answer,
	})
}

func (h *AgentHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req models.ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	h.mu.Lock()
	session, ok := h.sessions[req.SessionID]
	h.mu.Unlock()
	if !ok {
		h.writeErrorResponse(w, http.StatusNotFound, "Unknown session")
		return
	}

	session.Reset()
	h.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "reset"})
}

// session returns the conversation for an id, creating it on first use.
func (h *AgentHandler) session(id string) *agent.Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	session, ok := h.sessions[id]
	if !ok {
		session = h.service.NewSession()
		h.sessions[id] = session
	}
	return session
}

func (h *AgentHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *AgentHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
