package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kbenhida/leadbot/internal/chatbot"
	"github.com/kbenhida/leadbot/internal/models"
	"github.com/kbenhida/leadbot/internal/storage"
)

// fallbackReply is the single user-visible failure message. Every internal
// error (bad input, LLM failure, database failure) collapses to this reply
// with a human escalation number; operators distinguish causes from logs.
const fallbackReply = "Désolé, je rencontre un souci technique en ce moment. " +
	"Vous pouvez me réécrire dans un instant, ou joindre directement le consultant au " +
	chatbot.ConsultantPhone + "."

type Server struct {
	chatbot       *chatbot.Service
	store         storage.Storage
	logger        *zap.Logger
	adminToken    string
	allowedOrigin string
}

func New(chatbotSvc *chatbot.Service, store storage.Storage, adminToken, allowedOrigin string, logger *zap.Logger) *Server {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return &Server{
		chatbot:       chatbotSvc,
		store:         store,
		logger:        logger,
		adminToken:    adminToken,
		allowedOrigin: allowedOrigin,
	}
}

// Router wires the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Route("/api", func(api chi.Router) {
		api.Post("/chat", s.handleChat)
		api.Get("/leads", s.handleListLeads)
	})
	r.Get("/healthz", s.handleHealth)

	return r
}

type chatRequest struct {
	Message             string               `json:"message"`
	ConversationHistory []models.ChatMessage `json:"conversationHistory"`
	SessionID           string               `json:"sessionId"`
	UserAgent           string               `json:"userAgent"`
}

type chatResponse struct {
	Response                string            `json:"response"`
	SessionID               string            `json:"sessionId"`
	ConversationID          string            `json:"conversationId,omitempty"`
	LeadScore               int               `json:"leadScore"`
	LeadStatus              models.LeadStatus `json:"leadStatus,omitempty"`
	ProjectComplexity       models.Complexity `json:"projectComplexity,omitempty"`
	HasBusinessIntent       bool              `json:"hasBusinessIntent"`
	ContextualSuggestions   []string          `json:"contextualSuggestions"`
	ShouldCollectEmail      bool              `json:"shouldCollectEmail"`
	ShouldOfferConsultation bool              `json:"shouldOfferConsultation"`
	Error                   bool              `json:"error,omitempty"`
	Timestamp               string            `json:"timestamp"`
}

// handleChat runs one chat turn. The endpoint always answers HTTP 200: on
// any failure the body carries error=true and the fallback reply, so the
// widget keeps a working conversation no matter what broke server-side.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("Invalid chat request body", zap.Error(err))
		s.respondFallback(w, "")
		return
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = r.UserAgent()
	}

	result, err := s.chatbot.HandleTurn(r.Context(), chatbot.TurnRequest{
		Message:   req.Message,
		History:   req.ConversationHistory,
		SessionID: req.SessionID,
		UserAgent: userAgent,
	})
	if err != nil {
		s.logger.Error("Chat turn failed",
			zap.Error(err),
			zap.String("session_id", req.SessionID))
		s.respondFallback(w, req.SessionID)
		return
	}

	suggestionsOut := result.ContextualSuggestions
	if suggestionsOut == nil {
		suggestionsOut = []string{}
	}

	respondJSON(w, s.logger, http.StatusOK, chatResponse{
		Response:                result.Response,
		SessionID:               result.SessionID,
		ConversationID:          result.ConversationID,
		LeadScore:               result.LeadScore,
		LeadStatus:              result.LeadStatus,
		ProjectComplexity:       result.ProjectComplexity,
		HasBusinessIntent:       result.HasBusinessIntent,
		ContextualSuggestions:   suggestionsOut,
		ShouldCollectEmail:      result.ShouldCollectEmail,
		ShouldOfferConsultation: result.ShouldOfferConsultation,
		Timestamp:               time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) respondFallback(w http.ResponseWriter, sessionID string) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	respondJSON(w, s.logger, http.StatusOK, chatResponse{
		Response:              fallbackReply,
		SessionID:             sessionID,
		ContextualSuggestions: []string{},
		Error:                 true,
		Timestamp:             time.Now().UTC().Format(time.RFC3339),
	})
}

// handleListLeads serves the CRM's lead list, newest first. Gated by a
// bearer token so only the consultant's dashboard can read it.
func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	if s.adminToken == "" {
		respondError(w, s.logger, http.StatusServiceUnavailable, "leads endpoint disabled")
		return
	}
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.adminToken {
		respondError(w, s.logger, http.StatusUnauthorized, "invalid token")
		return
	}

	leads, err := s.store.ListLeads(r.Context())
	if err != nil {
		s.logger.Error("Failed to list leads", zap.Error(err))
		respondError(w, s.logger, http.StatusInternalServerError, "failed to list leads")
		return
	}
	if leads == nil {
		leads = []*models.Lead{}
	}
	respondJSON(w, s.logger, http.StatusOK, map[string]any{"leads": leads})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]string{"error": message})
}
