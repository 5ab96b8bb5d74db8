package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pathweaver/pathweaver/internal/backend"
	"github.com/pathweaver/pathweaver/internal/config"
	"github.com/pathweaver/pathweaver/internal/logger"
	"github.com/pathweaver/pathweaver/internal/persist"
	"github.com/pathweaver/pathweaver/internal/prompt"
	"github.com/pathweaver/pathweaver/internal/story"
	"github.com/pathweaver/pathweaver/internal/suggest"
)

// Server exposes the suggestion engine to the host UI over HTTP.
type Server struct {
	engine    *suggest.Engine
	store     *persist.Store
	settings  config.Settings
	startedAt time.Time

	upgrader websocket.Upgrader
}

// NewServer wires the engine and store into an HTTP surface. store may
// be nil; custom category and template endpoints then report
// unavailability.
func NewServer(engine *suggest.Engine, store *persist.Store, settings config.Settings) *Server {
	return &Server{
		engine:    engine,
		store:     store,
		settings:  settings,
		startedAt: time.Now().UTC(),
		upgrader: websocket.Upgrader{
			// The host UI runs on its own origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/suggestions", s.handleSuggestions)
	mux.HandleFunc("/api/suggestions/cancel", s.handleCancel)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/categories", s.handleCategories)
	mux.HandleFunc("/api/categories/custom", s.handleCustomCategory)
	mux.HandleFunc("/api/templates/", s.handleTemplate)
	mux.HandleFunc("/api/models", s.handleModels)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

type suggestionsRequest struct {
	Category     string           `json:"category"`
	Mode         string           `json:"mode,omitempty"`
	Directions   []string         `json:"directions,omitempty"`
	ForceRefresh bool             `json:"force_refresh,omitempty"`
	Settings     *config.Settings `json:"settings,omitempty"`
	State        *story.State     `json:"state"`
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req suggestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	if req.Category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category is required"})
		return
	}

	result, err := s.engine.Generate(r.Context(), suggest.Request{
		State:        req.State,
		Category:     req.Category,
		Mode:         req.Mode,
		Directions:   req.Directions,
		ForceRefresh: req.ForceRefresh,
		Settings:     req.Settings,
	})
	if err != nil {
		if errors.Is(err, suggest.ErrBusy) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "a generation is already in progress"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	s.engine.Cancel()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"busy":       s.engine.Busy(),
		"state":      s.engine.State(),
		"started_at": s.startedAt.Format(time.RFC3339),
		"uptime_sec": int(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	cats := prompt.BuiltinCategories(s.settings.ShowExplicit)
	if s.store != nil {
		custom, err := s.store.ListCustomCategories()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		for _, c := range custom {
			cats = append(cats, prompt.Category{ID: c.ID, Name: c.Name, Icon: c.Icon})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

type customCategoryRequest struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Icon   string `json:"icon"`
	Prompt string `json:"prompt"`
}

func (s *Server) handleCustomCategory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no store configured"})
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req customCategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
			return
		}
		if req.ID == "" || req.Prompt == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id and prompt are required"})
			return
		}
		if prompt.Builtin(req.ID) || req.ID == prompt.CategoryDirector {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id collides with a builtin category"})
			return
		}
		err := s.store.SaveCustomCategory(persist.CustomCategory{
			ID: req.ID, Name: req.Name, Icon: req.Icon, Prompt: req.Prompt,
		})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		s.engine.Templates().Invalidate(req.ID)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
			return
		}
		if err := s.store.DeleteCustomCategory(id); err != nil {
			if errors.Is(err, persist.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		s.engine.Templates().Invalidate(id)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

type templateRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no store configured"})
		return
	}

	category := strings.TrimPrefix(r.URL.Path, "/api/templates/")
	if category == "" || strings.Contains(category, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category is required"})
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req templateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "prompt is required"})
			return
		}
		if err := s.store.SaveTemplateOverride(category, req.Prompt); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		s.engine.Templates().Invalidate(category)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case http.MethodDelete:
		if err := s.store.DeleteTemplateOverride(category); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		s.engine.Templates().Invalidate(category)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	models, err := backend.ListModels(r.Context(), s.settings.OllamaURL)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

type event struct {
	Type string `json:"type"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var ev event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	s.applyEvent(ev)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleWS accepts a websocket connection from the host and consumes
// event frames until the peer goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	logger.Debug("Host connected over websocket")
	for {
		var ev event
		if err := conn.ReadJSON(&ev); err != nil {
			logger.Debug("Websocket closed: %v", err)
			return
		}
		s.applyEvent(ev)
	}
}

func (s *Server) applyEvent(ev event) {
	switch ev.Type {
	case "chat_changed", "generation_ended":
		logger.Debug("Host event %s, invalidating cache", ev.Type)
		s.engine.InvalidateCache()
	default:
		logger.Debug("Ignoring host event %q", ev.Type)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
