// Package api is the HTTP surface for channel administration and health. It
// holds no business logic: authorization decisions come from the permission
// gate and persistence from the store.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"collabhub/internal/permission"
	"collabhub/internal/session"
	"collabhub/pkg/interfaces"
	"collabhub/pkg/types"
)

// Stats exposes live connection counts for the health endpoint.
type Stats interface {
	Stats() map[string]int
}

type Server struct {
	store    interfaces.MessageStore
	verifier interfaces.TokenVerifier
	stats    Stats
	router   *http.ServeMux
}

// NewServer wires the channel admin and health routes.
func NewServer(store interfaces.MessageStore, verifier interfaces.TokenVerifier, stats Stats) *Server {
	s := &Server{
		store:    store,
		verifier: verifier,
		stats:    stats,
		router:   http.NewServeMux(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Handle("/api/channels", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleChannels))))
	s.router.Handle("/api/channels/", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleChannelByID))))
	s.router.Handle("/health", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.healthCheck))))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createChannel(w, r)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleChannelByID(w http.ResponseWriter, r *http.Request) {
	channelID := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/channels/"), "/")[0]
	if channelID == "" {
		s.sendError(w, "Channel ID required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getChannel(w, r, channelID)
	case http.MethodPatch:
		s.renameChannel(w, r, channelID)
	case http.MethodDelete:
		s.deleteChannel(w, r, channelID)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type CreateChannelRequest struct {
	WorkspaceSlug string `json:"workspaceSlug"`
	Name          string `json:"name"`
}

type RenameChannelRequest struct {
	Name string `json:"name"`
}

type ChannelResponse struct {
	Channel *types.Channel `json:"channel"`
}

type HealthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Database    string         `json:"database"`
	Connections map[string]int `json:"connections"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// authorize resolves the request's user and their role in the workspace.
func (s *Server) authorize(r *http.Request, workspaceSlug string) (types.User, string, int, error) {
	user, err := s.verifier.Verify(session.TokenFromRequest(r))
	if err != nil {
		return types.User{}, "", http.StatusUnauthorized, errors.New("invalid or missing session token")
	}

	role, err := s.store.MemberRole(r.Context(), workspaceSlug, user.ID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotMember) {
			return types.User{}, "", http.StatusForbidden, errors.New("not a member of this workspace")
		}
		return types.User{}, "", http.StatusInternalServerError, errors.New("failed to check membership")
	}

	return user, role, http.StatusOK, nil
}

// createChannel records a new channel owned by the authenticated member.
// Ownership is fixed at creation and never transfers.
func (s *Server) createChannel(w http.ResponseWriter, r *http.Request) {
	var req CreateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	user, role, code, err := s.authorize(r, req.WorkspaceSlug)
	if err != nil {
		s.sendError(w, err.Error(), code)
		return
	}
	if role == types.RoleViewer {
		s.sendError(w, "Viewers cannot create channels", http.StatusForbidden)
		return
	}

	channel := &types.Channel{
		ID:            uuid.NewString(),
		WorkspaceSlug: req.WorkspaceSlug,
		Name:          req.Name,
		CreatedBy:     user.ID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := channel.Validate(); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.CreateChannel(r.Context(), channel); err != nil {
		log.Printf("Failed to create channel: %v", err)
		s.sendError(w, "Failed to create channel", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(ChannelResponse{Channel: channel})
}

func (s *Server) getChannel(w http.ResponseWriter, r *http.Request, channelID string) {
	channel, err := s.store.GetChannel(r.Context(), channelID)
	if err != nil {
		if errors.Is(err, interfaces.ErrChannelNotFound) {
			s.sendError(w, "Channel not found", http.StatusNotFound)
		} else {
			s.sendError(w, "Failed to get channel", http.StatusInternalServerError)
		}
		return
	}

	if _, _, code, err := s.authorize(r, channel.WorkspaceSlug); err != nil {
		s.sendError(w, err.Error(), code)
		return
	}

	_ = json.NewEncoder(w).Encode(ChannelResponse{Channel: channel})
}

func (s *Server) renameChannel(w http.ResponseWriter, r *http.Request, channelID string) {
	var req RenameChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if !types.IsValidChannelName(req.Name) {
		s.sendError(w, "Invalid channel name", http.StatusBadRequest)
		return
	}

	channel, err := s.store.GetChannel(r.Context(), channelID)
	if err != nil {
		if errors.Is(err, interfaces.ErrChannelNotFound) {
			s.sendError(w, "Channel not found", http.StatusNotFound)
		} else {
			s.sendError(w, "Failed to get channel", http.StatusInternalServerError)
		}
		return
	}

	user, role, code, err := s.authorize(r, channel.WorkspaceSlug)
	if err != nil {
		s.sendError(w, err.Error(), code)
		return
	}

	if !permission.CanRename(channel, user.ID, role) {
		s.sendError(w, "Only the channel creator can rename it", http.StatusForbidden)
		return
	}

	if err := s.store.RenameChannel(r.Context(), channelID, req.Name); err != nil {
		log.Printf("Failed to rename channel %s: %v", channelID, err)
		s.sendError(w, "Failed to rename channel", http.StatusInternalServerError)
		return
	}

	channel.Name = req.Name
	_ = json.NewEncoder(w).Encode(ChannelResponse{Channel: channel})
}

func (s *Server) deleteChannel(w http.ResponseWriter, r *http.Request, channelID string) {
	channel, err := s.store.GetChannel(r.Context(), channelID)
	if err != nil {
		if errors.Is(err, interfaces.ErrChannelNotFound) {
			s.sendError(w, "Channel not found", http.StatusNotFound)
		} else {
			s.sendError(w, "Failed to get channel", http.StatusInternalServerError)
		}
		return
	}

	user, role, code, err := s.authorize(r, channel.WorkspaceSlug)
	if err != nil {
		s.sendError(w, err.Error(), code)
		return
	}

	if !permission.CanDelete(channel, user.ID, role) {
		s.sendError(w, "Only the channel creator or a workspace admin can delete it", http.StatusForbidden)
		return
	}

	if err := s.store.DeleteChannel(r.Context(), channelID); err != nil {
		log.Printf("Failed to delete channel %s: %v", channelID, err)
		s.sendError(w, "Failed to delete channel", http.StatusInternalServerError)
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Channel deleted"})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	dbStatus := "healthy"

	if err := s.store.HealthCheck(ctx); err != nil {
		status = "unhealthy"
		dbStatus = fmt.Sprintf("error: %v", err)
	}

	response := HealthResponse{
		Status:      status,
		Timestamp:   time.Now().UTC(),
		Database:    dbStatus,
		Connections: s.stats.Stats(),
	}

	if status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	_ = json.NewEncoder(w).Encode(response)
}

func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(code),
		Code:    code,
		Message: message,
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		next.ServeHTTP(w, r)
	})
}
