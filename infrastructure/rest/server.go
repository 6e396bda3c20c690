// Package rest exposes the messaging core over HTTP: JSON endpoints for the
// admin console's request/response calls and websocket streams for its live
// views.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "member-hub/errors"
	"member-hub/services"

	"github.com/gorilla/mux"
)

type Server struct {
	log           *slog.Logger
	conversations services.IConversationService
	messages      services.IMessageService
	feed          services.IFeedService
	notifications services.INotificationService
	badges        services.IBadgeService
}

func NewServer(
	log *slog.Logger,
	conversations services.IConversationService,
	messages services.IMessageService,
	feed services.IFeedService,
	notifications services.INotificationService,
	badges services.IBadgeService,
) *Server {
	return &Server{
		log:           log,
		conversations: conversations,
		messages:      messages,
		feed:          feed,
		notifications: notifications,
		badges:        badges,
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/conversations", s.handleOpenConversation).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}/messages", s.handleSendMessage).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}/messages", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/read", s.handleMarkRead).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}/search", s.handleSearch).Methods(http.MethodGet)

	r.HandleFunc("/users/{id}/badge", s.handleBadge).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/notifications", s.handleListNotifications).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/notifications", s.handlePushNotification).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}/notifications/read-all", s.handleMarkAllNotificationsRead).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}/notifications/{notificationID}/read", s.handleMarkNotificationRead).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}/notifications/{notificationID}", s.handleDeleteNotification).Methods(http.MethodDelete)

	r.HandleFunc("/ws/users/{id}/feed", s.handleFeedStream).Methods(http.MethodGet)
	r.HandleFunc("/ws/conversations/{id}/messages", s.handleMessageStream).Methods(http.MethodGet)

	return r
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("Response encoding failed", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed", "err", err)
	}
	s.respond(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrConversationNotFound),
		errors.Is(err, apperrors.ErrMessageNotFound),
		errors.Is(err, apperrors.ErrNotificationNotFound),
		errors.Is(err, apperrors.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrNotParticipant),
		errors.Is(err, apperrors.ErrWrongRecipient):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrSelfConversation),
		errors.Is(err, apperrors.ErrEmptyContent),
		errors.Is(err, apperrors.ErrMissingAttachment),
		errors.Is(err, apperrors.ErrInvalidDocument):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrWriteConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
