package rest

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"member-hub/domain"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
)

type openConversationRequest struct {
	SelfID  string `json:"self_id"`
	OtherID string `json:"other_id"`
}

type sendMessageRequest struct {
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
	Type        string `json:"type"`
	FileURL     string `json:"file_url"`
}

type markReadRequest struct {
	ReaderID string `json:"reader_id"`
}

type pushNotificationRequest struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Link    string `json:"link"`
}

func (s *Server) handleOpenConversation(w http.ResponseWriter, r *http.Request) {
	var req openConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}

	conversation, err := s.conversations.GetOrCreate(r.Context(), req.SelfID, req.OtherID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, toConversationPayload(conversation))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	conversationID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "malformed conversation id"})
		return
	}
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	messageType := domain.MessageType(req.Type)
	if messageType == "" {
		messageType = domain.MessageText
	}

	message, err := s.messages.Send(r.Context(), domain.SendMessageCommand{
		ConversationID: conversationID,
		SenderID:       req.SenderID,
		RecipientID:    req.RecipientID,
		Content:        req.Content,
		Type:           messageType,
		FileURL:        req.FileURL,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, toMessagePayload(message))
}

// handleHistory serves one page of a conversation's log, newest first. The
// response carries an opaque cursor for the next older page when one exists.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	conversationID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "malformed conversation id"})
		return
	}
	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	messages, next, err := s.messages.History(r.Context(), conversationID, cursor)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"messages":    toMessagePayloads(messages),
		"next_cursor": next,
	})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	conversationID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "malformed conversation id"})
		return
	}
	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}

	if err := s.messages.MarkRead(r.Context(), conversationID, req.ReaderID); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	conversationID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "malformed conversation id"})
		return
	}
	terms := r.URL.Query().Get("q")
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.respond(w, http.StatusBadRequest, map[string]string{"error": "malformed limit"})
			return
		}
		limit = parsed
	}

	messages, err := s.messages.Search(r.Context(), conversationID, terms, limit)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"messages": toMessagePayloads(messages)})
}

func (s *Server) handleBadge(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	unreadMessages, err := s.badges.UnreadMessageCount(r.Context(), userID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	unreadNotifications, err := s.badges.UnreadNotificationCount(r.Context(), userID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]int{
		"unread_messages":      unreadMessages,
		"unread_notifications": unreadNotifications,
	})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := s.notifications.List(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"notifications": toNotificationPayloads(notifications)})
}

func (s *Server) handlePushNotification(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	var req pushNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}

	notification, err := s.notifications.Push(r.Context(), userID, req.Type, req.Title, req.Message, req.Link)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, toNotificationPayloads([]domain.Notification{notification})[0])
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	notificationID, err := uuid.Parse(vars["notificationID"])
	if err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "malformed notification id"})
		return
	}
	if err := s.notifications.MarkRead(r.Context(), vars["id"], notificationID); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	marked, err := s.notifications.MarkAllRead(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]int{"marked": marked})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	notificationID, err := uuid.Parse(vars["notificationID"])
	if err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "malformed notification id"})
		return
	}
	if err := s.notifications.Delete(r.Context(), vars["id"], notificationID); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusNoContent, nil)
}

// handleHealth reports liveness plus the process's own resource usage. Stats
// collection failures degrade the payload, never the status code.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok", "pid": os.Getpid()}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := p.MemoryInfo(); err == nil {
			body["ram_bytes"] = memInfo.RSS
		}
		if cpuPercent, err := p.CPUPercent(); err == nil {
			body["cpu_percent"] = cpuPercent
		}
		if status, err := p.Status(); err == nil {
			body["process_status"] = status
		}
	} else {
		s.log.Warn("Failed to collect self stats", "err", err)
	}

	s.respond(w, http.StatusOK, body)
}
