package rest

import (
	"context"
	"net/http"

	"member-hub/contract"
	"member-hub/domain"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// The stream endpoints push the full refreshed result set on every change,
// mirroring the service subscription contract. Clients replace their local
// state with each frame instead of patching it.

func (s *Server) handleFeedStream(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("Feed stream handshake failed", "user", userID, "err", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	// CloseRead surfaces client disconnects as context cancellation
	ctx := conn.CloseRead(r.Context())

	unsubscribe := s.feed.Subscribe(ctx, userID, contract.SinkFunc[domain.ConversationSummary](
		func(ctx context.Context, batch []domain.ConversationSummary) {
			if err := wsjson.Write(ctx, conn, toSummaryPayloads(batch)); err != nil {
				s.log.Debug("Feed stream write failed", "user", userID, "err", err)
			}
		}))
	defer unsubscribe()

	<-ctx.Done()
	conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) handleMessageStream(w http.ResponseWriter, r *http.Request) {
	conversationID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "malformed conversation id", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("Message stream handshake failed", "conversation", conversationID.String(), "err", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	ctx := conn.CloseRead(r.Context())

	unsubscribe := s.messages.Subscribe(ctx, conversationID, contract.SinkFunc[domain.Message](
		func(ctx context.Context, batch []domain.Message) {
			if err := wsjson.Write(ctx, conn, toMessagePayloads(batch)); err != nil {
				s.log.Debug("Message stream write failed", "conversation", conversationID.String(), "err", err)
			}
		}))
	defer unsubscribe()

	<-ctx.Done()
	conn.Close(websocket.StatusNormalClosure, "")
}
