package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"member-hub/domain"
	apperrors "member-hub/errors"
	"member-hub/identity"
	"member-hub/repositories"
	"member-hub/runtime"
	"member-hub/services"

	"github.com/mama165/sdk-go/database"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type restFixture struct {
	server   *httptest.Server
	profiles *repositories.ProfileRepository
}

func newRestFixture(t *testing.T) restFixture {
	t.Helper()
	_, log, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.CleanupDB(badgerDB, blugeWriter) })

	hub := runtime.NewHub()
	conversationRepo := repositories.NewConversationRepository(badgerDB, log, hub)
	messageRepo := repositories.NewMessageRepository(badgerDB, blugeWriter, log, hub, nil, 10)
	notificationRepo := repositories.NewNotificationRepository(badgerDB, log, hub)
	profileRepo := repositories.NewProfileRepository(badgerDB)

	conversations := services.NewConversationService(log, conversationRepo, hub)
	messages := services.NewMessageService(log, messageRepo, hub)
	chain := identity.NewChain(log, identity.NewProfileStoreResolver(profileRepo))
	feed := services.NewFeedService(log, conversations, chain)
	notifications := services.NewNotificationService(log, notificationRepo, hub)
	badges := services.NewBadgeService(conversationRepo, notificationRepo)

	server := httptest.NewServer(NewServer(log, conversations, messages, feed, notifications, badges).Router())
	t.Cleanup(server.Close)
	return restFixture{server: server, profiles: profileRepo}
}

func (f restFixture) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(f.server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func Test_Conversation_And_Message_Endpoints(t *testing.T) {
	req := require.New(t)
	f := newRestFixture(t)

	resp := f.postJSON(t, "/conversations", map[string]string{"self_id": "alice", "other_id": "bob"})
	req.Equal(http.StatusOK, resp.StatusCode)
	conversation := decodeBody[conversationPayload](t, resp)
	req.ElementsMatch([]string{"alice", "bob"}, conversation.Participants)

	// Opening the same pair again must return the same conversation
	resp = f.postJSON(t, "/conversations", map[string]string{"self_id": "bob", "other_id": "alice"})
	req.Equal(conversation.ID, decodeBody[conversationPayload](t, resp).ID)

	resp = f.postJSON(t, "/conversations/"+conversation.ID+"/messages", map[string]string{
		"sender_id": "alice", "recipient_id": "bob", "content": "Hello Bob",
	})
	req.Equal(http.StatusCreated, resp.StatusCode)
	message := decodeBody[messagePayload](t, resp)
	req.Equal("text", message.Type)
	req.False(message.Read)

	historyResp, err := http.Get(f.server.URL + "/conversations/" + conversation.ID + "/messages")
	req.NoError(err)
	history := decodeBody[struct {
		Messages   []messagePayload `json:"messages"`
		NextCursor *string          `json:"next_cursor"`
	}](t, historyResp)
	req.Len(history.Messages, 1)
	req.Nil(history.NextCursor)

	resp = f.postJSON(t, "/conversations/"+conversation.ID+"/read", map[string]string{"reader_id": "bob"})
	req.Equal(http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	badgeResp, err := http.Get(f.server.URL + "/users/bob/badge")
	req.NoError(err)
	badge := decodeBody[map[string]int](t, badgeResp)
	req.Zero(badge["unread_messages"])
}

func Test_Endpoints_Map_Domain_Errors_To_Statuses(t *testing.T) {
	req := require.New(t)
	f := newRestFixture(t)

	resp := f.postJSON(t, "/conversations", map[string]string{"self_id": "alice", "other_id": "alice"})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = f.postJSON(t, "/conversations", map[string]string{"self_id": "alice", "other_id": "bob"})
	conversation := decodeBody[conversationPayload](t, resp)

	resp = f.postJSON(t, "/conversations/"+conversation.ID+"/messages", map[string]string{
		"sender_id": "alice", "recipient_id": "bob",
	})
	req.Equal(http.StatusBadRequest, resp.StatusCode, "empty text content")
	resp.Body.Close()

	resp = f.postJSON(t, "/conversations/"+conversation.ID+"/messages", map[string]string{
		"sender_id": "mallory", "recipient_id": "bob", "content": "Hi",
	})
	req.Equal(http.StatusForbidden, resp.StatusCode, "foreign sender")
	resp.Body.Close()

	deleteReq, err := http.NewRequest(http.MethodDelete,
		f.server.URL+"/users/alice/notifications/00000000-0000-0000-0000-000000000001", nil)
	req.NoError(err)
	resp, err = http.DefaultClient.Do(deleteReq)
	req.NoError(err)
	req.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func Test_Notification_Endpoints(t *testing.T) {
	req := require.New(t)
	f := newRestFixture(t)

	resp := f.postJSON(t, "/users/alice/notifications", map[string]string{
		"type": "event", "title": "Board meeting", "message": "Tomorrow at 18:00", "link": "/events/42",
	})
	req.Equal(http.StatusCreated, resp.StatusCode)
	pushed := decodeBody[notificationPayload](t, resp)

	resp = f.postJSON(t, fmt.Sprintf("/users/alice/notifications/%s/read", pushed.ID), nil)
	req.Equal(http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	listResp, err := http.Get(f.server.URL + "/users/alice/notifications")
	req.NoError(err)
	list := decodeBody[struct {
		Notifications []notificationPayload `json:"notifications"`
	}](t, listResp)
	req.Len(list.Notifications, 1)
	req.True(list.Notifications[0].Read)
}

func Test_Feed_Stream_Pushes_Refreshed_Summaries(t *testing.T) {
	req := require.New(t)
	f := newRestFixture(t)

	require.NoError(t, f.profiles.Put(domain.ParticipantProfile{ID: "bob", DisplayName: "Bob Martin", Role: "staff"}))

	wsURL := strings.Replace(f.server.URL, "http://", "ws://", 1) + "/ws/users/alice/feed"
	conn, _, err := websocket.Dial(t.Context(), wsURL, nil)
	req.NoError(err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var initial []summaryPayload
	req.NoError(wsjson.Read(t.Context(), conn, &initial))
	req.Empty(initial)

	resp := f.postJSON(t, "/conversations", map[string]string{"self_id": "alice", "other_id": "bob"})
	conversation := decodeBody[conversationPayload](t, resp)
	resp = f.postJSON(t, "/conversations/"+conversation.ID+"/messages", map[string]string{
		"sender_id": "bob", "recipient_id": "alice", "content": "Lunch?",
	})
	resp.Body.Close()

	// Creation and append coalesce into one or two frames
	var frame []summaryPayload
	for {
		req.NoError(wsjson.Read(t.Context(), conn, &frame))
		if len(frame) == 1 && frame[0].Unread == 1 {
			break
		}
	}
	req.Equal("Bob Martin", frame[0].OtherUser.DisplayName)
	req.Equal("Lunch?", frame[0].LastMessage)
}

func Test_Exhausted_Write_Conflict_Maps_To_Conflict_Status(t *testing.T) {
	req := require.New(t)
	req.Equal(http.StatusConflict, statusFor(fmt.Errorf("append message: %w", apperrors.ErrWriteConflict)))
	req.Equal(http.StatusInternalServerError, statusFor(fmt.Errorf("store fault")))
}
