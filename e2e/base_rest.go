package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"member-hub/identity"
	"member-hub/infrastructure/rest"
	"member-hub/repositories"
	"member-hub/runtime"
	"member-hub/services"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/database"
	"github.com/stretchr/testify/suite"
)

// BaseRestSuite boots the whole messaging stack in-process: badger + bluge
// in temp directories, the full service graph, and the REST server behind an
// httptest listener.
type BaseRestSuite struct {
	suite.Suite
	Config Config

	Server   *httptest.Server
	Profiles *repositories.ProfileRepository
	Hub      *runtime.Hub
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseRestSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

func (s *BaseRestSuite) SetupTest() {
	_, log, badgerDB, blugeWriter, err := database.SetupBenchmark(s.T().TempDir())
	s.Require().NoError(err)
	s.T().Cleanup(func() { database.CleanupDB(badgerDB, blugeWriter) })

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

	server := httptest.NewServer(
		rest.NewServer(log, conversations, messages, feed, notifications, badges).Router())
	s.T().Cleanup(server.Close)

	s.Server = server
	s.Profiles = profileRepo
	s.Hub = hub
}

// Step prints a colorized header so scenario logs stay readable
func (s *BaseRestSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Call performs one HTTP call against the stack with optional JSON debugging
func (s *BaseRestSuite) Call(method, path string, body any) *http.Response {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		s.Require().NoError(err)
	}

	req, err := http.NewRequest(method, s.Server.URL+path, bytes.NewReader(payload))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err, "Failed to reach server at "+path)

	logBuilder := strings.Builder{}
	fmt.Fprintf(&logBuilder, "HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))
	if s.Config.DebugJSON && body != nil {
		fmt.Fprintln(&logBuilder, "\nREQUEST:")
		fmt.Fprintln(&logBuilder, string(payload))
	}
	s.T().Log(logBuilder.String())

	return resp
}

// Decode reads one JSON response body into out and closes it
func (s *BaseRestSuite) Decode(resp *http.Response, out any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
}

// StreamURL rewrites the test server URL for a websocket endpoint
func (s *BaseRestSuite) StreamURL(path string) string {
	return strings.Replace(s.Server.URL, "http://", "ws://", 1) + path
}
