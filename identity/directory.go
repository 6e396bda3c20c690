//go:generate go run go.uber.org/mock/mockgen -source=directory.go -destination=../mocks/mock_directory_client.go -package=mocks
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "member-hub/errors"
)

// DirectoryClient looks a participant up in the membership directory, the
// secondary identity backend behind the org's REST API.
type DirectoryClient interface {
	Lookup(ctx context.Context, participantID string) (DirectoryUser, error)
}

// DirectoryUser mirrors the directory's user document.
type DirectoryUser struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// directoryEnvelope is the directory's response wrapper.
type directoryEnvelope struct {
	Data DirectoryUser `json:"data"`
}

type HTTPDirectoryClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPDirectoryClient(baseURL string, timeout time.Duration) *HTTPDirectoryClient {
	return &HTTPDirectoryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPDirectoryClient) Lookup(ctx context.Context, participantID string) (DirectoryUser, error) {
	endpoint := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(participantID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return DirectoryUser{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return DirectoryUser{}, fmt.Errorf("%w: %v", apperrors.ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return DirectoryUser{}, apperrors.ErrProfileNotFound
	case resp.StatusCode != http.StatusOK:
		return DirectoryUser{}, fmt.Errorf("%w: status %d", apperrors.ErrDirectoryUnavailable, resp.StatusCode)
	}

	var envelope directoryEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return DirectoryUser{}, fmt.Errorf("%w: %v", apperrors.ErrDirectoryUnavailable, err)
	}
	if envelope.Data.UserID == "" || envelope.Data.FullName == "" {
		return DirectoryUser{}, apperrors.ErrProfileNotFound
	}
	return envelope.Data, nil
}
