package plex

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"frameworks/api_reaper/pkg/clients"
	"frameworks/api_reaper/pkg/logging"
)

// Client provides access to the media server's HTTP API.
type Client struct {
	BaseURL string
	Token   string

	httpClient *http.Client
	// streamClient has no timeout; event streams stay open indefinitely.
	streamClient *http.Client
	executor     failsafe.Executor[*http.Response]
	logger       logging.Logger
}

// NewClient creates a new API client.
func NewClient(baseURL, token string, logger logging.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		streamClient: &http.Client{},
		executor:     clients.NewHTTPExecutor(clients.DefaultHTTPExecutorConfig()),
		logger:       logger,
	}
}

func (c *Client) buildURL(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return c.BaseURL + path + sep + "X-Plex-Token=" + url.QueryEscape(c.Token)
}

func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	return clients.ExecuteHTTP(ctx, c.executor, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/xml")
		return c.httpClient.Do(req)
	})
}

// ListLiveSessions fetches the sessions endpoint and returns the Live TV
// rows. Non-live playback is ignored.
func (c *Client) ListLiveSessions(ctx context.Context) ([]SessionRow, error) {
	resp, err := c.do(ctx, http.MethodGet, "/status/sessions")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sessions endpoint returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions response: %w", err)
	}

	var mc mediaContainer
	if err := xml.Unmarshal(data, &mc); err != nil {
		return nil, fmt.Errorf("failed to parse sessions response: %w", err)
	}

	var rows []SessionRow
	for _, v := range mc.Videos {
		if !strings.HasPrefix(v.Key, "/livetv/sessions/") {
			continue
		}
		row := SessionRow{
			Title:      v.Title,
			LiveKey:    strings.TrimSpace(v.Key),
			SessionKey: v.SessionKey,
		}
		if v.Player != nil {
			row.PlayerAddr = v.Player.Address
			row.PlayerProduct = v.Player.Product
			row.PlayerPlatform = v.Player.Platform
			row.PlayerDevice = v.Player.Device
			row.MachineID = v.Player.MachineIdentifier
			row.State = v.Player.State
		}
		if v.TranscodeSession != nil && strings.Contains(v.TranscodeSession.Key, "/transcode/sessions/") {
			if idx := strings.LastIndex(v.TranscodeSession.Key, "/"); idx >= 0 {
				row.TranscodeID = v.TranscodeSession.Key[idx+1:]
			}
		}
		if v.Session != nil {
			row.SessionID = v.Session.ID
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// StopTranscode asks the server to stop a transcode session. The server's
// status code is returned alongside any transport error so callers can
// log the outcome.
func (c *Client) StopTranscode(ctx context.Context, transcodeID string) (int, error) {
	path := "/video/:/transcode/universal/stop?session=" + url.QueryEscape(transcodeID)
	resp, err := c.do(ctx, http.MethodPut, path)
	if err != nil {
		return 0, fmt.Errorf("failed to stop transcode %s: %w", transcodeID, err)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// OpenEventStream opens the server's notification event stream. The caller
// owns the returned body and must close it. No retry policy applies here;
// reconnect handling lives with the consumer.
func (c *Client) OpenEventStream(ctx context.Context) (io.ReadCloser, error) {
	u := c.buildURL("/:/eventsource/notifications")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("event stream returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
