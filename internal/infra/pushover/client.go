package pushover

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docketvoice/internal/infra"
)

const defaultTitle = "DocketVoice"

type Client struct {
	token      string
	userKey    string
	baseURL    string
	title      string
	httpClient *http.Client
}

func NewClient(token, userKey string) *Client {
	return NewClientWithURL(token, userKey, "https://api.pushover.net/1")
}

func NewClientWithURL(token, userKey, baseURL string) *Client {
	return &Client{
		token:      token,
		userKey:    userKey,
		baseURL:    baseURL,
		title:      defaultTitle,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether credentials are configured. Notify is a no-op
// otherwise.
func (c *Client) Enabled() bool {
	return c.token != "" && c.userKey != ""
}

func (c *Client) Notify(ctx context.Context, message string) error {
	if !c.Enabled() {
		return nil
	}

	data := url.Values{}
	data.Set("token", c.token)
	data.Set("user", c.userKey)
	data.Set("message", message)
	data.Set("title", c.title)
	body := data.Encode()

	return infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(
			ctx,
			http.MethodPost,
			c.baseURL+"/messages.json",
			strings.NewReader(body),
		)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending notification: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return infra.StatusError("pushover", resp.StatusCode, respBody)
		}

		return nil
	})
}
