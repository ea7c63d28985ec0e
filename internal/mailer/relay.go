package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// RelayClient sends mail through an HTTP relay API (a transactional mail
// provider's JSON endpoint). The request carries recipient, subject, and body;
// the relay handles actual SMTP delivery.
type RelayClient struct {
	APIKey     string
	BaseURL    string
	From       string
	HTTPClient *http.Client
}

// NewRelayClient returns a client for the given relay endpoint. The timeout on
// the HTTP client bounds how long a notifier call can stall its caller.
func NewRelayClient(apiKey, baseURL, from string) *RelayClient {
	return &RelayClient{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		From:       from,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Send posts the message to the relay. Does not log the body, which may carry
// a confirmation link.
func (c *RelayClient) Send(to, subject, body string) error {
	if c.APIKey == "" || c.BaseURL == "" {
		return fmt.Errorf("mailer: relay not configured")
	}
	payload := map[string]string{
		"from":    c.From,
		"to":      to,
		"subject": subject,
		"text":    body,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mailer: relay returned status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}
