package pbx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrNotConfigured is returned when the PBX credentials are missing.
	ErrNotConfigured = errors.New("pbx: credentials not configured")

	// ErrCallNotFound is returned when no active call matches the number.
	ErrCallNotFound = errors.New("pbx: call not found in active calls")
)

// Client drives the 3CX call-control REST API. Every operation performs a
// session login first (username/password for a session cookie); the PBX does
// not issue long-lived tokens.
type Client struct {
	BaseURL  string
	Username string
	Password string

	HTTPClient *http.Client
}

func NewClient(baseURL, username, password string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Username:   username,
		Password:   password,
		HTTPClient: http.DefaultClient,
	}
}

// ActiveCall is one live call as reported by the PBX.
type ActiveCall struct {
	ID               int    `json:"Id"`
	OtherPartyNumber string `json:"OtherPartyNumber"`
}

// DisconnectByNumber tears down the active call whose other-party number
// matches the given phone number, either exactly or by its digits.
func (c *Client) DisconnectByNumber(ctx context.Context, phoneNumber string) error {
	if c.BaseURL == "" || c.Username == "" || c.Password == "" {
		return ErrNotConfigured
	}

	session, err := c.login(ctx)
	if err != nil {
		return err
	}

	calls, err := c.activeCalls(ctx, session)
	if err != nil {
		return err
	}

	target, ok := matchCall(calls, phoneNumber)
	if !ok {
		return ErrCallNotFound
	}

	return c.disconnect(ctx, session, target.ID)
}

func matchCall(calls []ActiveCall, phoneNumber string) (ActiveCall, bool) {
	digits := digitsOnly(phoneNumber)
	for _, call := range calls {
		if call.OtherPartyNumber == phoneNumber {
			return call, true
		}
		if digits != "" && strings.Contains(call.OtherPartyNumber, digits) {
			return call, true
		}
	}
	return ActiveCall{}, false
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionID string `json:"SessionId"`
}

func (c *Client) login(ctx context.Context) (string, error) {
	payload, err := json.Marshal(loginBody{Username: c.Username, Password: c.Password})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/login", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("pbx: login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("pbx: login rejected: status %d", resp.StatusCode)
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("pbx: decoding login response: %w", err)
	}
	if out.SessionID == "" {
		return "", errors.New("pbx: login response missing SessionId")
	}
	return out.SessionID, nil
}

func (c *Client) activeCalls(ctx context.Context, session string) ([]ActiveCall, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/ActiveCalls", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cookie", "session="+session)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("pbx: active calls request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pbx: active calls rejected: status %d", resp.StatusCode)
	}

	var out []ActiveCall
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("pbx: decoding active calls: %w", err)
	}
	return out, nil
}

type disconnectBody struct {
	CallID int `json:"CallId"`
}

func (c *Client) disconnect(ctx context.Context, session string, callID int) error {
	payload, err := json.Marshal(disconnectBody{CallID: callID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/DisconnectCall", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", "session="+session)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("pbx: disconnect request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pbx: disconnect rejected: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
