package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured is returned when the server-held private key is missing.
// Surfaced immediately to the caller; never retried.
var ErrNotConfigured = errors.New("vapi: private key not configured")

// Client calls the voice provider's REST API for outbound phone calls.
// The private key stays server-side; the browser only ever sees the public
// key handed out by GET /api/config.
type Client struct {
	BaseURL       string
	PublicKey     string
	PrivateKey    string
	AssistantID   string
	PhoneNumberID string

	HTTPClient *http.Client
}

func NewClient(baseURL, publicKey, privateKey, assistantID, phoneNumberID string) *Client {
	return &Client{
		BaseURL:       baseURL,
		PublicKey:     publicKey,
		PrivateKey:    privateKey,
		AssistantID:   assistantID,
		PhoneNumberID: phoneNumberID,
		HTTPClient:    http.DefaultClient,
	}
}

type PhoneCallRequest struct {
	CustomerName string
	PhoneNumber  string
}

type PhoneCallResult struct {
	CallID string
}

type phoneCallBody struct {
	AssistantID        string             `json:"assistantId"`
	PhoneNumberID      string             `json:"phoneNumberId"`
	Customer           Customer           `json:"customer"`
	AssistantOverrides assistantOverrides `json:"assistantOverrides"`
}

type assistantOverrides struct {
	VariableValues map[string]string `json:"variableValues"`
}

type phoneCallResponse struct {
	ID   string `json:"id"`
	Call *struct {
		ID string `json:"id"`
	} `json:"call"`
	Message json.RawMessage `json:"message"`
}

// StartPhoneCall initiates an outbound phone call. The customer name is also
// passed as a call-start variable so the end-of-call reconciliation can fall
// back to it when the post-call analysis extracts nothing.
func (c *Client) StartPhoneCall(ctx context.Context, req PhoneCallRequest) (PhoneCallResult, error) {
	if c.PrivateKey == "" {
		return PhoneCallResult{}, ErrNotConfigured
	}

	body := phoneCallBody{
		AssistantID:   c.AssistantID,
		PhoneNumberID: c.PhoneNumberID,
		Customer: Customer{
			Name:   req.CustomerName,
			Number: req.PhoneNumber,
		},
		AssistantOverrides: assistantOverrides{
			VariableValues: map[string]string{"customerName": req.CustomerName},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return PhoneCallResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/call/phone", bytes.NewReader(payload))
	if err != nil {
		return PhoneCallResult{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.PrivateKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return PhoneCallResult{}, fmt.Errorf("vapi: phone call request failed: %w", err)
	}
	defer resp.Body.Close()

	var out phoneCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && resp.StatusCode < 300 {
		return PhoneCallResult{}, fmt.Errorf("vapi: decoding phone call response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PhoneCallResult{}, fmt.Errorf("vapi: phone call rejected: status %d: %s", resp.StatusCode, apiMessage(out.Message))
	}

	res := PhoneCallResult{CallID: out.ID}
	if res.CallID == "" && out.Call != nil {
		res.CallID = out.Call.ID
	}
	return res, nil
}

// apiMessage renders the provider's error message field, which may be a
// string or an array of strings.
func apiMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "no error message"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return string(raw)
}
