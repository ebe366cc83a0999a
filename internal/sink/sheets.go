package sink

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotConfigured is returned when the service-account credentials or the
// spreadsheet target are missing.
var ErrNotConfigured = errors.New("sink: sheets credentials not configured")

const sheetsScope = "https://www.googleapis.com/auth/spreadsheets"

// serviceAccount is the subset of the Google credentials JSON we need.
type serviceAccount struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// SheetsClient appends rows to a Google spreadsheet through the values:append
// REST endpoint. Auth is a service-account JWT assertion (RS256) exchanged at
// the credential's token URI for a short-lived bearer token, cached until
// shortly before expiry.
type SheetsClient struct {
	SpreadsheetID string
	Range         string

	// BaseURL overrides the Sheets API host (tests).
	BaseURL    string
	HTTPClient *http.Client

	creds serviceAccount
	key   *rsa.PrivateKey
	now   func() time.Time

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewSheetsClient parses the credentials JSON and signing key up front so a
// broken credential surfaces as a configuration error, not a runtime one.
func NewSheetsClient(spreadsheetID, cellRange, credentialsJSON string) (*SheetsClient, error) {
	if spreadsheetID == "" || strings.TrimSpace(credentialsJSON) == "" {
		return nil, ErrNotConfigured
	}

	var sa serviceAccount
	if err := json.Unmarshal([]byte(credentialsJSON), &sa); err != nil {
		return nil, fmt.Errorf("sink: parsing GOOGLE_CREDENTIALS: %w", err)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, ErrNotConfigured
	}
	if sa.TokenURI == "" {
		sa.TokenURI = "https://oauth2.googleapis.com/token"
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(sa.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("sink: parsing service account key: %w", err)
	}

	return &SheetsClient{
		SpreadsheetID: spreadsheetID,
		Range:         cellRange,
		BaseURL:       "https://sheets.googleapis.com",
		HTTPClient:    http.DefaultClient,
		creds:         sa,
		key:           key,
		now:           time.Now,
	}, nil
}

type appendBody struct {
	Values [][]string `json:"values"`
}

// Append inserts one fixed-order row after the current data in the range.
func (c *SheetsClient) Append(ctx context.Context, row []string) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf(
		"%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=RAW&insertDataOption=INSERT_ROWS",
		c.BaseURL,
		url.PathEscape(c.SpreadsheetID),
		url.PathEscape(c.Range),
	)

	payload, err := json.Marshal(appendBody{Values: [][]string{row}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("sink: sheets append failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sink: sheets append rejected: status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

func (c *SheetsClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *SheetsClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.token != "" && now.Before(c.tokenExp.Add(-time.Minute)) {
		return c.token, nil
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   c.creds.ClientEmail,
		"scope": sheetsScope,
		"aud":   c.creds.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sink: signing token assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.creds.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("sink: token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("sink: token exchange rejected: status %d: %s", resp.StatusCode, snippet)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("sink: decoding token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("sink: token response missing access_token")
	}

	c.token = tok.AccessToken
	c.tokenExp = now.Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.token, nil
}
