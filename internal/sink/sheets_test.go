package sink

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testCredentialsJSON(t *testing.T, tokenURI string) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	pemKey := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	creds, err := json.Marshal(map[string]string{
		"client_email": "logger@project.iam.gserviceaccount.com",
		"private_key":  string(pemKey),
		"token_uri":    tokenURI,
	})
	if err != nil {
		t.Fatalf("marshaling creds: %v", err)
	}
	return string(creds)
}

func TestNewSheetsClient_RequiresCredentials(t *testing.T) {
	if _, err := NewSheetsClient("sheet-id", "Sheet1!A1:M", ""); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := NewSheetsClient("", "Sheet1!A1:M", "{}"); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured for missing spreadsheet id, got %v", err)
	}
	if _, err := NewSheetsClient("sheet-id", "Sheet1!A1:M", "not json"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSheetsClient_AppendExchangesTokenAndPostsRow(t *testing.T) {
	var tokenCalls, appendCalls int
	var gotAppendPath, gotAuth string
	var gotBody appendBody

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/token":
			tokenCalls++
			if err := r.ParseForm(); err != nil {
				t.Fatalf("parse form: %v", err)
			}
			if r.PostFormValue("grant_type") != "urn:ietf:params:oauth:grant-type:jwt-bearer" {
				t.Fatalf("unexpected grant_type %q", r.PostFormValue("grant_type"))
			}
			if r.PostFormValue("assertion") == "" {
				t.Fatalf("expected signed assertion")
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 3600})
		default:
			appendCalls++
			gotAppendPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
				t.Fatalf("decode append body: %v", err)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"updates": map[string]any{"updatedRows": 1}})
		}
	}))
	defer srv.Close()

	c, err := NewSheetsClient("sheet-id", "Sheet1!A1:M", testCredentialsJSON(t, srv.URL+"/token"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	c.BaseURL = srv.URL
	c.now = func() time.Time { return time.Unix(1700000000, 0).UTC() }

	row := []string{"Ada", "2024-01-15T10:00:00Z", "", "4", "", "positive", "summary", "FALSE", "", "1", "157", "", ""}
	if err := c.Append(context.Background(), row); err != nil {
		t.Fatalf("unexpected append err: %v", err)
	}

	if tokenCalls != 1 || appendCalls != 1 {
		t.Fatalf("expected 1 token + 1 append call, got %d/%d", tokenCalls, appendCalls)
	}
	if !strings.Contains(gotAppendPath, "/v4/spreadsheets/sheet-id/values/") || !strings.Contains(gotAppendPath, ":append") {
		t.Fatalf("unexpected append path %q", gotAppendPath)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if len(gotBody.Values) != 1 || len(gotBody.Values[0]) != 13 {
		t.Fatalf("expected one 13-column row, got %+v", gotBody.Values)
	}

	// second append reuses the cached token
	if err := c.Append(context.Background(), row); err != nil {
		t.Fatalf("unexpected second append err: %v", err)
	}
	if tokenCalls != 1 {
		t.Fatalf("expected cached token, got %d token calls", tokenCalls)
	}
}

func TestSheetsClient_AppendSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
			return
		}
		http.Error(w, `{"error": {"status": "PERMISSION_DENIED"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := NewSheetsClient("sheet-id", "Sheet1!A1:M", testCredentialsJSON(t, srv.URL+"/token"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	c.BaseURL = srv.URL

	if err := c.Append(context.Background(), []string{"x"}); err == nil {
		t.Fatalf("expected append error")
	}
}

func TestMemoryAppender_CopiesRows(t *testing.T) {
	m := &MemoryAppender{}
	row := []string{"a", "b"}
	if err := m.Append(context.Background(), row); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	row[0] = "mutated"
	if got := m.Rows(); got[0][0] != "a" {
		t.Fatalf("expected stored copy, got %q", got[0][0])
	}
}
