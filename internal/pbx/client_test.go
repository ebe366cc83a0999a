package pbx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func pbxServer(t *testing.T, calls []ActiveCall, disconnected *[]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			var body loginBody
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode login: %v", err)
			}
			if body.Username != "op" || body.Password != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(loginResponse{SessionID: "sess-1"})
		case "/api/ActiveCalls":
			if r.Header.Get("Cookie") != "session=sess-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(calls)
		case "/api/DisconnectCall":
			if r.Header.Get("Cookie") != "session=sess-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			var body disconnectBody
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode disconnect: %v", err)
			}
			*disconnected = append(*disconnected, body.CallID)
			w.WriteHeader(http.StatusOK)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
}

func TestDisconnectByNumber_ExactMatch(t *testing.T) {
	var disconnected []int
	srv := pbxServer(t, []ActiveCall{
		{ID: 7, OtherPartyNumber: "+15551234567"},
		{ID: 8, OtherPartyNumber: "+15557654321"},
	}, &disconnected)
	defer srv.Close()

	c := NewClient(srv.URL, "op", "secret")
	if err := c.DisconnectByNumber(context.Background(), "+15557654321"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(disconnected) != 1 || disconnected[0] != 8 {
		t.Fatalf("expected call 8 disconnected, got %v", disconnected)
	}
}

func TestDisconnectByNumber_DigitsMatch(t *testing.T) {
	var disconnected []int
	srv := pbxServer(t, []ActiveCall{
		{ID: 3, OtherPartyNumber: "15551234567"},
	}, &disconnected)
	defer srv.Close()

	c := NewClient(srv.URL, "op", "secret")
	// formatted number differs from the PBX representation
	if err := c.DisconnectByNumber(context.Background(), "+1 (555) 123-4567"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(disconnected) != 1 || disconnected[0] != 3 {
		t.Fatalf("expected call 3 disconnected, got %v", disconnected)
	}
}

func TestDisconnectByNumber_NotFound(t *testing.T) {
	var disconnected []int
	srv := pbxServer(t, []ActiveCall{
		{ID: 3, OtherPartyNumber: "15551234567"},
	}, &disconnected)
	defer srv.Close()

	c := NewClient(srv.URL, "op", "secret")
	err := c.DisconnectByNumber(context.Background(), "+15550000000")
	if !errors.Is(err, ErrCallNotFound) {
		t.Fatalf("expected ErrCallNotFound, got %v", err)
	}
	if len(disconnected) != 0 {
		t.Fatalf("expected no disconnects, got %v", disconnected)
	}
}

func TestDisconnectByNumber_LoginFailure(t *testing.T) {
	var disconnected []int
	srv := pbxServer(t, nil, &disconnected)
	defer srv.Close()

	c := NewClient(srv.URL, "op", "wrong")
	if err := c.DisconnectByNumber(context.Background(), "+15551234567"); err == nil {
		t.Fatalf("expected login error")
	}
}

func TestDisconnectByNumber_RequiresCredentials(t *testing.T) {
	c := NewClient("", "", "")
	if err := c.DisconnectByNumber(context.Background(), "+15551234567"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
