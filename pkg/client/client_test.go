package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/linkhubhq/linkhub/pkg/client"
)

func newTestServer(t *testing.T) (*httptest.Server, *http.ServeMux) {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, mux
}

func TestRegisterStoresToken(t *testing.T) {
	srv, mux := newTestServer(t)
	mux.HandleFunc("/api/v1/auth/register", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["username"] != "ada" {
			t.Errorf("username = %v", body["username"])
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"user":  map[string]any{"id": 7, "username": "ada"},
			"token": "session-token",
		})
	})
	mux.HandleFunc("/api/v1/users/me/links", func(w http.ResponseWriter, r *http.Request) {
		// The token from Register must ride along on later calls.
		if got := r.Header.Get("Authorization"); got != "Bearer session-token" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"links": []any{}, "count": 0})
	})

	c := client.New(srv.URL)
	result, err := c.Register(context.Background(), client.RegisterRequest{
		Username: "ada", Email: "ada@example.com", Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.Token != "session-token" || result.User.Username != "ada" {
		t.Errorf("result = %+v", result)
	}

	if _, err := c.ListMyLinks(context.Background()); err != nil {
		t.Fatalf("ListMyLinks: %v", err)
	}
}

func TestTrackClick(t *testing.T) {
	srv, mux := newTestServer(t)
	mux.HandleFunc("/api/v1/links/42/click", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true, "click_count": 13})
	})

	count, err := client.New(srv.URL).TrackClick(context.Background(), 42)
	if err != nil {
		t.Fatalf("TrackClick: %v", err)
	}
	if count != 13 {
		t.Errorf("count = %d, want 13", count)
	}
}

func TestErrorMapping(t *testing.T) {
	srv, mux := newTestServer(t)
	mux.HandleFunc("/api/v1/u/nobody", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"error": "user not found", "code": "not_found"})
	})
	mux.HandleFunc("/api/v1/links", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"error": "session required", "code": "unauthenticated"})
	})
	mux.HandleFunc("/api/v1/links/9/click", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{"error": "link is not active", "code": "link_inactive"})
	})

	c := client.New(srv.URL)
	ctx := context.Background()

	if _, err := c.GetPublicProfile(ctx, "nobody"); !errors.Is(err, client.ErrNotFound) {
		t.Errorf("GetPublicProfile error = %v, want ErrNotFound", err)
	}
	if _, err := c.CreateLink(ctx, client.CreateLinkRequest{Title: "x", URL: "https://x.example.com"}); !errors.Is(err, client.ErrUnauthenticated) {
		t.Errorf("CreateLink error = %v, want ErrUnauthenticated", err)
	}
	if _, err := c.TrackClick(ctx, 9); !errors.Is(err, client.ErrConflict) {
		t.Errorf("TrackClick error = %v, want ErrConflict", err)
	}
}

func TestWithSessionToken(t *testing.T) {
	srv, mux := newTestServer(t)
	mux.HandleFunc("/api/v1/links/5", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer preset" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	c := client.New(srv.URL, client.WithSessionToken("preset"))
	if err := c.DeleteLink(context.Background(), 5); err != nil {
		t.Fatalf("DeleteLink: %v", err)
	}
}
