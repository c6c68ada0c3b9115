package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linkhubhq/linkhub/internal/api/handler"
	"github.com/linkhubhq/linkhub/internal/identity"
	"github.com/linkhubhq/linkhub/internal/links"
	"github.com/linkhubhq/linkhub/internal/profilecache"
	"github.com/linkhubhq/linkhub/internal/users"
	"go.uber.org/zap"
)

type fakeProfileUserSvc struct {
	user      *users.User
	getErr    error
	updateErr error

	getCalls  int
	lastPatch users.ProfilePatch
}

func (f *fakeProfileUserSvc) GetByUsername(_ context.Context, username string) (*users.User, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.user, nil
}

func (f *fakeProfileUserSvc) UpdateProfile(_ context.Context, id int64, patch users.ProfilePatch) (*users.User, error) {
	f.lastPatch = patch
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.user, nil
}

type fakeProfileLinkSvc struct {
	active []*links.PublicLink
	all    []*links.Link
}

func (f *fakeProfileLinkSvc) ListActiveByOwner(_ context.Context, ownerID int64) ([]*links.PublicLink, error) {
	return f.active, nil
}

func (f *fakeProfileLinkSvc) ListByOwner(_ context.Context, ownerID int64) ([]*links.Link, error) {
	return f.all, nil
}

func newUserRouter(userSvc *fakeProfileUserSvc, linkSvc *fakeProfileLinkSvc) (*gin.Engine, *identity.TokenIssuer) {
	issuer := newTestIssuer()
	r := gin.New()
	cache := profilecache.New[*handler.PublicProfile](time.Minute)
	h := handler.NewUserHandler(userSvc, linkSvc, issuer, cache, zap.NewNop())
	h.Register(r.Group("/api/v1"))
	return r, issuer
}

func profileUser() *users.User {
	display := "Ada L."
	return &users.User{
		ID:           7,
		Username:     "ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$secretsecretsecretsecret",
		DisplayName:  &display,
		CreatedAt:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestGetPublicProfile(t *testing.T) {
	linkSvc := &fakeProfileLinkSvc{
		active: []*links.PublicLink{
			{ID: 1, Title: "Blog", URL: "https://blog.example.com", ClickCount: 12},
			{ID: 3, Title: "Shop", URL: "https://shop.example.com"},
		},
	}
	r, _ := newUserRouter(&fakeProfileUserSvc{user: profileUser()}, linkSvc)

	w := doRequest(r, http.MethodGet, "/api/v1/u/ada", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	resp := decodeBody(t, w)
	if resp["username"] != "ada" || resp["display_name"] != "Ada L." {
		t.Errorf("profile fields = %v", resp)
	}
	gotLinks, _ := resp["links"].([]any)
	if len(gotLinks) != 2 {
		t.Fatalf("links = %v, want 2 entries", resp["links"])
	}

	// The public payload carries no account internals.
	for _, forbidden := range []string{"id", "email", "password", "created_at", "updated_at"} {
		if _, present := resp[forbidden]; present {
			t.Errorf("public profile exposes %q", forbidden)
		}
	}
	body := w.Body.String()
	if strings.Contains(body, "ada@example.com") || strings.Contains(body, "secretsecret") {
		t.Error("public profile leaks email or credentials")
	}
}

func TestGetPublicProfileUnknownUser(t *testing.T) {
	r, _ := newUserRouter(&fakeProfileUserSvc{getErr: users.ErrNotFound}, &fakeProfileLinkSvc{})

	w := doRequest(r, http.MethodGet, "/api/v1/u/nobody", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if resp := decodeBody(t, w); resp["code"] != "not_found" {
		t.Errorf("code = %v, want not_found", resp["code"])
	}
}

func TestGetPublicProfileCached(t *testing.T) {
	userSvc := &fakeProfileUserSvc{user: profileUser()}
	r, issuer := newUserRouter(userSvc, &fakeProfileLinkSvc{})

	for i := 0; i < 3; i++ {
		if w := doRequest(r, http.MethodGet, "/api/v1/u/ada", "", ""); w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	}
	if userSvc.getCalls != 1 {
		t.Errorf("store hit %d times for 3 reads, want 1", userSvc.getCalls)
	}

	// Editing the profile drops the cached page.
	tok := sessionFor(t, issuer, 7, "ada")
	if w := doRequest(r, http.MethodPatch, "/api/v1/users/me/profile", `{"bio":"new"}`, tok); w.Code != http.StatusOK {
		t.Fatalf("patch status = %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/api/v1/u/ada", "", ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if userSvc.getCalls != 2 {
		t.Errorf("store hit %d times after invalidation, want 2", userSvc.getCalls)
	}
}

func TestUpdateMyProfileRequiresSession(t *testing.T) {
	r, _ := newUserRouter(&fakeProfileUserSvc{user: profileUser()}, &fakeProfileLinkSvc{})

	w := doRequest(r, http.MethodPatch, "/api/v1/users/me/profile", `{"bio":"hi"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestUpdateMyProfile(t *testing.T) {
	userSvc := &fakeProfileUserSvc{user: profileUser()}
	r, issuer := newUserRouter(userSvc, &fakeProfileLinkSvc{})
	tok := sessionFor(t, issuer, 7, "ada")

	// display_name is explicitly nulled, bio set, avatar_url absent.
	w := doRequest(r, http.MethodPatch, "/api/v1/users/me/profile", `{"display_name":null,"bio":"analyst"}`, tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	p := userSvc.lastPatch
	if !p.DisplayName.Set || p.DisplayName.Value != nil {
		t.Errorf("display_name patch = %+v, want explicit null", p.DisplayName)
	}
	if !p.Bio.Set || p.Bio.Value == nil || *p.Bio.Value != "analyst" {
		t.Errorf("bio patch = %+v", p.Bio)
	}
	if p.AvatarURL.Set {
		t.Error("absent avatar_url arrived as set")
	}
}

func TestListMyLinks(t *testing.T) {
	linkSvc := &fakeProfileLinkSvc{
		all: []*links.Link{
			{ID: 1, OwnerID: 7, Title: "Blog", URL: "https://blog.example.com", IsActive: true},
			{ID: 2, OwnerID: 7, Title: "Drafts", URL: "https://drafts.example.com", IsActive: false},
		},
	}
	r, issuer := newUserRouter(&fakeProfileUserSvc{user: profileUser()}, linkSvc)
	tok := sessionFor(t, issuer, 7, "ada")

	w := doRequest(r, http.MethodGet, "/api/v1/users/me/links", "", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	if resp["count"] != float64(2) {
		t.Errorf("count = %v, want 2 (inactive links included for the owner)", resp["count"])
	}
}

func TestListMyLinksEmpty(t *testing.T) {
	r, issuer := newUserRouter(&fakeProfileUserSvc{user: profileUser()}, &fakeProfileLinkSvc{})
	tok := sessionFor(t, issuer, 7, "ada")

	w := doRequest(r, http.MethodGet, "/api/v1/users/me/links", "", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decodeBody(t, w)
	if resp["count"] != float64(0) {
		t.Errorf("count = %v, want 0", resp["count"])
	}
	if _, ok := resp["links"].([]any); !ok {
		t.Errorf("links = %v, want an empty array not null", resp["links"])
	}
}
