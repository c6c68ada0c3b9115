package handler_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linkhubhq/linkhub/internal/identity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestIssuer() *identity.TokenIssuer {
	return identity.NewTokenIssuer([]byte("handler-test-secret"), "https://linkhub.test", time.Hour)
}

// doRequest runs one request through the router. An empty token means an
// anonymous call.
func doRequest(r *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func sessionFor(t *testing.T, issuer *identity.TokenIssuer, userID int64, username string) string {
	t.Helper()
	tok, err := issuer.Issue(userID, username)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}
