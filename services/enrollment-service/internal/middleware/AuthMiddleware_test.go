package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"courseplatform/services/enrollment-service/internal/domain"
	"courseplatform/services/enrollment-service/internal/infrastructure/security"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newRouter(a *Auth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	whoami := func(c *gin.Context) {
		if id := Identity(c); id != nil {
			c.String(http.StatusOK, id.UserID.String())
			return
		}
		c.String(http.StatusOK, "anonymous")
	}
	r.GET("/required", a.Required(), whoami)
	r.GET("/optional", a.Optional(), whoami)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tm := security.NewTokenManager("secret")
	r := newRouter(NewAuth(tm))
	userID := uuid.New()
	token, err := tm.Generate(domain.Identity{UserID: userID, Role: "user"}, time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	cases := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"required no header", "/required", "", http.StatusUnauthorized, ""},
		{"required bad scheme", "/required", "Basic abc", http.StatusUnauthorized, ""},
		{"required bad token", "/required", "Bearer nope", http.StatusUnauthorized, ""},
		{"required ok", "/required", "Bearer " + token, http.StatusOK, userID.String()},
		{"optional anonymous", "/optional", "", http.StatusOK, "anonymous"},
		{"optional bad token", "/optional", "Bearer nope", http.StatusOK, "anonymous"},
		{"optional ok", "/optional", "Bearer " + token, http.StatusOK, userID.String()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("status %d, want %d", w.Code, tc.status)
			}
			if tc.body != "" && w.Body.String() != tc.body {
				t.Fatalf("body %q, want %q", w.Body.String(), tc.body)
			}
		})
	}
}

func TestRateLimiterWithoutRedisPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", NewRateLimiter(nil).Limit("x", 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("request %d: status %d", i, w.Code)
		}
	}
}
