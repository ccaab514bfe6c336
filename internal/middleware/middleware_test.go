package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusnest/forum/internal/auth"
	"github.com/campusnest/forum/internal/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(jwt *auth.JWTService, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{Auth(jwt)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c).String())
	})
	r.GET("/x", handlers...)
	return r
}

func TestAuth(t *testing.T) {
	jwt := auth.NewJWTService("secret", 1)
	user := uuid.New()
	token, _ := jwt.GenerateToken(user, auth.RoleStudent)

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"bearer header", "Bearer " + token, "", http.StatusOK},
		{"lowercase scheme", "bearer " + token, "", http.StatusOK},
		{"query token", "", "?token=" + token, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized},
	}
	r := newRouter(jwt)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusOK && w.Body.String() != user.String() {
				t.Errorf("user = %s, want %s", w.Body.String(), user)
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	jwt := auth.NewJWTService("secret", 1)
	r := newRouter(jwt, AdminOnly())

	for role, want := range map[string]int{auth.RoleAdmin: http.StatusOK, auth.RoleStudent: http.StatusForbidden} {
		token, _ := jwt.GenerateToken(uuid.New(), role)
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("role %s: status = %d, want %d", role, w.Code, want)
		}
	}
}

type countingAllower struct{ limit, n int }

func (c *countingAllower) Allow(context.Context, string, ratelimit.Rule) (bool, error) {
	c.n++
	return c.n <= c.limit, nil
}

func TestRateLimit(t *testing.T) {
	jwt := auth.NewJWTService("secret", 1)
	token, _ := jwt.GenerateToken(uuid.New(), auth.RoleStudent)
	r := newRouter(jwt, RateLimit(&countingAllower{limit: 2}, ratelimit.Rule{Key: "rl:test:", Limit: 2, Window: time.Minute}))

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}
