package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herdbook/internal/core/apperror"
	appctx "herdbook/internal/core/context"
	"herdbook/internal/infrastructure/http/v1/dto"
	"herdbook/pkg/logger"
)

type stubValidator struct {
	user *appctx.UserContext
	err  error
	got  string
}

func (s *stubValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	s.got = token
	return s.user, s.err
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(), Trace(), Logger(logger.Nop()), ErrorHandler())
	r.Use(handlers...)
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRecovery_PanicBecomes500(t *testing.T) {
	r := newEngine()
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := do(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := errorBody(t, w)
	assert.Equal(t, apperror.CodeInternal, body.Code)
	assert.NotContains(t, w.Body.String(), "kaboom")
	assert.Equal(t, w.Header().Get(HeaderRequestID), body.Details["request_id"])
}

func TestErrorHandler_AppErrorAndPlainError(t *testing.T) {
	r := newEngine()
	r.GET("/conflict", func(c *gin.Context) {
		_ = c.Error(apperror.NewTagUniqueness("farm-1", "COW-001"))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("socket closed"))
	})

	w := do(r, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	body := errorBody(t, w)
	assert.Equal(t, apperror.CodeTagUniqueness, body.Code)
	assert.Equal(t, "COW-001", body.Details["candidate"])

	w = do(r, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "socket closed")
}

func TestTrace_KeepsSafeRequestID(t *testing.T) {
	r := newEngine()
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "scan-42")
	w := do(r, req)
	assert.Equal(t, "scan-42", w.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "bad id\n")
	w = do(r, req)
	assert.NotEqual(t, "bad id\n", w.Header().Get(HeaderRequestID))
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestAuth_HeaderParsing(t *testing.T) {
	cases := map[string]int{
		"":              http.StatusUnauthorized,
		"Bearer":        http.StatusUnauthorized,
		"Basic abc":     http.StatusUnauthorized,
		"Bearer  ":      http.StatusUnauthorized,
		"bearer tok-1":  http.StatusNoContent,
		"Bearer tok-1 ": http.StatusNoContent,
	}
	for header, want := range cases {
		t.Run(header, func(t *testing.T) {
			v := &stubValidator{user: &appctx.UserContext{UserID: "u1", FarmID: "farm-1"}}
			r := newEngine(Auth(v))
			r.GET("/me", func(c *gin.Context) {
				assert.Equal(t, "u1", appctx.GetUser(c.Request.Context()).UserID)
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := do(r, req)
			assert.Equal(t, want, w.Code)
			if want == http.StatusNoContent {
				assert.Equal(t, "tok-1", v.got)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name string
		user *appctx.UserContext
		want int
	}{
		{"manager", &appctx.UserContext{FarmID: "f1", Roles: []string{"manager"}}, http.StatusNoContent},
		{"viewer", &appctx.UserContext{FarmID: "f1", Roles: []string{"viewer"}}, http.StatusForbidden},
		{"admin without roles", &appctx.UserContext{IsAdmin: true}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newEngine(Auth(&stubValidator{user: tc.user}), RequireRole("admin", "manager"))
			r.PUT("/settings", func(c *gin.Context) { c.Status(http.StatusNoContent) })

			req := httptest.NewRequest(http.MethodPut, "/settings", nil)
			req.Header.Set("Authorization", "Bearer t")
			assert.Equal(t, tc.want, do(r, req).Code)
		})
	}
}
