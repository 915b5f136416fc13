package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpcontext "github.com/dtroode/vidtube-accounts/internal/api/http/context"
	"github.com/dtroode/vidtube-accounts/internal/apperror"
	"github.com/dtroode/vidtube-accounts/internal/logger"
	"github.com/dtroode/vidtube-accounts/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	t.Run("generated", func(t *testing.T) {
		rec := performRequest(r, httptest.NewRequest(http.MethodGet, "/", nil))
		id := rec.Header().Get(RequestIDHeader)
		_, err := ulid.ParseStrict(id)
		require.NoError(t, err)
		assert.Equal(t, id, rec.Body.String())
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "upstream-id")
		rec := performRequest(r, req)
		assert.Equal(t, "upstream-id", rec.Header().Get(RequestIDHeader))
	})
}

type observedRequest struct {
	route  string
	method string
	status int
}

type fakeObserver struct {
	mu   sync.Mutex
	seen []observedRequest
}

func (f *fakeObserver) ObserveHTTPRequest(route, method string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, observedRequest{route, method, status})
}

func TestLogging_HandleHTTP(t *testing.T) {
	var buf bytes.Buffer
	observer := &fakeObserver{}
	logging := NewLogging(logger.NewWithWriter(&buf, -4), observer)

	r := gin.New()
	r.Use(RequestID(), logging.HandleHTTP)
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	performRequest(r, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	performRequest(r, httptest.NewRequest(http.MethodGet, "/fail", nil))
	performRequest(r, httptest.NewRequest(http.MethodGet, "/missing", nil))

	out := buf.String()
	assert.Contains(t, out, "HTTP request completed")
	assert.Contains(t, out, "route=/items/:id")
	assert.Contains(t, out, "HTTP request failed")
	assert.Contains(t, out, "request_id=")

	require.Len(t, observer.seen, 3)
	assert.Equal(t, observedRequest{"/items/:id", http.MethodGet, http.StatusNoContent}, observer.seen[0])
	assert.Equal(t, observedRequest{"/fail", http.MethodGet, http.StatusBadGateway}, observer.seen[1])
	assert.Equal(t, observedRequest{"unmatched", http.MethodGet, http.StatusNotFound}, observer.seen[2])
}

type fakeVerifier struct {
	tokens map[string]uuid.UUID
}

func (f fakeVerifier) VerifyAccess(_ context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, apperror.NewErrMissingAuthorizationToken()
	}
	id, ok := f.tokens[token]
	if !ok {
		return uuid.Nil, apperror.NewErrInvalidAuthorizationToken()
	}
	return id, nil
}

func TestAuthenticate_HandleHTTP(t *testing.T) {
	accountID := uuid.New()
	cm := httpcontext.NewManager()
	auth := NewAuthenticate(fakeVerifier{tokens: map[string]uuid.UUID{"good": accountID}}, cm, testutil.MakeNoopLogger())

	r := gin.New()
	r.GET("/me", auth.HandleHTTP, func(c *gin.Context) {
		id, ok := cm.GetAccountIDFromContext(c.Request.Context())
		require.True(t, ok)
		c.String(http.StatusOK, id.String())
	})

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		status  int
		message string
	}{
		{
			name:    "cookie",
			prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "good"}) },
			status:  http.StatusOK,
		},
		{
			name:    "bearer header",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			status:  http.StatusOK,
		},
		{
			name:    "lowercase bearer",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "bearer good") },
			status:  http.StatusOK,
		},
		{
			name: "cookie wins over header",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "bad"})
				r.Header.Set("Authorization", "Bearer good")
			},
			status:  http.StatusUnauthorized,
			message: "invalid access token",
		},
		{
			name:    "missing",
			prepare: func(r *http.Request) {},
			status:  http.StatusUnauthorized,
			message: "unauthorized request",
		},
		{
			name:    "not bearer",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Basic Z29vZA==") },
			status:  http.StatusUnauthorized,
			message: "unauthorized request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.prepare(req)
			rec := performRequest(r, req)

			require.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, accountID.String(), rec.Body.String())
				return
			}
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["message"])
			assert.Equal(t, false, body["success"])
		})
	}
}

type countingRecorder struct {
	mu sync.Mutex
	n  int
}

func (c *countingRecorder) RecordRateLimited() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func TestRateLimit_HandleHTTP(t *testing.T) {
	recorder := &countingRecorder{}
	rl := NewRateLimit(RateLimitConfig{RequestsPerWindow: 2, Window: time.Hour, Burst: 2}, recorder, testutil.MakeNoopLogger())

	r := gin.New()
	r.POST("/login", rl.HandleHTTP, func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		return performRequest(r, req)
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

	rec := send("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Contains(t, rec.Body.String(), `"success":false`)

	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
	assert.Equal(t, 1, recorder.n)
}

func TestNewRateLimit_Defaults(t *testing.T) {
	rl := NewRateLimit(RateLimitConfig{}, nil, testutil.MakeNoopLogger())
	assert.Equal(t, time.Minute, rl.cfg.Window)
	assert.Equal(t, 1, rl.cfg.RequestsPerWindow)
	assert.Equal(t, 1, rl.cfg.Burst)
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Recovery(logger.NewWithWriter(&buf, 0)))
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	rec := performRequest(r, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":500,"message":"something went wrong","success":false}`, rec.Body.String())
	assert.Contains(t, buf.String(), "kaboom")
}
