package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capsulevault/timecapsule/internal/application"
	"github.com/capsulevault/timecapsule/internal/infrastructure/memory"
	"github.com/capsulevault/timecapsule/internal/interface/middleware"
	"github.com/capsulevault/timecapsule/pkg/helpers"
	"github.com/capsulevault/timecapsule/pkg/validation"
)

type testServer struct {
	engine *gin.Engine
	auth   *application.AuthService
	clock  *time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	logger := logrus.New()
	jwt := helpers.NewJWTManager("test-secret", 24*time.Hour)
	users := memory.NewUserRepository()
	capsules := memory.NewCapsuleRepository(users)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now

	authSvc := application.NewAuthService(users, jwt, logger)
	capsuleSvc := application.NewCapsuleService(capsules, users, nil, logger)
	capsuleSvc.Now = func() time.Time { return *clock }

	r := gin.New()
	authH := NewAuthHandler(authSvc, logger)
	capH := NewCapsuleHandler(capsuleSvc, logger)
	r.POST("/register", authH.Register)
	r.POST("/login", authH.Login)
	r.GET("/status", NewStatusHandler().Status)

	protected := r.Group("/capsules")
	protected.Use(middleware.BearerAuth(jwt))
	{
		protected.POST("", capH.Create)
		protected.GET("", capH.List)
		protected.GET("/analytics", capH.Analytics)
		protected.GET("/:id", capH.Get)
		protected.PUT("/:id", capH.Update)
		protected.DELETE("/:id", capH.Delete)
	}

	return &testServer{engine: r, auth: authSvc, clock: clock}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func (ts *testServer) registerAndLogin(t *testing.T, username string) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/register", "", gin.H{"username": username, "password": "password123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token, _, err := ts.auth.Login(context.Background(), username, "password123")
	require.NoError(t, err)
	return token
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestStatusEndpoint(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/status", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"running"}`, w.Body.String())
}

func TestRegister_Duplicate(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/register", "", gin.H{"username": "alice", "password": "password123"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, "/register", "", gin.H{"username": "alice", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_MissingFields(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/register", "", gin.H{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_BadPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAndLogin(t, "alice")

	w := ts.do(t, http.MethodPost, "/login", "", gin.H{"username": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCapsules_RequireAuth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/capsules", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/capsules", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCapsule_CreateAndReadOpen(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice")

	open := ts.clock.Add(-time.Second)
	w := ts.do(t, http.MethodPost, "/capsules", token, gin.H{"text": "hello", "date_open": open})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := dataOf(t, w)
	assert.Equal(t, "hello", data["text"])
	assert.Equal(t, "alice", data["author"])

	id := int64(data["id"].(float64))
	w = ts.do(t, http.MethodGet, fmt.Sprintf("/capsules/%d", id), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", dataOf(t, w)["text"])
}

func TestCapsule_LockedReadIs403_ThenOpens(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice")

	open := ts.clock.Add(time.Hour)
	w := ts.do(t, http.MethodPost, "/capsules", token, gin.H{"text": "sealed", "date_open": open})
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(dataOf(t, w)["id"].(float64))

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/capsules/%d", id), token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	*ts.clock = ts.clock.Add(2 * time.Hour)
	w = ts.do(t, http.MethodGet, fmt.Sprintf("/capsules/%d", id), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sealed", dataOf(t, w)["text"])
}

func TestCapsule_ForeignCapsuleIs404(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.registerAndLogin(t, "alice")
	bob := ts.registerAndLogin(t, "bob")

	w := ts.do(t, http.MethodPost, "/capsules", alice, gin.H{"text": "mine", "date_open": ts.clock.Add(-time.Minute)})
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(dataOf(t, w)["id"].(float64))

	path := fmt.Sprintf("/capsules/%d", id)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, path, bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPut, path, bob, gin.H{"text": "x", "date_open": *ts.clock}).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, path, bob, nil).Code)
}

func TestCapsule_UpdateWhileLocked_ReadsNewTextAfterUnlock(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice")

	open := ts.clock.Add(time.Hour)
	w := ts.do(t, http.MethodPost, "/capsules", token, gin.H{"text": "first", "date_open": open})
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(dataOf(t, w)["id"].(float64))

	path := fmt.Sprintf("/capsules/%d", id)
	w = ts.do(t, http.MethodPut, path, token, gin.H{"text": "second", "date_open": open})
	require.Equal(t, http.StatusOK, w.Code, "editing a sealed capsule is allowed")

	*ts.clock = ts.clock.Add(2 * time.Hour)
	w = ts.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "second", dataOf(t, w)["text"])
}

func TestCapsule_ListRedactsSealedText(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice")

	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/capsules", token, gin.H{"text": "open", "date_open": ts.clock.Add(-time.Minute)}).Code)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/capsules", token, gin.H{"text": "sealed", "date_open": ts.clock.Add(time.Minute)}).Code)

	w := ts.do(t, http.MethodGet, "/capsules", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, "open", envelope.Data[0]["text"])
	assert.Equal(t, true, envelope.Data[0]["opened"])
	assert.NotContains(t, w.Body.String(), "sealed")
	assert.Equal(t, false, envelope.Data[1]["opened"])
}

func TestCapsule_Analytics(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice")

	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/capsules", token, gin.H{"text": "a", "date_open": ts.clock.Add(-time.Minute)}).Code)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/capsules", token, gin.H{"text": "b", "date_open": ts.clock.Add(time.Minute)}).Code)

	w := ts.do(t, http.MethodGet, "/capsules/analytics", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.Equal(t, float64(2), data["total_capsules"])
	assert.Equal(t, float64(1), data["pending_capsules"])
	assert.Equal(t, float64(1), data["opened_capsules"])
}

func TestCapsule_DeleteThen404(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice")

	w := ts.do(t, http.MethodPost, "/capsules", token, gin.H{"text": "bye", "date_open": ts.clock.Add(-time.Minute)})
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(dataOf(t, w)["id"].(float64))

	path := fmt.Sprintf("/capsules/%d", id)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, path, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, path, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, path, token, nil).Code)
}

func TestCapsule_NonNumericIDIs404(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice")

	w := ts.do(t, http.MethodGet, "/capsules/abc", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
