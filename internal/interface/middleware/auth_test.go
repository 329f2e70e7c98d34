package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capsulevault/timecapsule/pkg/helpers"
)

func authTestEngine(jwt *helpers.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", BearerAuth(jwt), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUsernameKey))
	})
	return r
}

func get(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBearerAuth_ValidToken(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", time.Hour)
	r := authTestEngine(jwt)

	token, _, err := jwt.Generate("alice")
	require.NoError(t, err)

	w := get(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())
}

func TestBearerAuth_MissingHeader(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", time.Hour)
	w := get(authTestEngine(jwt), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuth_WrongScheme(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", time.Hour)
	token, _, err := jwt.Generate("alice")
	require.NoError(t, err)

	w := get(authTestEngine(jwt), "Basic "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuth_ExpiredToken(t *testing.T) {
	expired := helpers.NewJWTManager("secret", -time.Minute)
	token, _, err := expired.Generate("alice")
	require.NoError(t, err)

	w := get(authTestEngine(expired), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
