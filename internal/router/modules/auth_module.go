package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/capsulevault/timecapsule/internal/container"
	handlers "github.com/capsulevault/timecapsule/internal/interface/http"
	"github.com/capsulevault/timecapsule/internal/interface/middleware"
)

// AuthModule registers the public account endpoints.
// POST /register, POST /login — both rate-limited per IP.
type AuthModule struct {
	Handler *handlers.AuthHandler
}

func NewAuthModule(h *handlers.AuthHandler) *AuthModule {
	return &AuthModule{Handler: h}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/register", registerLimiter, m.Handler.Register)
	rg.POST("/login", loginLimiter, m.Handler.Login)
}
