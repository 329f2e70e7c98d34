package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/capsulevault/timecapsule/internal/container"
	handlers "github.com/capsulevault/timecapsule/internal/interface/http"
	"github.com/capsulevault/timecapsule/internal/interface/middleware"
	"github.com/capsulevault/timecapsule/pkg/helpers"
)

// CapsuleModule registers the authenticated capsule endpoints.
// Everything under /capsules requires a bearer token.
type CapsuleModule struct {
	Handler *handlers.CapsuleHandler
	JWT     *helpers.JWTManager
}

func NewCapsuleModule(h *handlers.CapsuleHandler, jwt *helpers.JWTManager) *CapsuleModule {
	return &CapsuleModule{Handler: h, JWT: jwt}
}

func (m *CapsuleModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/capsules")
	auth.Use(middleware.BearerAuth(m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUsername(), middleware.AllowPrivateIP()))
	{
		auth.POST("", m.Handler.Create)
		auth.GET("", m.Handler.List)
		auth.GET("/analytics", m.Handler.Analytics)
		auth.GET("/:id", m.Handler.Get)
		auth.PUT("/:id", m.Handler.Update)
		auth.DELETE("/:id", m.Handler.Delete)
	}
}
