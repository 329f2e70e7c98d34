package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/capsulevault/timecapsule/internal/application"
	repo "github.com/capsulevault/timecapsule/internal/domain/repository"
	"github.com/capsulevault/timecapsule/internal/interface/middleware"
	"github.com/capsulevault/timecapsule/pkg/response"
	"github.com/capsulevault/timecapsule/pkg/validation"
)

type CapsuleHandler struct {
	Svc    *application.CapsuleService
	Logger *logrus.Logger
}

func NewCapsuleHandler(svc *application.CapsuleService, logger *logrus.Logger) *CapsuleHandler {
	return &CapsuleHandler{Svc: svc, Logger: logger}
}

type capsuleRequest struct {
	Text     string    `json:"text" binding:"required"`
	DateOpen time.Time `json:"date_open" binding:"required"`
}

func username(c *gin.Context) string {
	return c.GetString(middleware.CtxUsernameKey)
}

func capsuleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusNotFound, "capsule not found", nil)
		return 0, false
	}
	return id, true
}

// fail maps service errors to the API taxonomy. Foreign and absent ids are
// both 404; 403 is reserved for owned-but-locked reads.
func (h *CapsuleHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrLocked):
		response.Error[any](c, http.StatusForbidden, "capsule is not open yet", nil)
	case errors.Is(err, repo.ErrNotFound):
		response.Error[any](c, http.StatusNotFound, "capsule not found", nil)
	case errors.Is(err, application.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	default:
		h.Logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("capsule operation failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
	}
}

// Create POST /capsules
func (h *CapsuleHandler) Create(c *gin.Context) {
	var req capsuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	v, err := h.Svc.Create(c.Request.Context(), username(c), req.Text, req.DateOpen)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, v, "capsule created", nil)
}

// Get GET /capsules/:id
func (h *CapsuleHandler) Get(c *gin.Context) {
	id, ok := capsuleID(c)
	if !ok {
		return
	}
	v, err := h.Svc.Get(c.Request.Context(), username(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, v, "capsule", nil)
}

// List GET /capsules
func (h *CapsuleHandler) List(c *gin.Context) {
	views, err := h.Svc.List(c.Request.Context(), username(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, views, "capsules", map[string]any{"count": len(views)})
}

// Update PUT /capsules/:id
func (h *CapsuleHandler) Update(c *gin.Context) {
	id, ok := capsuleID(c)
	if !ok {
		return
	}
	var req capsuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	v, err := h.Svc.Update(c.Request.Context(), username(c), id, req.Text, req.DateOpen)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, v, "capsule updated", nil)
}

// Delete DELETE /capsules/:id
func (h *CapsuleHandler) Delete(c *gin.Context) {
	id, ok := capsuleID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), username(c), id); err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "capsule deleted", nil)
}

// Analytics GET /capsules/analytics
func (h *CapsuleHandler) Analytics(c *gin.Context) {
	sc, err := h.Svc.Analytics(c.Request.Context(), username(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"total_capsules":   sc.Total,
		"pending_capsules": sc.Pending,
		"opened_capsules":  sc.Opened,
	}, "analytics", nil)
}
