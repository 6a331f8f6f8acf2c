// Package handler exposes estimate conversations over HTTP.
package handler

import (
	"errors"
	"io"
	"net/http"

	"estimate_portal_backend/internal/estimate/service"
	"estimate_portal_backend/internal/estimate/transport"
	"estimate_portal_backend/platform/httpkit"
	"estimate_portal_backend/platform/logger"
	"estimate_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
	log *logger.Logger
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(svc *service.Service, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, val: val, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/catalog", h.Catalog)
	rg.POST("/sessions", h.CreateSession)
	rg.GET("/sessions/:id", h.GetSession)
	rg.POST("/sessions/:id/events", h.HandleEvent)
	rg.POST("/sessions/:id/restart", h.RestartSession)
	rg.DELETE("/sessions/:id", h.DiscardSession)
}

func (h *Handler) Catalog(c *gin.Context) {
	httpkit.OK(c, h.svc.Catalog(c.Query("q")))
}

func (h *Handler) BusinessContact(c *gin.Context) {
	httpkit.OK(c, transport.BusinessContactResponse(h.svc.Contacts()))
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req transport.CreateSessionRequest
	// an empty body opens a chat session
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), req.Mode)
	if httpkit.HandleError(c, err, h.log) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) GetSession(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err, h.log) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) HandleEvent(c *gin.Context) {
	var req transport.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.Apply(c.Request.Context(), c.Param("id"), req.Event())
	if httpkit.HandleError(c, err, h.log) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) RestartSession(c *gin.Context) {
	resp, err := h.svc.Restart(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err, h.log) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) DiscardSession(c *gin.Context) {
	resp, err := h.svc.Discard(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err, h.log) {
		return
	}
	httpkit.OK(c, resp)
}
