// Package http holds the HTTP composition types shared by the router and
// the domain modules.
package http

import (
	"estimate_portal_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context that mounts its own routes.
type Module interface {
	// Name is used in startup logs.
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is handed to each module during route registration.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is the public /api/v1 group; the IP rate limiter is already applied.
	V1     *gin.RouterGroup
	Logger *logger.Logger
}
