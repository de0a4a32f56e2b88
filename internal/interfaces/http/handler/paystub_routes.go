package handler

import (
	"github.com/evmosdao/paystub/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// PaystubRoutes creates the route group for paystub sessions.
// exportMiddleware runs in front of the export endpoint only.
func PaystubRoutes(handler *PaystubHandler, exportMiddleware ...gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("paystub", "/sessions")

	group.POST("", handler.CreateSession)
	group.GET("/:id", handler.GetSession)
	group.DELETE("/:id", handler.CloseSession)

	// Editing
	group.PATCH("/:id/fields", handler.UpdateField)
	group.PUT("/:id/record", handler.ReplaceRecord)

	// Rendering and export
	group.GET("/:id/preview", handler.Preview)
	group.POST("/:id/export", append(exportMiddleware, handler.Export)...)
	group.GET("/:id/export", handler.Download)
	group.DELETE("/:id/export", handler.DiscardExport)

	return group
}

// LogoRoutes creates the route group for the header logo state
func LogoRoutes(handler *PaystubHandler) *router.DomainGroup {
	group := router.NewDomainGroup("logo", "/logo")
	group.GET("", handler.LogoStatus)
	return group
}

// SystemRoutes creates the route group for health and system info
func SystemRoutes(handler *SystemHandler) *router.DomainGroup {
	group := router.NewDomainGroup("system", "")
	group.GET("/health", handler.Health)
	group.GET("/system/info", handler.GetSystemInfo)
	return group
}
