// Package api exposes proximity search sessions as a JSON HTTP API.
package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter creates and configures the Gin router. An empty allowedOrigins
// allows every origin.
func SetupRouter(h *Handler, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", h.HealthCheck)

	v1 := router.Group("/v1")
	v1.GET("/suggestions", h.Suggestions)

	sessions := v1.Group("/sessions")
	sessions.POST("", h.CreateSession)
	sessions.GET("/:id", h.GetSession)
	sessions.DELETE("/:id", h.DeleteSession)
	sessions.PUT("/:id/query", h.SetQuery)
	sessions.POST("/:id/location", h.SubmitLocation)
	sessions.POST("/:id/relocate", h.Relocate)
	sessions.POST("/:id/refresh", h.Refresh)
	sessions.POST("/:id/notice/dismiss", h.DismissNotice)
	sessions.GET("/:id/centres/:centreId", h.SelectCentre)

	locations := sessions.Group("/:id/locations")
	locations.GET("", h.ListLocations)
	locations.POST("/:name/select", h.SelectLocation)
	locations.DELETE("/:name", h.DeleteLocation)

	return router
}
