package http

import (
	"github.com/gin-gonic/gin"
	"github.com/greentech/marketplace/internal/config"
	"github.com/greentech/marketplace/internal/http/controller"
	"github.com/greentech/marketplace/internal/http/middleware"
)

func InitRouter(
	conf *config.Config,
	server *gin.Engine,
	materialCtr *controller.MaterialController,
	searchCtr *controller.SearchController,
	collectorCtr *controller.CollectorController,
) *gin.Engine {
	// Apply recovery middleware globally to prevent panics from crashing the server
	server.Use(middleware.Recovery())

	requireAuth := middleware.RequireAuth(conf.JWTSecret)
	optionalAuth := middleware.OptionalAuth(conf.JWTSecret)

	server.GET("/ping", controller.Ping)

	// Material endpoints
	materials := server.Group("/materials")
	{
		materials.GET("", requireAuth, materialCtr.ListMaterials)
		materials.GET("/stats", optionalAuth, materialCtr.MaterialStats)
		materials.GET("/search", optionalAuth, searchCtr.SearchMaterials)
		materials.GET("/nearby", optionalAuth, searchCtr.NearbyMaterials)
		materials.GET("/:id", optionalAuth, materialCtr.GetMaterial)

		materials.POST("", requireAuth, materialCtr.CreateMaterial)
		materials.PUT("/:id", requireAuth, materialCtr.UpdateMaterial)
		materials.DELETE("/:id", requireAuth, materialCtr.DeleteMaterial)

		materials.POST("/:id/reserve", requireAuth, middleware.RequireCollector(), materialCtr.ReserveMaterial)
		materials.POST("/:id/collect", requireAuth, middleware.RequireCollector(), materialCtr.CollectMaterial)
	}

	// Collector endpoints
	collectors := server.Group("/collectors")
	{
		collectors.GET("", collectorCtr.ListCollectors)
		collectors.PUT("/:id/location", requireAuth, middleware.RequireCollector(), collectorCtr.UpdateLocation)
	}

	return server
}
