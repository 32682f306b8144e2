// Package api wires the HTTP surface.
package api

import (
	"net/http"

	"neighborgrid/internal/api/handlers"
	"neighborgrid/internal/api/middleware"
	"neighborgrid/internal/config"
	"neighborgrid/internal/data"
	"neighborgrid/internal/logger"
	"neighborgrid/internal/simulate"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the router needs.
type Deps struct {
	Config   *config.Config
	Service  *simulate.Service
	Store    *data.RunStore
	Log      logger.Logger
	Gatherer prometheus.Gatherer
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(d Deps) *gin.Engine {
	if d.Config == nil {
		def := config.Default()
		d.Config = &def
	}
	if d.Log == nil {
		d.Log = logger.NopLogger{}
	}
	if d.Service == nil {
		d.Service = simulate.NewService(d.Log, nil)
	}
	if d.Store == nil {
		d.Store = data.NewRunStore(d.Config.API.RunTTL)
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(d.Log))
	router.Use(middleware.ErrorHandler(d.Log))

	simHandler := handlers.NewSimulationHandler(d.Config, d.Service, d.Store, d.Log)
	rankHandler := handlers.NewRankHandler(d.Store)
	homeHandler := handlers.NewHomeHandler(d.Config.Roster())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	{
		api.POST("/simulate/single", simHandler.RunSingle)
		api.POST("/simulate/community", simHandler.RunCommunity)

		api.GET("/runs/:id/records", simHandler.GetRecords)
		api.GET("/runs/:id/rank", rankHandler.RankHomes)

		api.GET("/homes", homeHandler.ListHomes)
		api.GET("/policies", handlers.ListPolicies)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
