// Package api exposes users, daily records and daily summaries over HTTP.
package api

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"nutricoach"
)

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handler, cfg nutricoach.AppConfig) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	}

	if cfg.StaticDir != "" {
		r.Static("/static", cfg.StaticDir)
		r.GET("/", func(c *gin.Context) {
			c.File(filepath.Join(cfg.StaticDir, "index.html"))
		})
	}

	r.GET("/healthz", h.Health)
	r.NoRoute(notFound)

	SetupRoutes(r, h)
	return r
}

// SetupRoutes registers the API routes on router.
func SetupRoutes(router gin.IRouter, h *Handler) {
	users := router.Group("/users")
	{
		users.POST("/", h.CreateUser)
		users.GET("/", h.ListUsers)
		users.GET("/:user_id/", h.GetUser)
		users.PUT("/:user_id/", h.UpdateUser)

		records := users.Group("/:user_id/daily_records")
		{
			records.POST("/", h.UpsertRecord)
			records.GET("/", h.ListRecords)
			records.GET("/dates/", h.ListRecordDates)
			records.GET("/:record_date/", h.GetRecord)
		}

		users.GET("/:user_id/daily_summary/:record_date/", h.GetSummary)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			// Credentials cannot be combined with a wildcard origin.
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
}
