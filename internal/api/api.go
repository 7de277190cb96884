// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/api/handlers"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/api/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const healthPath = "/health"

var defaultOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

type Services struct {
	ReorderService handlers.ReorderService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(healthPath))
	router.Use(middleware.Recovery())
	router.Use(cors.New(corsConfig(allowedOrigins)))

	router.GET(healthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	if services != nil && services.ReorderService != nil {
		registerInventoryRoutes(v1.Group("/inventory"), handlers.NewReorderHandler(services.ReorderService))
	}

	return router
}

func registerInventoryRoutes(g *gin.RouterGroup, h *handlers.ReorderHandler) {
	g.POST("/recompute", h.Recompute)
	g.GET("/analytics", h.GetAnalytics)
	g.GET("/recommendations", h.GetRecommendations)
	g.GET("/summary", h.GetSummary)
	g.GET("/runs/latest", h.GetLatestRun)
	g.GET("/export", h.Export)
}

// corsConfig allows the dashboard origins. "*" anywhere in the list opens
// every origin while still allowing credentials.
func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	origins, allowAll := normalizeAllowedOrigins(allowedOrigins)
	switch {
	case allowAll:
		cfg.AllowOrigins = nil
		cfg.AllowOriginFunc = func(string) bool { return true }
	case len(origins) > 0:
		cfg.AllowOrigins = origins
	}
	return cfg
}

// normalizeAllowedOrigins accepts comma separated entries as well as a list.
func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var parsed []string
	allowAll := false
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			switch trimmed := strings.TrimSpace(part); trimmed {
			case "":
			case "*":
				allowAll = true
			default:
				parsed = append(parsed, trimmed)
			}
		}
	}
	return parsed, allowAll
}
