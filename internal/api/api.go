package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/rxflow/internal/api/handlers"
	"github.com/andresuchdata/rxflow/internal/api/middleware"
	"github.com/andresuchdata/rxflow/internal/drive"
	"github.com/andresuchdata/rxflow/internal/metrics"
	"github.com/andresuchdata/rxflow/internal/service"
)

type Services struct {
	Ingest      *service.IngestService
	Reports     *service.ReportService
	Metrics     *metrics.Metrics
	Drive       *drive.Downloader
	MaxUploadMB int
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if services != nil && services.Metrics != nil {
		router.GET("/metrics", gin.WrapH(services.Metrics.Handler()))
	}

	apiGroup := router.Group("/api")
	if services == nil {
		return router
	}

	if services.Ingest != nil {
		uploadHandler := handlers.NewUploadHandler(services.Ingest, services.MaxUploadMB)
		apiGroup.POST("/upload/:family", uploadHandler.Upload)
		apiGroup.DELETE("/data", uploadHandler.ClearData)

		sourceHandler := handlers.NewSourceHandler(services.Ingest, services.Drive)
		archiveGroup := apiGroup.Group("/archive")
		{
			archiveGroup.GET("", sourceHandler.ListArchive)
			archiveGroup.POST("/replay", sourceHandler.ReplayArchive)
		}
		driveGroup := apiGroup.Group("/drive")
		{
			driveGroup.GET("/files", sourceHandler.ListDriveFiles)
			driveGroup.POST("/import", sourceHandler.ImportDrive)
		}
	}

	if services.Reports != nil {
		h := handlers.NewReportHandler(services.Reports)

		production := apiGroup.Group("/production")
		{
			production.GET("/daily", h.ProductionDaily)
			production.GET("/hourly", h.ProductionHourly)
			production.GET("/summary", h.ProductionSummary)
		}

		turnaround := apiGroup.Group("/turnaround")
		{
			turnaround.GET("/daily", h.TurnaroundDaily)
			turnaround.GET("/breakdown", h.TurnaroundBreakdown)
			turnaround.GET("/summary", h.TurnaroundSummary)
		}

		bypass := apiGroup.Group("/bypass")
		{
			bypass.GET("/locations", h.BypassLocations)
			bypass.GET("/hourly", h.BypassHourly)
			bypass.GET("/summary", h.BypassSummary)
		}

		usage := apiGroup.Group("/usage")
		{
			usage.GET("/daily", h.UsageDaily)
			usage.GET("/breakdown", h.UsageBreakdown)
			usage.GET("/summary", h.UsageSummary)
		}

		productUsage := apiGroup.Group("/product-usage")
		{
			productUsage.GET("/summary", h.ProductUsageSummary)
			productUsage.GET("/products", h.ProductUsageProducts)
			productUsage.GET("/locations", h.ProductUsageLocations)
		}

		productWastage := apiGroup.Group("/product-wastage")
		{
			productWastage.GET("/products", h.WastageProducts)
			productWastage.GET("/types", h.WastageTypes)
			productWastage.GET("/summary", h.WastageSummary)
		}

		detailed := apiGroup.Group("/detailed-wastage")
		{
			detailed.GET("/daily", h.DetailedWastageDaily)
			detailed.GET("/breakdown", h.DetailedWastageBreakdown)
			detailed.GET("/summary", h.DetailedWastageSummary)
		}

		apiGroup.GET("/stock-doses", h.StockDoses)
		apiGroup.GET("/stock-doses/summary", h.StockDosesSummary)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
