package app

import (
	"net/http"
	"time"

	"lp-rough-api/pkg/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// Router はHTTP APIのルーティングを組み立てます。
func (a *App) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(AccessLog(a.Logger))
	r.Use(a.Monitoring.LoggingMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "X-API-KEY", requestIDHeader)
	r.Use(cors.New(corsConfig))

	draftHandler := handlers.NewDraftHandler(a.Pipeline, a.Config.InvocationTimeout, a.Logger)
	analysisHandler := handlers.NewAnalysisHandler(a.Analysis, a.Layout)
	adminHandler := handlers.NewAdminHandler(a.Config)
	monitoringHandler := handlers.NewMonitoringHandler(a.Monitoring)

	r.GET("/health", handlers.HealthCheck)

	v1 := r.Group("/api/v1")
	v1.Use(APIKeyAuth(a.Config.APIKey))
	{
		v1.GET("/category", analysisHandler.GetCategory)

		generate := v1.Group("")
		generate.Use(handlers.MaintenanceGuard())
		{
			generate.POST("/drafts", draftHandler.CreateDraft)
			generate.POST("/analysis", analysisHandler.AnalyzeCompetitors)
			generate.POST("/layout", analysisHandler.SuggestLayout)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/health-status", adminHandler.GetHealthStatus)
			admin.POST("/maintenance/start", adminHandler.StartMaintenance)
			admin.POST("/maintenance/stop", adminHandler.StopMaintenance)
		}

		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/logs", monitoringHandler.GetLogs)
			monitoring.GET("/runs", monitoringHandler.GetRuns)
		}
	}
	return r
}

// APIKeyAuth はX-API-KEYヘッダーを検証します。キーが未設定の場合は検証しません。
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" || apiKey == "default_secret_key" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-KEY") != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RequestID はリクエストIDを付与します。クライアントが指定した値はそのまま使います。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// AccessLog はリクエストごとにzapでアクセスログを出力します。
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("🌐 リクエスト処理でエラー", fields...)
			return
		}
		logger.Info("🌐 リクエスト", fields...)
	}
}
