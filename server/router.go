package server

import (
	"net/http"
	"time"

	"brand-publisher/infrastructure/metrics"
	"brand-publisher/infrastructure/realtime"
	httpHandler "brand-publisher/interfaces/http"
	"brand-publisher/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterOptions struct {
	SecretKey   string
	CORSOrigins []string
	StateMaxAge time.Duration
}

func InitiateRouter(
	opts RouterOptions,
	oauthHandler httpHandler.IOAuthHandler,
	publishingHandler httpHandler.IPublishingHandler,
	connectionHandler httpHandler.IConnectionHandler,
	healthHandler httpHandler.IHealthHandler,
	jobHub *realtime.JobHub,
	m *metrics.Metrics,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if m != nil {
		router.Use(middleware.Instrument(m))
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     opts.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler.Healthz)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}
	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "route not found", "errorCode": "NOT_FOUND"})
	})

	// Callbacks arrive from the provider's redirect and carry no bearer token.
	router.GET("/oauth/callback/:platform", middleware.OAuthState(opts.StateMaxAge), oauthHandler.Callback)

	api := router.Group("api")
	api.Use(middleware.Auth(opts.SecretKey))

	api.POST("/oauth/initiate", oauthHandler.Initiate)

	publishing := api.Group("/publishing")
	{
		if jobHub != nil {
			publishing.GET("/stream", jobHub.Serve)
		}
		publishing.POST("/:id/publish", publishingHandler.Publish)
		publishing.GET("/:id/jobs", publishingHandler.ListJobs)
		publishing.POST("/:id/retry", publishingHandler.RetryJob)
		publishing.POST("/:id/cancel", publishingHandler.CancelJob)
	}

	connections := api.Group("/connections/:brandId/:platform")
	{
		connections.POST("/refresh", connectionHandler.Refresh)
		connections.GET("/verify", connectionHandler.Verify)
		connections.DELETE("", connectionHandler.Disconnect)
	}

	return router
}
