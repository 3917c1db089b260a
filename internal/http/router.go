package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/casepulse/casepulse-backend/internal/http/handlers"
	httpMW "github.com/casepulse/casepulse-backend/internal/http/middleware"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler     *httpH.HealthHandler
	UploadHandler     *httpH.UploadHandler
	FetchHandler      *httpH.FetchHandler
	CredentialHandler *httpH.CredentialHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("casepulse"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Uploads
		if cfg.UploadHandler != nil {
			protected.POST("/uploads", cfg.UploadHandler.CreateUpload)
			protected.GET("/uploads/:id", cfg.UploadHandler.GetUpload)
		}

		// Fetches
		if cfg.FetchHandler != nil {
			protected.POST("/fetches", cfg.FetchHandler.CreateFetch)
			protected.GET("/fetches/:id", cfg.FetchHandler.GetFetch)
		}

		// Court session credentials
		if cfg.CredentialHandler != nil {
			protected.PUT("/session-credentials", cfg.CredentialHandler.PutCredentials)
		}
	}

	return r
}
