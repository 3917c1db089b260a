package app

import (
	"github.com/casepulse/casepulse-backend/internal/clients/redis"
	"github.com/casepulse/casepulse-backend/internal/data/repos"
	apphttp "github.com/casepulse/casepulse-backend/internal/http"
	httpH "github.com/casepulse/casepulse-backend/internal/http/handlers"
	httpMW "github.com/casepulse/casepulse-backend/internal/http/middleware"
	"github.com/casepulse/casepulse-backend/internal/ingest/pipeline"
	"github.com/casepulse/casepulse-backend/internal/platform/gcp"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

func wireHTTP(
	log *logger.Logger,
	cfg Config,
	bucket gcp.BucketService,
	reposet *repos.Repos,
	creds redis.CredentialCache,
	dispatcher *pipeline.Dispatcher,
) *apphttp.Server {
	log.Info("Wiring HTTP surface...")
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:            log,
		AuthMiddleware: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey),

		HealthHandler:     httpH.NewHealthHandler(),
		UploadHandler:     httpH.NewUploadHandler(log, bucket, reposet.Processing, dispatcher),
		FetchHandler:      httpH.NewFetchHandler(log, reposet.Fetch, dispatcher),
		CredentialHandler: httpH.NewCredentialHandler(log, creds),
	})
}
