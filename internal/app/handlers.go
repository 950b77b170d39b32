package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/eigo-backend/internal/http"
	httpH "github.com/yungbote/eigo-backend/internal/http/handlers"
	httpMW "github.com/yungbote/eigo-backend/internal/http/middleware"
	"github.com/yungbote/eigo-backend/internal/observability"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

func wireRouterConfig(db *gorm.DB, log *logger.Logger, cfg Config, svc Services, metrics *observability.Metrics) http.RouterConfig {
	log.Info("Wiring handlers...")
	cookies := httpMW.NewSessionCookies(cfg.IsProduction(), "")
	return http.RouterConfig{
		Log:            log,
		ServiceName:    cfg.Otel.ServiceName,
		Tracing:        cfg.Otel.Enabled,
		Metrics:        metrics,
		CORSOrigins:    cfg.CORSOrigins,
		SessionSecret:  []byte(cfg.SessionSecret),
		SecureCookies:  cfg.IsProduction(),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, svc.Auth, cookies),
		AuthHandler:    httpH.NewAuthHandler(log, svc.Auth, cookies, cfg.FrontendURL),
		MeHandler:      httpH.NewMeHandler(log),
		LearnHandler:   httpH.NewLearnHandler(log, svc.Query, svc.Answers),
		AdminHandler:   httpH.NewAdminHandler(log, svc.Hierarchy, svc.Answers, svc.Importer),
		HealthHandler:  httpH.NewHealthHandler(db),
	}
}
