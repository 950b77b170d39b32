package http

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/eigo-backend/internal/http/handlers"
	httpMW "github.com/yungbote/eigo-backend/internal/http/middleware"
	"github.com/yungbote/eigo-backend/internal/observability"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	Tracing        bool
	Metrics        *observability.Metrics
	CORSOrigins    []string
	SessionSecret  []byte
	SecureCookies  bool
	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler   *httpH.AuthHandler
	MeHandler     *httpH.MeHandler
	LearnHandler  *httpH.LearnHandler
	AdminHandler  *httpH.AdminHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	if cfg.AuthHandler != nil {
		store := cookie.NewStore(cfg.SessionSecret)
		store.Options(sessions.Options{
			Path:     "/auth",
			MaxAge:   600,
			HttpOnly: true,
			Secure:   cfg.SecureCookies,
		})
		auth := r.Group("/auth", sessions.Sessions(httpH.OAuthSessionName, store))
		auth.GET("/google/login", cfg.AuthHandler.GoogleLogin)
		auth.GET("/google/callback", cfg.AuthHandler.GoogleCallback)
		auth.POST("/logout", cfg.AuthHandler.Logout)
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}

	if cfg.MeHandler != nil {
		api.GET("/me", cfg.MeHandler.GetMe)
	}

	if cfg.LearnHandler != nil {
		learn := api.Group("/learn")
		learn.GET("/materials", cfg.LearnHandler.ListMaterials)
		learn.GET("/materials/:id/hierarchy", cfg.LearnHandler.GetHierarchy)
		learn.GET("/units/:id", cfg.LearnHandler.GetUnit)
		learn.POST("/questions/:id/answers", cfg.LearnHandler.SubmitAnswer)
		learn.GET("/units/:id/answers", cfg.LearnHandler.ListUnitAnswers)
	}

	if cfg.AdminHandler != nil {
		admin := api.Group("/admin")
		if cfg.AuthMiddleware != nil {
			admin.Use(cfg.AuthMiddleware.RequireAdmin())
		}
		if cfg.LearnHandler != nil {
			admin.GET("/materials", cfg.LearnHandler.ListMaterials)
			admin.GET("/materials/:id/hierarchy", cfg.LearnHandler.GetHierarchy)
			admin.GET("/units/:id", cfg.LearnHandler.GetUnit)
		}

		admin.POST("/materials", cfg.AdminHandler.CreateMaterial)
		admin.PATCH("/materials/:id", cfg.AdminHandler.UpdateMaterial)
		admin.DELETE("/materials/:id", cfg.AdminHandler.DeleteMaterial)

		admin.POST("/materials/:id/chapters", cfg.AdminHandler.CreateChapter)
		admin.PATCH("/chapters/:id", cfg.AdminHandler.UpdateChapter)
		admin.DELETE("/chapters/:id", cfg.AdminHandler.DeleteChapter)
		admin.POST("/chapters/:id/move", cfg.AdminHandler.MoveChapter)

		admin.POST("/chapters/:id/units", cfg.AdminHandler.CreateUnit)
		admin.PATCH("/units/:id", cfg.AdminHandler.UpdateUnit)
		admin.DELETE("/units/:id", cfg.AdminHandler.DeleteUnit)
		admin.POST("/units/:id/import", cfg.AdminHandler.ImportQuestions)

		admin.POST("/units/:id/questions", cfg.AdminHandler.CreateQuestion)
		admin.PATCH("/questions/:id", cfg.AdminHandler.UpdateQuestion)
		admin.DELETE("/questions/:id", cfg.AdminHandler.DeleteQuestion)

		admin.POST("/questions/:id/correct-answers", cfg.AdminHandler.CreateCorrectAnswer)
		admin.PATCH("/correct-answers/:id", cfg.AdminHandler.UpdateCorrectAnswer)
		admin.DELETE("/correct-answers/:id", cfg.AdminHandler.DeleteCorrectAnswer)

		admin.POST("/reorder", cfg.AdminHandler.Reorder)
		admin.PATCH("/answers/:id", cfg.AdminHandler.MarkAnswer)
	}

	return r
}
