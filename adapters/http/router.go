package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/khoahotran/career-compass/pkg/auth"
	"github.com/khoahotran/career-compass/pkg/logger"
)

type RouterConfig struct {
	SuggestionHandler *SuggestionHandler
	// JWT enables bearer-token auth on every route except health when set.
	JWT          *auth.JWTService
	AllowOrigins []string
	ServiceName  string
	Logger       logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}
	router.Use(RequestLogger(cfg.Logger))
	if len(cfg.AllowOrigins) > 0 {
		router.Use(CORSMiddleware(cfg.AllowOrigins))
	}
	router.Use(ErrorMiddleware(cfg.Logger))

	api := router.Group("/api")
	{
		api.GET("/health", Health)

		private := api.Group("/")
		if cfg.JWT != nil {
			private.Use(AuthMiddleware(cfg.JWT, cfg.Logger))
		}
		{
			suggestions := private.Group("/suggestions")
			{
				suggestions.POST("", cfg.SuggestionHandler.Careers)
				suggestions.POST("/skills", cfg.SuggestionHandler.Skills)
				suggestions.POST("/roadmap", cfg.SuggestionHandler.Roadmap)
				if cfg.SuggestionHandler.AsyncEnabled() {
					suggestions.POST("/async", cfg.SuggestionHandler.Async)
				}
			}
			private.GET("/profiles/:external_id/suggestions", cfg.SuggestionHandler.LatestSuggestions)
		}
	}

	return router
}
