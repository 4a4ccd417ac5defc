package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/domain/auth"
	"github.com/vicinityapp/vicinity-api/internal/app/domain/businesses"
	"github.com/vicinityapp/vicinity-api/internal/app/domain/friends"
	"github.com/vicinityapp/vicinity-api/internal/app/domain/heatmap"
	"github.com/vicinityapp/vicinity-api/internal/app/domain/location"
	"github.com/vicinityapp/vicinity-api/internal/app/domain/nearby"
	"github.com/vicinityapp/vicinity-api/internal/app/domain/recommendations"
	"github.com/vicinityapp/vicinity-api/internal/app/domain/surveys"
	"github.com/vicinityapp/vicinity-api/internal/pkg/config"
)

// AppHandlers groups the HTTP handlers of every domain.
type AppHandlers struct {
	Auth            *auth.Handler
	Location        *location.Handler
	Businesses      *businesses.Handler
	Nearby          *nearby.Handler
	Heatmap         *heatmap.Handler
	Friends         *friends.Handler
	Surveys         *surveys.Handler
	Recommendations *recommendations.Handler
}

// Setup wires repositories, services and handlers and registers every route.
func Setup(r *gin.Engine, cfg *config.Config, dbPool *pgxpool.Pool, log *zap.Logger) {
	handlers := setupDependencies(cfg, dbPool, log)
	setupRouter(r, cfg, handlers, log)
}

func setupDependencies(cfg *config.Config, dbPool *pgxpool.Pool, log *zap.Logger) *AppHandlers {
	// Repositories
	authRepo := auth.NewPostgresAuthRepo(dbPool, log)
	locationRepo := location.NewRepository(dbPool, log)
	geoPointRepo := location.NewPostgisGeoPointRepo(dbPool, log)
	businessRepo := businesses.NewRepository(dbPool, log)
	friendsRepo := friends.NewPostgresFriendsRepo(dbPool, log)
	surveyRepo := surveys.NewPostgresSurveyRepo(dbPool, log)

	// Services
	authService := auth.NewService(authRepo, cfg, log)
	locationService := location.NewService(locationRepo, geoPointRepo, log)
	nearbyService := nearby.NewService(locationRepo, businessRepo, log)
	heatmapService := heatmap.NewService(locationRepo, log)
	friendsService := friends.NewService(friendsRepo, locationRepo, log)
	surveyService := surveys.NewService(surveyRepo, log)
	recommendationService := recommendations.NewService(surveyService, businessRepo, locationRepo, log)

	return &AppHandlers{
		Auth:            auth.NewHandler(authService, log),
		Location:        location.NewHandler(locationService, log),
		Businesses:      businesses.NewHandler(businessRepo, log),
		Nearby:          nearby.NewHandler(nearbyService, log),
		Heatmap:         heatmap.NewHandler(heatmapService, log),
		Friends:         friends.NewHandler(friendsService, log),
		Surveys:         surveys.NewHandler(surveyService, log),
		Recommendations: recommendations.NewHandler(recommendationService, log),
	}
}

func setupRouter(r *gin.Engine, cfg *config.Config, h *AppHandlers, log *zap.Logger) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
	}

	api := r.Group("/api")
	api.Use(auth.JWTAuthMiddleware(cfg.JWT, log))
	{
		api.POST("/user/location", h.Location.UpdateLocation)
		api.GET("/user/location", h.Location.GetCurrentLocation)
		api.GET("/user/location/history", h.Location.GetLocationHistory)
		api.GET("/user/location/sync", h.Location.CheckSync)
		api.GET("/user/heatmap", h.Heatmap.Build)

		api.GET("/businesses", h.Businesses.List)
		api.GET("/businesses/nearby", h.Nearby.FindNearby)
		api.POST("/businesses/:id/like", h.Businesses.Like)
		api.DELETE("/businesses/:id/like", h.Businesses.Unlike)

		api.GET("/friends", h.Friends.List)
		api.GET("/friends/requests", h.Friends.ListPending)
		api.POST("/friends/requests", h.Friends.SendRequest)
		api.POST("/friends/requests/:id", h.Friends.RespondRequest)
		api.GET("/friends/:id/location", h.Friends.GetLocation)

		api.GET("/recommendations", h.Recommendations.Recommend)

		api.GET("/survey/questions", h.Surveys.GetQuestions)
		api.POST("/survey/responses", h.Surveys.SubmitResponse)
	}

	ws := r.Group("/ws")
	ws.Use(auth.JWTAuthMiddleware(cfg.JWT, log))
	{
		ws.GET("/nearby", h.Nearby.LiveFeed)
	}
}
