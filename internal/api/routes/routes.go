package routes

import (
	"time"

	"bloodlink-api-server/config"
	"bloodlink-api-server/internal/api/handlers"
	"bloodlink-api-server/internal/api/middleware"
	"bloodlink-api-server/internal/cache"
	"bloodlink-api-server/internal/engine"
	"bloodlink-api-server/internal/models"
	"bloodlink-api-server/internal/s3"
	"bloodlink-api-server/internal/socket"
	"bloodlink-api-server/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter wires every handler under /api/v1.
func SetupRouter(
	cfg config.Config,
	eng *engine.Engine,
	stores *store.Stores,
	feed *cache.FeedCache,
	uploader *s3.Uploader,
	hub *socket.Hub,
	log *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))
	router.Use(cors.Default())

	secret := []byte(cfg.JWT.Secret)
	jwtTTL, err := time.ParseDuration(cfg.JWT.Expiration)
	if err != nil {
		jwtTTL = 24 * time.Hour
	}

	authHandler := &handlers.AuthHandler{Users: stores.Users, JWTSecret: secret, JWTTTL: jwtTTL}
	requestHandler := &handlers.RequestHandler{Engine: eng, Requests: stores.Requests, Feed: feed, Uploader: uploader}
	inventoryHandler := &handlers.InventoryHandler{Engine: eng}
	collectionHandler := &handlers.CollectionHandler{Engine: eng}
	donationHandler := &handlers.DonationHandler{Engine: eng, Users: stores.Users}
	notificationHandler := &handlers.NotificationHandler{Notifications: stores.Notifications}
	adminHandler := &handlers.AdminHandler{Users: stores.Users}
	webSocketHandler := &handlers.WebSocketHandler{Hub: hub, JWTSecret: secret, Log: log}

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		// === PUBLIC ROUTES ===

		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// The emergency feed is public so anyone can see who needs blood.
		apiV1.GET("/requests/active", requestHandler.ActiveFeed)

		// === PROTECTED ROUTES ===

		protected := apiV1.Group("/")
		protected.Use(middleware.Authenticate(secret))
		{
			protected.GET("/auth/me", authHandler.Me)
			protected.PUT("/auth/profile", authHandler.UpdateProfile)

			requests := protected.Group("/requests")
			{
				requests.POST("", requestHandler.Create)
				requests.GET("/my", requestHandler.Mine)
				requests.GET("/:id", requestHandler.Get)
				requests.POST("/:id/volunteer", requestHandler.Volunteer)
				requests.PUT("/:id/complete", requestHandler.Complete)
				requests.PUT("/:id/cancel", requestHandler.Cancel)
				requests.POST("/:id/attachment", requestHandler.UploadAttachment)

				adminRequests := requests.Group("/")
				adminRequests.Use(middleware.Authorize(models.RoleAdmin))
				{
					adminRequests.GET("/:id/match", requestHandler.Match)
					adminRequests.POST("/:id/fulfill", requestHandler.Fulfill)
					adminRequests.POST("/:id/assign-volunteer", requestHandler.AssignVolunteer)
				}
			}

			inventory := protected.Group("/inventory")
			inventory.Use(middleware.Authorize(models.RoleHospital, models.RoleBloodBank, models.RoleAdmin))
			{
				inventory.POST("", inventoryHandler.AddBatch)
				inventory.GET("", inventoryHandler.List)
				inventory.PUT("/:id/status", inventoryHandler.UpdateStatus)
				inventory.GET("/history", inventoryHandler.History)
			}

			collections := protected.Group("/collections")
			collections.Use(middleware.Authorize(models.RoleCollector, models.RoleAdmin))
			{
				collections.POST("", collectionHandler.Record)
				collections.GET("/my", collectionHandler.Mine)
				collections.GET("/search-donor", collectionHandler.SearchDonor)
			}

			donations := protected.Group("/donations")
			{
				donations.GET("/my-history", donationHandler.MyHistory)
			}

			users := protected.Group("/users")
			{
				users.GET("/hospitals", donationHandler.Hospitals)
				users.GET("/eligibility", donationHandler.MyEligibility)
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", notificationHandler.List)
				notifications.PUT("/read", notificationHandler.MarkAllRead)
				notifications.PUT("/:id/read", notificationHandler.MarkRead)
			}

			admin := protected.Group("/admin")
			admin.Use(middleware.Authorize(models.RoleAdmin))
			{
				admin.GET("/users", adminHandler.ListUsers)
				admin.POST("/users", adminHandler.CreateUser)
				admin.PUT("/users/:id", adminHandler.UpdateUser)
				admin.DELETE("/users/:id", adminHandler.DeleteUser)
			}
		}
	}

	return router
}

// requestLogger logs one line per request with zap fields.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
