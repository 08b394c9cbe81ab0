package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"mindwell/internal/bootstrap"
	"mindwell/internal/model"
	"mindwell/internal/transport/http/handler"
	"mindwell/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	authHandler := handler.NewAuthHandler(app.Auth)
	companionHandler := handler.NewCompanionHandler(app.Companion)
	crisisHandler := handler.NewCrisisHandler(app.Crisis)
	therapistHandler := handler.NewTherapistHandler(app.Therapists)
	resourceHandler := handler.NewResourceHandler(app.Resources)
	messageHandler := handler.NewMessageHandler(app.Messaging)
	authJWT := middleware.AuthJWT(app.Config.Auth.JWTSecret)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authJWT, authHandler.Me)

	companionGroup := v1.Group("/companion")
	companionGroup.Use(authJWT)
	companionGroup.POST("/session", companionHandler.OpenSession)
	companionGroup.GET("/session", companionHandler.GetSession)
	companionGroup.DELETE("/session", companionHandler.CloseSession)
	companionGroup.PUT("/consent", companionHandler.SetConsent)
	companionGroup.POST("/history/load", companionHandler.LoadHistory)
	companionGroup.POST("/messages",
		middleware.RateLimit(
			app.Redis,
			"companion_messages",
			app.Config.RateLimit.Requests,
			time.Duration(app.Config.RateLimit.WindowSeconds)*time.Second,
		),
		companionHandler.SendMessage,
	)
	companionGroup.DELETE("/error", companionHandler.ClearError)

	crisisGroup := v1.Group("/crisis")
	crisisGroup.Use(authJWT)
	crisisGroup.POST("/responses", crisisHandler.LogResponse)
	crisisGroup.GET("/alerts", middleware.RequireRole(model.RoleTherapist), crisisHandler.ListAlerts)

	therapistGroup := v1.Group("/therapists")
	therapistGroup.Use(authJWT)
	therapistGroup.GET("", therapistHandler.List)
	therapistGroup.GET("/status", therapistHandler.Status)
	therapistGroup.PUT("/me", middleware.RequireRole(model.RoleTherapist), therapistHandler.SaveProfile)
	therapistGroup.GET("/:id", therapistHandler.Get)

	resourceGroup := v1.Group("/resources")
	resourceGroup.GET("", resourceHandler.List)
	resourceGroup.GET("/featured", resourceHandler.Featured)
	resourceGroup.GET("/categories", resourceHandler.Categories)
	resourceGroup.GET("/:id", resourceHandler.Get)
	resourceGroup.POST("", authJWT, middleware.RequireRole(model.RoleTherapist), resourceHandler.Create)

	messageGroup := v1.Group("/messages")
	messageGroup.Use(authJWT)
	messageGroup.GET("/conversations", messageHandler.Conversations)
	messageGroup.GET("/:partnerId", messageHandler.Thread)
	messageGroup.POST("", messageHandler.Send)
	messageGroup.POST("/read", messageHandler.MarkRead)

	return router
}
