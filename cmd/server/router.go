package server

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/thereayou/convoy/internal/handlers"
	"github.com/thereayou/convoy/internal/middleware"
	pkgauth "github.com/thereayou/convoy/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	jwtMgr *pkgauth.JWTManager,
	rdb *redis.Client,
	authH *handlers.AuthHandler,
	userH *handlers.UserHandler,
	convH *handlers.ConversationHandler,
	msgH *handlers.MessageHandler,
) {
	// Auth endpoints
	auth := r.Group("/auth")
	{
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.POST("/logout", middleware.AuthMiddleware(jwtMgr, rdb), authH.Logout)
	}

	// API endpoints
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtMgr, rdb))
	{
		api.GET("/users/me", userH.GetMe)
		api.GET("/users/:id", userH.GetUser)

		api.GET("/conversations", convH.List)
		api.POST("/conversations/private", convH.CreatePrivate)
		api.POST("/conversations/group", convH.CreateGroup)
		api.POST("/conversations/:id/join", convH.Join)
		api.POST("/conversations/:id/leave", convH.Leave)

		api.POST("/conversations/:id/messages", msgH.Send)
		api.GET("/conversations/:id/messages", msgH.GetHistory)
		api.POST("/conversations/:id/read", msgH.MarkRead)
	}
}
