package server

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/thereayou/convoy/internal/database"
	"github.com/thereayou/convoy/internal/events"
	"github.com/thereayou/convoy/internal/handlers"
	"github.com/thereayou/convoy/internal/services"
	"github.com/thereayou/convoy/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Notifier   services.Notifier
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	notifier := newNotifier()

	jwtMgr := auth.NewJWTManager(
		os.Getenv("JWT_SECRET"),
		24*time.Hour,
	)

	convSvc := services.NewConversationService(dbConn, dbConn, notifier)

	authH := handlers.NewAuthHandler(dbConn, jwtMgr, rdb)
	userH := handlers.NewUserHandler(dbConn)
	convH := handlers.NewConversationHandler(convSvc)
	msgH := handlers.NewMessageHandler(convSvc)

	router := gin.Default()
	APIEndpoints(router, jwtMgr, rdb, authH, userH, convH, msgH)

	return &Server{
		Router:     router,
		DB:         dbConn,
		Redis:      rdb,
		JWTManager: jwtMgr,
		Notifier:   notifier,
	}
}

// newNotifier возвращает kafka-издатель, если заданы брокеры, иначе лог
func newNotifier() services.Notifier {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		log.Println("KAFKA_BROKERS not set, notifications go to log")
		return events.LogNotifier{}
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "conversation-events"
	}

	return events.NewKafkaNotifier(strings.Split(brokers, ","), topic)
}

func (s *Server) Run() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := s.Router.Run(":" + port); err != nil {
		log.Fatalf("Server run error: %v", err)
	}
}
