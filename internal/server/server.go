package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/bajrang214/looptalk-client/internal/auth"
	"github.com/bajrang214/looptalk-client/internal/config"
	"github.com/bajrang214/looptalk-client/internal/db"
	"github.com/bajrang214/looptalk-client/internal/social"
	"github.com/bajrang214/looptalk-client/internal/storage"
)

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      db.Querier
	Redis   *redis.Client
	Storage *storage.Service
}

func NewServer(cfg config.Config, q db.Querier, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:     app,
		Cfg:     cfg,
		DB:      q,
		Redis:   redisClient,
		Storage: storage.NewService(cfg.UploadDir),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	api := s.App.Group("/api")
	auth.RegisterRoutes(api, auth.NewService(s.Cfg.JWTSecret, s.DB))
	social.RegisterRoutes(api, social.NewService(s.DB, s.Redis), s.Storage, jwtMiddleware)
	storage.RegisterRoutes(s.App, s.Storage)
}
