package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/treni/pkg/api/routes"
	"github.com/travigo/treni/pkg/engine"
	"github.com/travigo/treni/pkg/tracking"
)

type Server struct {
	Fetcher  routes.Fetcher
	Engine   *engine.Engine
	Registry tracking.Registry

	// Auth guards the per account routes
	Auth fiber.Handler
	Now  func() time.Time
}

func (s *Server) App() *fiber.App {
	if s.Now == nil {
		s.Now = time.Now
	}

	webApp := fiber.New()
	webApp.Use(NewLogger())

	group := webApp.Group("/core")

	group.Get("version", routes.APIVersion)

	routes.TrainsRouter(group.Group("/trains"), s.Fetcher, s.Engine, s.Now)
	routes.StatsRouter(group.Group("/stats"), s.Registry)

	routes.TrackingRouter(group.Group("/tracking", s.Auth), s.Registry, s.Now)
	routes.AccountRouter(group.Group("/account", s.Auth))

	return webApp
}

func (s *Server) Listen(listen string) error {
	return s.App().Listen(listen)
}
