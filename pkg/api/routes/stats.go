package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/treni/pkg/tracking"
)

func StatsRouter(router fiber.Router, registry tracking.Registry) {
	router.Get("/", func(c *fiber.Ctx) error {
		registrations, err := registry.All(c.UserContext())
		if err != nil {
			return sendError(c, fiber.StatusInternalServerError, "Could not load tracking registrations")
		}

		return c.JSON(fiber.Map{
			"registrations": len(registrations),
			"runs":          len(tracking.Subjects(registrations)),
		})
	})
}
