package routes

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/tracking"
)

type trackingRequest struct {
	TrainNumber string
	Selection   ctdf.SelectionContext
	Target      *ctdf.TrackedTarget
	Condition   string
	Locale      string
}

// TrackingRouter expects the account_userid local to be set by the auth
// middleware in front of it.
func TrackingRouter(router fiber.Router, registry tracking.Registry, now func() time.Time) {
	router.Get("/", func(c *fiber.Ctx) error {
		return listTracking(c, registry)
	})
	router.Post("/", func(c *fiber.Ctx) error {
		return postTracking(c, registry, now)
	})
	router.Delete("/:id", func(c *fiber.Ctx) error {
		return deleteTracking(c, registry)
	})
}

func accountUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("account_userid").(string)
	return userID
}

func listTracking(c *fiber.Ctx, registry tracking.Registry) error {
	userID := accountUserID(c)
	if userID == "" {
		return sendError(c, fiber.StatusUnauthorized, "No userid set")
	}

	registrations, err := registry.ForUser(c.UserContext(), userID)
	if err != nil {
		return sendError(c, fiber.StatusInternalServerError, "Could not load tracking registrations")
	}
	if registrations == nil {
		registrations = []*tracking.Registration{}
	}

	registrationsReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: []string{"basic"},
	}, registrations)
	if err != nil {
		return sendError(c, fiber.StatusInternalServerError, "Sherrif could not reduce registrations")
	}

	return c.JSON(registrationsReduced)
}

func postTracking(c *fiber.Ctx, registry tracking.Registry, now func() time.Time) error {
	userID := accountUserID(c)
	if userID == "" {
		return sendError(c, fiber.StatusUnauthorized, "No userid set")
	}

	var requestBody trackingRequest
	if err := c.BodyParser(&requestBody); err != nil {
		return sendError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	registration := &tracking.Registration{
		UserID:      userID,
		TrainNumber: requestBody.TrainNumber,
		Selection:   requestBody.Selection,
		Target:      requestBody.Target,
		Condition:   requestBody.Condition,
		Locale:      requestBody.Locale,
	}
	if err := registration.Normalise(now()); err != nil {
		return sendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := registry.Put(c.UserContext(), registration); err != nil {
		return sendError(c, fiber.StatusInternalServerError, "Could not store tracking registration")
	}

	registrationReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: []string{"basic"},
	}, registration)
	if err != nil {
		return sendError(c, fiber.StatusInternalServerError, "Sherrif could not reduce registration")
	}

	c.Status(fiber.StatusCreated)
	return c.JSON(registrationReduced)
}

func deleteTracking(c *fiber.Ctx, registry tracking.Registry) error {
	userID := accountUserID(c)
	if userID == "" {
		return sendError(c, fiber.StatusUnauthorized, "No userid set")
	}

	id := c.Params("id")

	registration, err := registry.Get(c.UserContext(), id)
	if errors.Is(err, tracking.ErrRegistrationNotFound) || (err == nil && registration.UserID != userID) {
		return sendError(c, fiber.StatusNotFound, "Tracking registration not found")
	} else if err != nil {
		return sendError(c, fiber.StatusInternalServerError, "Could not load tracking registration")
	}

	if err := registry.Delete(c.UserContext(), id); err != nil {
		return sendError(c, fiber.StatusInternalServerError, "Could not delete tracking registration")
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}
