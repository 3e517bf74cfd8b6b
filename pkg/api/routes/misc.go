package routes

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/treni/pkg/ctdf"
)

// getSelectionQuery reads the identifiers pinning a specific run from the
// query string. All of them are optional.
func getSelectionQuery(c *fiber.Ctx) (ctdf.SelectionContext, error) {
	selection := ctdf.SelectionContext{
		TechnicalID: strings.TrimSpace(c.Query("technicalid")),
		OriginCode:  strings.ToUpper(strings.TrimSpace(c.Query("origin"))),
		Date:        strings.TrimSpace(c.Query("date")),
	}

	if timestamp := c.Query("timestamp"); timestamp != "" {
		value, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			return selection, errors.New("timestamp must be epoch milliseconds")
		}
		selection.ReferenceTimestampMs = &value
	}

	if choice := c.Query("choice"); choice != "" {
		value, err := strconv.Atoi(choice)
		if err != nil || value < 0 {
			return selection, errors.New("choice must be a positive index")
		}
		selection.Choice = &value
	}

	return selection, nil
}

func sendError(c *fiber.Ctx, status int, message string) error {
	c.SendStatus(status)
	return c.JSON(fiber.Map{
		"error": message,
	})
}
