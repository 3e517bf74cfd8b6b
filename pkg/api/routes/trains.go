package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/rs/zerolog/log"
	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/engine"
	"github.com/travigo/treni/pkg/schema"
)

type Fetcher interface {
	Fetch(ctx context.Context, number string, selection ctdf.SelectionContext) ([]byte, ctdf.SelectionContext, error)
}

func TrainsRouter(router fiber.Router, fetcher Fetcher, trainEngine *engine.Engine, now func() time.Time) {
	router.Get("/:number", func(c *fiber.Ctx) error {
		return getTrain(c, fetcher, trainEngine, now)
	})
}

func getTrain(c *fiber.Ctx, fetcher Fetcher, trainEngine *engine.Engine, now func() time.Time) error {
	number := strings.TrimSpace(c.Params("number"))

	selection, err := getSelectionQuery(c)
	if err != nil {
		return sendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload, selection, err := fetcher.Fetch(c.UserContext(), number, selection)
	if err != nil {
		if ctdf.IsCancelled(err) {
			return c.SendStatus(fiber.StatusRequestTimeout)
		}

		log.Error().Err(err).Str("number", number).Msg("Failed to fetch train status")
		return sendError(c, fiber.StatusBadGateway, "Could not reach the train status service")
	}

	outcome := trainEngine.Process(payload, selection, now().UnixMilli())

	status := http.StatusOK
	switch outcome.Kind {
	case schema.KindEmpty:
		status = fiber.StatusNotFound
	case schema.KindError:
		status = fiber.StatusBadGateway
		if outcome.Message == "" && outcome.Err != nil {
			outcome.Message = outcome.Err.Error()
		}
	}

	groups := []string{"basic"}
	if c.QueryBool("detailed") {
		groups = append(groups, "detailed")
	}

	outcomeReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: groups,
	}, outcome)
	if err != nil {
		return sendError(c, fiber.StatusInternalServerError, "Sherrif could not reduce outcome")
	}

	c.Status(status)
	return c.JSON(outcomeReduced)
}
