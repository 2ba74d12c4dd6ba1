// handlers/errors.go - Mapping service errors to HTTP responses
package handlers

import (
	"context"
	"errors"
	"log"

	"biblereader/services"
	"biblereader/utils"
	"biblereader/verseparser"

	"github.com/gofiber/fiber/v2"
)

// writeError answers known service errors. Anything else goes to the app's
// error handler as a 500.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, verseparser.ErrInvalidReferenceFormat):
		return utils.JSONError(c, fiber.StatusBadRequest, "could not find that reference")
	case errors.Is(err, services.ErrInvalidShareRequest):
		return utils.JSONError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrShareLinkExpired):
		return utils.JSONError(c, fiber.StatusGone, "this share link has expired")
	case errors.Is(err, services.ErrNotFound):
		return utils.JSONError(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, services.ErrContentUnavailable):
		return utils.JSONError(c, fiber.StatusBadGateway, "verse content is unavailable, try again later")
	case errors.Is(err, context.DeadlineExceeded):
		return utils.JSONError(c, fiber.StatusGatewayTimeout, "verse content timed out")
	}
	log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
	return err
}
