// handlers/share.go - Share Links
package handlers

import (
	"errors"
	"strings"

	"biblereader/models"
	"biblereader/services"
	"biblereader/utils"
	"biblereader/verseset"

	"github.com/gofiber/fiber/v2"
)

var shareService *services.ShareService

// InitShareHandlers sets the service the share endpoints use.
func InitShareHandlers(shares *services.ShareService) {
	shareService = shares
}

type CreateShareRequest struct {
	Book        string             `json:"book"`
	Chapter     int                `json:"chapter"`
	Translation string             `json:"translation"`
	Verses      verseset.Selection `json:"verses"`
}

func shareResponse(link *models.ShareLink) fiber.Map {
	p := shareService.Params(link)
	return fiber.Map{
		"id":         link.ID,
		"url":        shareService.LongURL(p),
		"short_url":  shareService.ShortURL(link.ID),
		"label":      services.ShareLabel(p),
		"params":     p,
		"hits":       link.Hits,
		"expires_at": link.ExpiresAt,
	}
}

// CreateShare stores a short link for a selection
// POST /api/share
func CreateShare(c *fiber.Ctx) error {
	var req CreateShareRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	tr := strings.ToUpper(strings.TrimSpace(req.Translation))
	book := req.Book
	if b, ok := readerService.Catalog().FindBook(req.Book, tr); ok {
		book = b.Name
	}

	link, err := shareService.Create(c.UserContext(), services.ShareParams{
		Book:        book,
		Chapter:     req.Chapter,
		Translation: tr,
		Verses:      req.Verses,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"share":   shareResponse(link),
	})
}

// GetShare returns the parameters of a short link
// GET /api/share/:id
func GetShare(c *fiber.Ctx) error {
	link, err := shareService.Resolve(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return utils.JSONSuccess(c, fiber.Map{"share": shareResponse(link)})
}

// FollowShare redirects a short link to the reader URL
// GET /s/:id
func FollowShare(c *fiber.Ctx) error {
	link, err := shareService.Resolve(c.UserContext(), c.Params("id"))
	if errors.Is(err, services.ErrShareLinkExpired) {
		return utils.JSONError(c, fiber.StatusGone, "this share link has expired")
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.Redirect(shareService.LongURL(shareService.Params(link)), fiber.StatusFound)
}
