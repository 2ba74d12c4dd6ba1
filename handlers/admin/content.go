package admin

import (
	"biblereader/services"

	"github.com/gofiber/fiber/v2"
)

var (
	verseStore   *services.VerseStore
	verseLoader  *services.VerseLoader
	shareService *services.ShareService
	versesDir    string
)

// Deps are the services behind the admin API.
type Deps struct {
	Admins    *services.AdminService
	Store     *services.VerseStore
	Loader    *services.VerseLoader
	Shares    *services.ShareService
	JWTSecret string
	VersesDir string
}

// InitAdminHandlers sets the services the admin endpoints use.
func InitAdminHandlers(d Deps) {
	adminService = d.Admins
	verseStore = d.Store
	verseLoader = d.Loader
	shareService = d.Shares
	jwtSecret = d.JWTSecret
	versesDir = d.VersesDir
}

// GetStats reports cache, import and share link counts
// GET /api/admin/stats
func GetStats(c *fiber.Ctx) error {
	stats, err := verseStore.Stats(c.UserContext())
	if err != nil {
		return err
	}
	shares, err := shareService.Count(c.UserContext())
	if err != nil {
		return err
	}

	resp := fiber.Map{
		"success":     true,
		"store":       stats,
		"share_links": shares,
	}
	if svc := services.GetCleanupService(); svc != nil {
		resp["cleanup"] = svc.Stats()
	}
	return c.JSON(resp)
}

// ImportVerses loads every verse file in the verses directory
// POST /api/admin/import
func ImportVerses(c *fiber.Ctx) error {
	result, err := verseLoader.LoadDirectory(c.UserContext(), versesDir)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"result":  result,
		})
	}
	return c.JSON(fiber.Map{"success": true, "result": result})
}

// DropCache removes every remotely fetched chapter
// DELETE /api/admin/cache
func DropCache(c *fiber.Ctx) error {
	n, err := verseStore.DropCache(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "dropped_chapters": n})
}
