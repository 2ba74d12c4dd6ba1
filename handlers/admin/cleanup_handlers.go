package admin

import (
	"biblereader/services"

	"github.com/gofiber/fiber/v2"
)

// ManualCleanup runs a cleanup pass now
// POST /api/admin/cleanup/manual
func ManualCleanup(c *fiber.Ctx) error {
	svc := services.GetCleanupService()
	if svc == nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Service unavailable"})
	}
	return c.JSON(fiber.Map{"success": true, "stats": svc.RunOnce(c.UserContext())})
}

// GetCleanupStats returns the outcome of the last cleanup pass
// GET /api/admin/cleanup/stats
func GetCleanupStats(c *fiber.Ctx) error {
	svc := services.GetCleanupService()
	if svc == nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Service unavailable"})
	}
	return c.JSON(fiber.Map{"success": true, "stats": svc.Stats()})
}
