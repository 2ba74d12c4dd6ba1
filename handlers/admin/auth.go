package admin

import (
	"errors"
	"log"

	"biblereader/middleware"
	"biblereader/services"
	"biblereader/utils"

	"github.com/gofiber/fiber/v2"
)

var (
	adminService *services.AdminService
	jwtSecret    string
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	ExpiresAt int64  `json:"expires_at"`
}

// Login authenticates an admin user
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return utils.JSONError(c, fiber.StatusBadRequest, "Username and password are required")
	}

	user, err := adminService.Authenticate(c.UserContext(), req.Username, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		log.Printf("🔒 Failed admin login for %q from %s", req.Username, c.IP())
		return utils.JSONError(c, fiber.StatusUnauthorized, "Invalid credentials")
	}
	if err != nil {
		return err
	}

	token, expiresAt, err := middleware.GenerateAdminToken(jwtSecret, user.ID, user.Username)
	if err != nil {
		return utils.JSONError(c, fiber.StatusInternalServerError, "Failed to generate token")
	}

	return c.JSON(LoginResponse{
		Token:     token,
		Username:  user.Username,
		ExpiresAt: expiresAt,
	})
}

// VerifyToken verifies an admin JWT token
func VerifyToken(c *fiber.Ctx) error {
	// Token is already validated by middleware
	return c.JSON(fiber.Map{
		"valid":    true,
		"user_id":  c.Locals("userId"),
		"username": c.Locals("username"),
		"is_admin": c.Locals("isAdmin"),
	})
}

// Logout handles admin logout (client-side token removal)
func Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}
