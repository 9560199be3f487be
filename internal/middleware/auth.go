package middleware

import (
	"strings"

	"padelcentar/internal/models"
	"padelcentar/internal/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// AdminLocalsKey is the fiber Locals key holding the authorized *models.Admin.
const AdminLocalsKey = "admin"

// AdminRequired lets a request through only when authService.Authorize
// accepts its Authorization header. The body of a denial never says why
// beyond a missing token.
func AdminRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		admin, err := authService.Authorize(c.UserContext(), header)
		if err != nil {
			log.WithError(err).WithField("path", c.Path()).Info("admin authorization denied")
			message := "Invalid token"
			if len(strings.Fields(header)) < 2 {
				message = "No token provided"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": message,
			})
		}

		c.Locals(AdminLocalsKey, admin)
		return c.Next()
	}
}

// CurrentAdmin returns the admin stored by AdminRequired, or nil.
func CurrentAdmin(c *fiber.Ctx) *models.Admin {
	admin, _ := c.Locals(AdminLocalsKey).(*models.Admin)
	return admin
}
