package handlers

import (
	"errors"

	"padelcentar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// AdminHandler handles HTTP requests for admin authentication.
type AdminHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(authService *services.AuthService) *AdminHandler {
	return &AdminHandler{
		authService: authService,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the admin routes. loginGuards run before the
// login handler, e.g. a rate limiter.
func (h *AdminHandler) RegisterRoutes(router fiber.Router, loginGuards ...fiber.Handler) {
	adminRoutes := router.Group("/admin")
	handlers := append(loginGuards, h.HandleLogin)
	adminRoutes.Post("/login", handlers...)
}

// AdminLoginRequest represents the request body for admin login.
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// loginDenied is the single message for every rejected admin login, so the
// response never tells which of username or password was wrong.
const loginDenied = "Pogrešni podaci za prijavu"

// HandleLogin checks admin credentials and issues a session token.
func (h *AdminHandler) HandleLogin(c *fiber.Ctx) error {
	var req AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": loginDenied})
	}

	log.WithField("username", req.Username).Info("admin login attempt")

	token, err := h.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUnauthenticated) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": loginDenied})
		}
		return respondError(c, err, "Greška prilikom prijave")
	}

	log.WithField("username", req.Username).Info("admin login successful")
	return c.JSON(fiber.Map{"token": token})
}
