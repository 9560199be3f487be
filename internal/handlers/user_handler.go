package handlers

import (
	"net/url"

	"padelcentar/internal/models"
	"padelcentar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// UserHandler handles HTTP requests for registered users.
type UserHandler struct {
	userService *services.UserService
	validate    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the user routes. adminOnly guards listing,
// updating and deleting users.
func (h *UserHandler) RegisterRoutes(router fiber.Router, adminOnly fiber.Handler) {
	userRoutes := router.Group("/users")
	userRoutes.Post("/", h.HandleRegister)
	userRoutes.Post("/login", h.HandleLogin)
	userRoutes.Get("/email/:email", h.HandleGetByEmail)
	userRoutes.Get("/", adminOnly, h.HandleList)
	userRoutes.Put("/:id", adminOnly, h.HandleUpdate)
	userRoutes.Delete("/:id", adminOnly, h.HandleDelete)
}

// RegisterRequest represents the request body for self-registration.
type RegisterRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	BirthDate       string `json:"birthDate" validate:"required"`
	Gender          string `json:"gender" validate:"required,oneof=male female other"`
	PadelExperience string `json:"padelExperience" validate:"required,oneof=beginner intermediate pro"`
}

// UpdateUserRequest represents a partial user update. Absent fields are kept.
type UpdateUserRequest struct {
	Name            *string `json:"name" validate:"omitempty,max=200"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Password        *string `json:"password" validate:"omitempty"`
	BirthDate       *string `json:"birthDate" validate:"omitempty"`
	Gender          *string `json:"gender" validate:"omitempty,oneof=male female other"`
	PadelExperience *string `json:"padelExperience" validate:"omitempty,oneof=beginner intermediate pro"`
}

// UserLoginRequest represents the request body for player login.
type UserLoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister handles new user registration.
func (h *UserHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c, err)
	}
	if err := validateRequest(h.validate, req); err != nil {
		return respondError(c, err, "Registration failed")
	}

	user, err := h.userService.Register(c.UserContext(), services.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		BirthDate:       req.BirthDate,
		Gender:          models.Gender(req.Gender),
		PadelExperience: models.PadelExperience(req.PadelExperience),
	})
	if err != nil {
		return respondError(c, err, "Registration failed")
	}

	log.WithFields(log.Fields{"user_id": user.ID, "email": user.Email}).Info("user registered")
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleList returns every user, newest first.
func (h *UserHandler) HandleList(c *fiber.Ctx) error {
	users, err := h.userService.List(c.UserContext())
	if err != nil {
		return respondError(c, err, "Greška prilikom dohvaćanja korisnika")
	}
	if users == nil {
		users = []models.User{}
	}
	return c.JSON(users)
}

// HandleUpdate applies a partial update to a user.
func (h *UserHandler) HandleUpdate(c *fiber.Ctx) error {
	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c, err)
	}
	if err := validateRequest(h.validate, req); err != nil {
		return respondError(c, err, "Could not update user")
	}

	in := services.UpdateInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		BirthDate: req.BirthDate,
	}
	if req.Gender != nil {
		g := models.Gender(*req.Gender)
		in.Gender = &g
	}
	if req.PadelExperience != nil {
		e := models.PadelExperience(*req.PadelExperience)
		in.PadelExperience = &e
	}

	user, err := h.userService.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err, "Could not update user")
	}
	return c.JSON(user)
}

// HandleDelete removes a user.
func (h *UserHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.userService.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete user")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleGetByEmail looks a user up by email address.
func (h *UserHandler) HandleGetByEmail(c *fiber.Ctx) error {
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid email"})
	}
	user, err := h.userService.GetByEmail(c.UserContext(), email)
	if err != nil {
		return respondError(c, err, "Server error")
	}
	return c.JSON(user)
}

// HandleLogin checks a player's email and password.
func (h *UserHandler) HandleLogin(c *fiber.Ctx) error {
	var req UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, services.ErrUnauthenticated, "Server error")
	}

	user, err := h.userService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err, "Server error")
	}
	return c.JSON(user)
}
