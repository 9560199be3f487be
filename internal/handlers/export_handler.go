package handlers

import (
	"errors"
	"time"

	"padelcentar/internal/export"
	"padelcentar/internal/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// ExportHandler serves the registered-user list as CSV or HTML.
type ExportHandler struct {
	userService *services.UserService
	location    *time.Location
	now         func() time.Time
}

// NewExportHandler creates a new ExportHandler. location sets the zone of
// the HTML export timestamp; nil means UTC.
func NewExportHandler(userService *services.UserService, location *time.Location) *ExportHandler {
	if location == nil {
		location = time.UTC
	}
	return &ExportHandler{
		userService: userService,
		location:    location,
		now:         time.Now,
	}
}

// RegisterRoutes registers the export routes behind adminOnly.
func (h *ExportHandler) RegisterRoutes(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("/export", adminOnly, h.HandleCSV)
	router.Get("/export-html", adminOnly, h.HandleHTML)
}

// HandleCSV sends the user list as a CSV attachment.
func (h *ExportHandler) HandleCSV(c *fiber.Ctx) error {
	users, err := h.userService.List(c.UserContext())
	if err != nil {
		return respondError(c, err, "Error exporting data")
	}

	body, err := export.CSV(users)
	if err != nil {
		if errors.Is(err, export.ErrNoRecords) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No users found to export"})
		}
		return respondError(c, err, "Error exporting data")
	}

	log.WithField("users", len(users)).Info("csv export completed")
	c.Attachment(export.CSVFilename)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(body)
}

// HandleHTML sends the user list as a standalone HTML report.
func (h *ExportHandler) HandleHTML(c *fiber.Ctx) error {
	count, err := h.userService.Count(c.UserContext())
	if err != nil {
		return respondError(c, err, "Error exporting data")
	}
	if count == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Nema registriranih korisnika"})
	}

	users, err := h.userService.List(c.UserContext())
	if err != nil {
		return respondError(c, err, "Error exporting data")
	}

	body, err := export.HTML(users, h.now().In(h.location))
	if err != nil {
		if errors.Is(err, export.ErrNoRecords) {
			// Users were deleted between the count and the fetch.
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Nema registriranih korisnika"})
		}
		return respondError(c, err, "Error exporting data")
	}

	log.WithField("users", len(users)).Info("html export completed")
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(body)
}
