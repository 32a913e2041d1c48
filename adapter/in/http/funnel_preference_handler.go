package http

import (
	"funnel_server/core/port/in"

	"github.com/gofiber/fiber/v2"
)

// PreferenceHandler serves the preference document and the feedback actions.
type PreferenceHandler struct {
	service in.PreferenceService
}

func NewPreferenceHandler(service in.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{service: service}
}

// Register registers preference routes.
func (h *PreferenceHandler) Register(router fiber.Router) {
	prefs := router.Group("/preferences")
	prefs.Get("/", h.GetPreferences)
	prefs.Post("/actions", h.ApplyAction)
}

// GetPreferences returns the document with summary counts.
func (h *PreferenceHandler) GetPreferences(c *fiber.Ctx) error {
	resp, err := h.service.GetPreferences(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ApplyAction applies one feedback action.
func (h *PreferenceHandler) ApplyAction(c *fiber.Ctx) error {
	var req in.ActionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.service.ApplyAction(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
