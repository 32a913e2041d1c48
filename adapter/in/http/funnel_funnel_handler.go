package http

import (
	"funnel_server/core/port/in"

	"github.com/gofiber/fiber/v2"
)

// FunnelHandler lists funnel stages and enrolls senders.
type FunnelHandler struct {
	service in.FunnelService
}

func NewFunnelHandler(service in.FunnelService) *FunnelHandler {
	return &FunnelHandler{service: service}
}

func (h *FunnelHandler) Register(router fiber.Router) {
	funnel := router.Group("/funnel")
	funnel.Get("/stages", h.Stages)
	funnel.Post("/", h.AddToFunnel)
}

func (h *FunnelHandler) Stages(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"stages": h.service.Stages(c.UserContext())})
}

// AddToFunnel enrolls the address in the stage's list and trusts it.
func (h *FunnelHandler) AddToFunnel(c *fiber.Ctx) error {
	var req in.AddToFunnelRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.service.AddToFunnel(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
