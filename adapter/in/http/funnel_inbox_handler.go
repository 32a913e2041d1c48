package http

import (
	"funnel_server/core/domain"
	"funnel_server/core/port/in"

	"github.com/gofiber/fiber/v2"
)

// InboxHandler serves classified inbox messages.
type InboxHandler struct {
	service in.InboxService
}

func NewInboxHandler(service in.InboxService) *InboxHandler {
	return &InboxHandler{service: service}
}

func (h *InboxHandler) Register(router fiber.Router) {
	router.Get("/messages", h.ListMessages)
}

// ListMessages handles ?folder, ?limit and ?filter=real|all.
func (h *InboxHandler) ListMessages(c *fiber.Ctx) error {
	req := &in.MessagesRequest{
		Folder: queryString(c, "folder"),
		Limit:  queryLimit(c),
		Filter: domain.ParseMessageFilter(queryString(c, "filter")),
	}

	resp, err := h.service.ListMessages(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
