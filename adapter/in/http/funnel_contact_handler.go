package http

import (
	"funnel_server/core/domain"
	"funnel_server/core/port/in"

	"github.com/gofiber/fiber/v2"
)

// ContactHandler serves unified contacts and the mailing-list overview.
type ContactHandler struct {
	contacts in.ContactService
	lists    in.ListService
}

func NewContactHandler(contacts in.ContactService, lists in.ListService) *ContactHandler {
	return &ContactHandler{contacts: contacts, lists: lists}
}

// Register registers contact routes.
func (h *ContactHandler) Register(router fiber.Router) {
	router.Get("/contacts", h.ListContacts)
	router.Get("/lists", h.ListMailingLists)
}

// ListContacts handles ?filter=real|engaged|all, ?limit and ?search.
func (h *ContactHandler) ListContacts(c *fiber.Ctx) error {
	q := domain.ContactQuery{
		Filter: domain.ParseContactFilter(queryString(c, "filter")),
		Limit:  queryLimit(c),
		Search: queryString(c, "search"),
	}

	resp, err := h.contacts.ListContacts(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *ContactHandler) ListMailingLists(c *fiber.Ctx) error {
	resp, err := h.lists.ListMailingLists(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
