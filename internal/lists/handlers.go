package lists

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/zippicks/critic-backend/internal/dto"
	"github.com/zippicks/critic-backend/internal/schema"
)

type Handler struct {
	service  *Service
	renderer *Renderer
	siteURL  string
}

func NewHandler(service *Service, renderer *Renderer, siteURL string) *Handler {
	return &Handler{service: service, renderer: renderer, siteURL: siteURL}
}

// --- Public ---

func (h *Handler) ListSets(c *fiber.Ctx) error {
	page := h.service.ListSets(c.UserContext(), ListFilter{
		City:     c.Query("city"),
		Category: c.Query("category"),
		Page:     c.QueryInt("page", 1),
		PerPage:  c.QueryInt("per_page", 20),
	})
	return c.JSON(fiber.Map{"error": false, "data": page})
}

func (h *Handler) GetSet(c *fiber.Ctx) error {
	id, ok := parseID(c.Params("id"))
	if !ok {
		return respondError(c, invalidID())
	}
	set, found := h.service.GetSet(c.UserContext(), id, flag(c.Query("include_items"), false))
	if !found {
		return respondError(c, ErrNotFound)
	}
	return c.JSON(fiber.Map{"error": false, "set": set})
}

func (h *Handler) GetSetBySlug(c *fiber.Ctx) error {
	set, found := h.service.GetSetBySlug(c.UserContext(), c.Params("slug"), flag(c.Query("include_items"), false))
	if !found {
		return respondError(c, ErrNotFound)
	}
	return c.JSON(fiber.Map{"error": false, "set": set})
}

func (h *Handler) GetItems(c *fiber.Ctx) error {
	id, ok := parseID(c.Params("id"))
	if !ok {
		return respondError(c, invalidID())
	}
	if _, found := h.service.GetSet(c.UserContext(), id, false); !found {
		return respondError(c, ErrNotFound)
	}
	items := h.service.GetItems(c.UserContext(), id)
	return c.JSON(fiber.Map{
		"error": false,
		"items": items,
		"tiers": GroupByTier(items),
	})
}

// Render returns list markup, or one of the fixed messages with status 200
// so embedding pages always have something to show.
func (h *Handler) Render(c *fiber.Ctx) error {
	id, _ := parseID(c.Params("id"))
	defaults := DefaultDisplayOptions()
	opts := DisplayOptions{
		ShowScores:       flag(c.Query("show_scores"), defaults.ShowScores),
		ShowSummaries:    flag(c.Query("show_summaries"), defaults.ShowSummaries),
		ShowPriceTier:    flag(c.Query("show_price_tier"), defaults.ShowPriceTier),
		ShowNeighborhood: flag(c.Query("show_neighborhood"), defaults.ShowNeighborhood),
		IncludeSchema:    flag(c.Query("include_schema"), defaults.IncludeSchema),
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(h.renderer.RenderList(c.UserContext(), id, opts))
}

func (h *Handler) Schema(c *fiber.Ctx) error {
	id, ok := parseID(c.Params("id"))
	if !ok {
		return respondError(c, invalidID())
	}
	set, found := h.service.GetSet(c.UserContext(), id, false)
	if !found {
		return respondError(c, ErrNotFound)
	}
	items := Flatten(h.service.GetGroupedItems(c.UserContext(), id))
	b, err := schema.Marshal(schema.BuildItemList(set, items, h.siteURL))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to build schema")
	}
	c.Set(fiber.HeaderContentType, "application/ld+json")
	return c.Send(b)
}

// --- Admin ---

func (h *Handler) CreateSet(c *fiber.Ctx) error {
	var in SetInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	set, err := h.service.CreateSet(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"error": false, "set": set})
}

func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := parseID(c.Params("id"))
	if !ok {
		return respondError(c, invalidID())
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	set, err := h.service.UpdateStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"error": false, "set": set})
}

func (h *Handler) UpdateMetadata(c *fiber.Ctx) error {
	id, ok := parseID(c.Params("id"))
	if !ok {
		return respondError(c, invalidID())
	}
	var req dto.UpdateMetadataRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	meta, err := h.service.UpdateMetadata(c.UserContext(), id, req.Metadata)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"error": false, "metadata": meta})
}

func (h *Handler) DeleteSet(c *fiber.Ctx) error {
	id, ok := parseID(c.Params("id"))
	if !ok {
		return respondError(c, invalidID())
	}
	result, err := h.service.DeleteSet(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"error": false, "deleted": result})
}

// FlushCache invalidates one of the list cache groups.
func (h *Handler) FlushCache(c *fiber.Ctx) error {
	group := c.Params("group")
	if group != GroupSets && group != GroupLists {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Unknown cache group: " + group, Field: "group",
		})
	}
	h.service.cache.FlushGroup(c.UserContext(), group)
	return c.JSON(fiber.Map{"error": false, "flushed": group})
}

func respondError(c *fiber.Ctx, err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: ve.Error(), Field: ve.Field,
		})
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "List not found",
		})
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// flag reads shortcode-style booleans: 1/true/yes/on and 0/false/no/off.
func flag(raw string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
