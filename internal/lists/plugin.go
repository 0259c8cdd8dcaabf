package lists

import (
	"github.com/gofiber/fiber/v2"
	"github.com/zippicks/critic-backend/internal/models"
	"github.com/zippicks/critic-backend/internal/tables"
)

// Plugin mounts the critic list feature.
type Plugin struct {
	handler *Handler
}

func New(service *Service, renderer *Renderer, siteURL string) *Plugin {
	return &Plugin{handler: NewHandler(service, renderer, siteURL)}
}

func (p *Plugin) ID() string { return "master-critic" }

func (p *Plugin) Models() map[string]interface{} {
	return map[string]interface{}{
		tables.Sets:  &models.ListSet{},
		tables.Items: &models.ListItem{},
		tables.Meta:  &models.ListMeta{},
	}
}

func (p *Plugin) RegisterRoutes(router fiber.Router) {
	h := p.handler

	router.Get("/lists", h.ListSets)
	router.Get("/lists/slug/:slug", h.GetSetBySlug)
	router.Get("/lists/:id", h.GetSet)
	router.Get("/lists/:id/items", h.GetItems)
	router.Get("/lists/:id/render", h.Render)
	router.Get("/lists/:id/schema", h.Schema)
}

func (p *Plugin) RegisterAdminRoutes(router fiber.Router) {
	h := p.handler

	router.Post("/lists", h.CreateSet)
	router.Put("/lists/:id/status", h.UpdateStatus)
	router.Put("/lists/:id/meta", h.UpdateMetadata)
	router.Delete("/lists/:id", h.DeleteSet)
	router.Post("/cache/flush/:group", h.FlushCache)
}
