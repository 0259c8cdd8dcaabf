package lists

import (
	"context"
	"html/template"
	"strconv"
	"strings"

	"github.com/zippicks/critic-backend/internal/logging"
	"github.com/zippicks/critic-backend/internal/metrics"
	"github.com/zippicks/critic-backend/internal/models"
	"github.com/zippicks/critic-backend/internal/schema"
)

// Fixed messages returned instead of markup.
const (
	MsgIDRequired = "Error: List ID is required."
	MsgNotFound   = "Error: List not found or not published."
	MsgNoItems    = "No items found in this list."
)

// DisplayOptions toggles optional item fields.
type DisplayOptions struct {
	ShowScores       bool
	ShowSummaries    bool
	ShowPriceTier    bool
	ShowNeighborhood bool
	IncludeSchema    bool
}

// DefaultDisplayOptions shows every field and omits the JSON-LD block.
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{ShowScores: true, ShowSummaries: true, ShowPriceTier: true, ShowNeighborhood: true}
}

const listTemplate = `<div class="zp-critic-list" data-list-id="{{.Set.ID}}">
<header class="zp-critic-list__header">
<h2 class="zp-critic-list__title">{{.Set.Name}}</h2>
{{- with .Set.Location}}
<p class="zp-critic-list__location">{{.}}</p>
{{- end}}
<p class="zp-critic-list__count">{{.Count}}</p>
</header>
{{- range .Groups}}
<section class="zp-tier zp-tier--{{tierClass .Tier}}">
<h3 class="zp-tier__title">{{.Tier}}</h3>
{{- range .Items}}
<article class="zp-item" data-item-id="{{.ID}}">
<h4 class="zp-item__name">{{.Name}}</h4>
{{- if $.Opts.ShowScores}}
<span class="zp-item__score">{{score .Score}}</span>
{{- end}}
{{- if and $.Opts.ShowPriceTier .PriceTier}}
<span class="zp-item__price">{{.PriceTier}}</span>
{{- end}}
{{- if and $.Opts.ShowNeighborhood .Neighborhood}}
<span class="zp-item__neighborhood">{{.Neighborhood}}</span>
{{- end}}
{{- if and $.Opts.ShowSummaries .Summary}}
<p class="zp-item__summary">{{.Summary}}</p>
{{- end}}
{{- with .Dishes}}
<ul class="zp-item__dishes">
{{- range .}}
<li>{{.Name}}</li>
{{- end}}
</ul>
{{- end}}
</article>
{{- end}}
</section>
{{- end}}
{{- with .Schema}}
<script type="application/ld+json">{{.}}</script>
{{- end}}
</div>
`

type renderData struct {
	Set    *models.ListSet
	Groups []TierGroup
	Opts   DisplayOptions
	Count  string
	Schema template.JS
}

// Renderer turns a set and its tier groups into markup.
type Renderer struct {
	service *Service
	tmpl    *template.Template
	siteURL string
	log     logging.Logger
	metrics *metrics.Metrics
}

func NewRenderer(service *Service, siteURL string, log logging.Logger, m *metrics.Metrics) *Renderer {
	tmpl := template.Must(template.New("list").Funcs(template.FuncMap{
		"score":     func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
		"tierClass": func(t string) string { return strings.ToLower(t) },
	}).Parse(listTemplate))
	return &Renderer{service: service, tmpl: tmpl, siteURL: siteURL, log: log, metrics: m}
}

// Render produces markup for set. The output depends only on its inputs.
func (r *Renderer) Render(set *models.ListSet, groups []TierGroup, opts DisplayOptions) (string, error) {
	data := renderData{Set: set, Groups: groups, Opts: opts, Count: itemCount(groups)}
	if opts.IncludeSchema {
		b, err := schema.Marshal(schema.BuildItemList(set, Flatten(groups), r.siteURL))
		if err != nil {
			return "", err
		}
		data.Schema = template.JS(b)
	}

	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RenderList is the shortcode entry point: markup for a published set, or
// one of the fixed messages.
func (r *Renderer) RenderList(ctx context.Context, id uint, opts DisplayOptions) string {
	if id == 0 {
		r.metrics.Render("id_required")
		return MsgIDRequired
	}
	set, ok := r.service.GetSet(ctx, id, false)
	if !ok {
		r.metrics.Render("not_found")
		return MsgNotFound
	}
	groups := r.service.GetGroupedItems(ctx, id)
	if len(groups) == 0 {
		r.metrics.Render("empty")
		return MsgNoItems
	}

	out, err := r.Render(set, groups, opts)
	if err != nil {
		r.log.Error("failed to render list", "operation", "lists.render", "set_id", id, "error", err)
		r.metrics.Render("error")
		return MsgNotFound
	}
	r.metrics.Render("ok")
	return out
}

func itemCount(groups []TierGroup) string {
	n := 0
	for _, g := range groups {
		n += len(g.Items)
	}
	if n == 1 {
		return "1 restaurant"
	}
	return strconv.Itoa(n) + " restaurants"
}
