package lists

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zippicks/critic-backend/internal/cache"
	"github.com/zippicks/critic-backend/internal/logging"
	"github.com/zippicks/critic-backend/internal/metrics"
	"github.com/zippicks/critic-backend/internal/models"
	"github.com/zippicks/critic-backend/internal/sanitize"
	"github.com/zippicks/critic-backend/internal/tables"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cache groups. Per-set entries live in GroupSets; anything that lists
// several sets lives in GroupLists and is flushed on every write.
const (
	GroupSets  = "critic_sets"
	GroupLists = "critic_lists"
)

const maxPerPage = 100

type Service struct {
	db      *gorm.DB
	sets    string
	items   string
	meta    string
	cache   cache.Cache
	log     logging.Logger
	metrics *metrics.Metrics
	ttl     time.Duration
}

// NewService resolves its table names once from reg.
func NewService(db *gorm.DB, reg *tables.Registry, c cache.Cache, log logging.Logger, m *metrics.Metrics, ttl time.Duration) *Service {
	return &Service{
		db:      db,
		sets:    reg.MustName(tables.Sets),
		items:   reg.MustName(tables.Items),
		meta:    reg.MustName(tables.Meta),
		cache:   c,
		log:     log.With("component", "lists"),
		metrics: m,
		ttl:     ttl,
	}
}

// --- Reads ---

// GetSet returns a published set, or false for any other status, a missing
// id or a datastore error.
func (s *Service) GetSet(ctx context.Context, id uint, includeItems bool) (*models.ListSet, bool) {
	if id == 0 {
		return nil, false
	}
	set, ok := s.cachedSet(ctx, setKey(id), "get_set", func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}, "set_id", id)
	if !ok {
		return nil, false
	}
	if includeItems {
		set.Items = s.GetItems(ctx, set.ID)
	}
	return set, true
}

// GetSetBySlug is GetSet keyed by slug.
func (s *Service) GetSetBySlug(ctx context.Context, slug string, includeItems bool) (*models.ListSet, bool) {
	slug = sanitize.Slug(slug)
	if slug == "" {
		return nil, false
	}
	set, ok := s.cachedSet(ctx, slugKey(slug), "get_set_by_slug", func(db *gorm.DB) *gorm.DB {
		return db.Where("slug = ?", slug)
	}, "slug", slug)
	if !ok {
		return nil, false
	}
	if includeItems {
		set.Items = s.GetItems(ctx, set.ID)
	}
	return set, true
}

func (s *Service) cachedSet(ctx context.Context, key, op string, scope func(*gorm.DB) *gorm.DB, logArgs ...any) (*models.ListSet, bool) {
	set, err := cache.RememberJSON(ctx, s.cache, key, GroupSets, s.ttl, func(ctx context.Context) (*models.ListSet, error) {
		start := time.Now()
		defer s.timed(op, start, logArgs...)

		var set models.ListSet
		err := s.db.WithContext(ctx).Table(s.sets).Scopes(scope).
			Where("status = ?", models.StatusPublished).
			Take(&set).Error
		if err != nil {
			return nil, err
		}
		meta, err := s.loadMeta(ctx, set.ID)
		if err != nil {
			return nil, err
		}
		set.Metadata = meta
		return &set, nil
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Error("failed to load list", append([]any{"operation", "lists." + op, "error", err}, logArgs...)...)
		}
		return nil, false
	}
	if set == nil {
		return nil, false
	}
	return set, true
}

func (s *Service) loadMeta(ctx context.Context, setID uint) (map[string]string, error) {
	var rows []models.ListMeta
	if err := s.db.WithContext(ctx).Table(s.meta).Where("set_id = ?", setID).Find(&rows).Error; err != nil {
		return nil, err
	}
	meta := make(map[string]string, len(rows))
	for _, row := range rows {
		meta[row.MetaKey] = row.MetaValue
	}
	return meta, nil
}

// GetItems returns the active items of a set by descending score, then
// ascending position. It never returns nil; errors are logged and yield an
// empty slice.
func (s *Service) GetItems(ctx context.Context, setID uint) []models.ListItem {
	if setID == 0 {
		return []models.ListItem{}
	}
	items, err := cache.RememberJSON(ctx, s.cache, itemsKey(setID), GroupSets, s.ttl, func(ctx context.Context) ([]models.ListItem, error) {
		start := time.Now()
		defer s.timed("get_items", start, "set_id", setID)

		var items []models.ListItem
		err := s.db.WithContext(ctx).Table(s.items).
			Where("set_id = ? AND status = ?", setID, models.ItemActive).
			Order("score DESC").Order("position ASC").Order("id ASC").
			Find(&items).Error
		if err != nil {
			return nil, err
		}
		return items, nil
	})
	if err != nil {
		s.log.Error("failed to load list items", "operation", "lists.get_items", "set_id", setID, "error", err)
		return []models.ListItem{}
	}
	if items == nil {
		return []models.ListItem{}
	}
	return items
}

// GetGroupedItems is GetItems bucketed by tier.
func (s *Service) GetGroupedItems(ctx context.Context, setID uint) []TierGroup {
	return GroupByTier(s.GetItems(ctx, setID))
}

type ListFilter struct {
	City     string
	Category string
	Page     int
	PerPage  int
}

func (f ListFilter) normalized() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 20
	}
	if f.PerPage > maxPerPage {
		f.PerPage = maxPerPage
	}
	f.City = sanitize.Text(f.City)
	f.Category = sanitize.Text(f.Category)
	return f
}

func (f ListFilter) cacheKey() string {
	return fmt.Sprintf("sets:city=%s:cat=%s:p=%d:n=%d",
		strings.ToLower(f.City), strings.ToLower(f.Category), f.Page, f.PerPage)
}

// SetPage is one page of published sets.
type SetPage struct {
	Sets    []models.ListSet `json:"sets"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

// ListSets pages through published sets, newest first.
func (s *Service) ListSets(ctx context.Context, filter ListFilter) SetPage {
	filter = filter.normalized()
	empty := SetPage{Sets: []models.ListSet{}, Page: filter.Page, PerPage: filter.PerPage}

	page, err := cache.RememberJSON(ctx, s.cache, filter.cacheKey(), GroupLists, s.ttl, func(ctx context.Context) (SetPage, error) {
		start := time.Now()
		defer s.timed("list_sets", start)

		q := s.db.WithContext(ctx).Table(s.sets).Where("status = ?", models.StatusPublished)
		if filter.City != "" {
			q = q.Where("LOWER(city) = ?", strings.ToLower(filter.City))
		}
		if filter.Category != "" {
			q = q.Where("LOWER(category) = ?", strings.ToLower(filter.Category))
		}
		q = q.Session(&gorm.Session{})

		page := empty
		if err := q.Count(&page.Total).Error; err != nil {
			return SetPage{}, err
		}
		err := q.Order("published_at DESC").Order("id DESC").
			Offset((filter.Page - 1) * filter.PerPage).Limit(filter.PerPage).
			Find(&page.Sets).Error
		return page, err
	})
	if err != nil {
		s.log.Error("failed to list sets", "operation", "lists.list_sets", "city", filter.City, "error", err)
		return empty
	}
	if page.Sets == nil {
		page.Sets = []models.ListSet{}
	}
	return page
}

// --- Writes ---

// ItemInput is one item of an import.
type ItemInput struct {
	Name         string             `json:"name"`
	Score        float64            `json:"score"`
	Tier         string             `json:"tier"`
	Position     int                `json:"position"`
	Status       string             `json:"status"`
	Summary      string             `json:"summary"`
	PriceTier    string             `json:"price_tier"`
	Neighborhood string             `json:"neighborhood"`
	Cuisine      string             `json:"cuisine"`
	Address      string             `json:"address"`
	URL          string             `json:"url"`
	Dishes       []models.Dish      `json:"dishes"`
	SubScores    map[string]float64 `json:"sub_scores"`
	Tags         []string           `json:"tags"`
}

// SetInput creates a set with its items and metadata.
type SetInput struct {
	Name         string            `json:"name"`
	Slug         string            `json:"slug"`
	Description  string            `json:"description"`
	City         string            `json:"city"`
	State        string            `json:"state"`
	Neighborhood string            `json:"neighborhood"`
	Category     string            `json:"category"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
	Items        []ItemInput       `json:"items"`
}

func (in SetInput) build(now time.Time) (*models.ListSet, []models.ListItem, []models.ListMeta, error) {
	set := &models.ListSet{
		Name:         sanitize.Text(in.Name),
		Description:  sanitize.Textarea(in.Description),
		City:         sanitize.Text(in.City),
		State:        sanitize.Text(in.State),
		Neighborhood: sanitize.Text(in.Neighborhood),
		Category:     sanitize.Text(in.Category),
		Status:       strings.ToLower(strings.TrimSpace(in.Status)),
	}
	if set.Name == "" {
		return nil, nil, nil, invalid("name", "is required")
	}
	set.Slug = sanitize.Slug(in.Slug)
	if set.Slug == "" {
		set.Slug = sanitize.Slug(set.Name)
	}
	if set.Slug == "" {
		return nil, nil, nil, invalid("slug", "cannot be derived from name")
	}
	if set.Status == "" {
		set.Status = models.StatusDraft
	}
	if !models.ValidSetStatus(set.Status) {
		return nil, nil, nil, invalidStatus()
	}
	if set.Status == models.StatusPublished {
		set.PublishedAt = &now
	}

	items := make([]models.ListItem, 0, len(in.Items))
	for i, it := range in.Items {
		item := models.ListItem{
			Name:         sanitize.Text(it.Name),
			Score:        it.Score,
			Tier:         sanitize.Text(it.Tier),
			Position:     it.Position,
			Status:       strings.ToLower(strings.TrimSpace(it.Status)),
			Summary:      sanitize.Textarea(it.Summary),
			PriceTier:    sanitize.Text(it.PriceTier),
			Neighborhood: sanitize.Text(it.Neighborhood),
			Cuisine:      sanitize.Text(it.Cuisine),
			Address:      sanitize.Text(it.Address),
			URL:          sanitize.URL(it.URL),
			Dishes:       models.Dishes(it.Dishes),
			SubScores:    models.SubScores(it.SubScores),
			Tags:         models.Tags(it.Tags),
		}
		if item.Name == "" {
			return nil, nil, nil, invalid("items["+strconv.Itoa(i)+"].name", "is required")
		}
		if item.Score < 0 || item.Score > 10 {
			return nil, nil, nil, invalid("items["+strconv.Itoa(i)+"].score", "must be between 0 and 10")
		}
		if item.Position <= 0 {
			item.Position = i + 1
		}
		if item.Status == "" {
			item.Status = models.ItemActive
		}
		items = append(items, item)
	}
	set.ItemCount = len(items)

	meta, err := metaRows(in.Metadata)
	if err != nil {
		return nil, nil, nil, err
	}
	return set, items, meta, nil
}

func metaRows(in map[string]string) ([]models.ListMeta, error) {
	rows := make([]models.ListMeta, 0, len(in))
	for k, v := range in {
		key, ok := sanitize.Key(k)
		if !ok {
			return nil, invalid("metadata", "invalid key "+strconv.Quote(k))
		}
		rows = append(rows, models.ListMeta{MetaKey: key, MetaValue: sanitize.Textarea(v)})
	}
	return rows, nil
}

// CreateSet imports a set with its items and metadata in one transaction.
func (s *Service) CreateSet(ctx context.Context, in SetInput) (*models.ListSet, error) {
	set, items, meta, err := in.build(time.Now().UTC())
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Table(s.sets).Where("slug = ?", set.Slug).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return invalid("slug", "already exists")
		}
		if err := tx.Table(s.sets).Create(set).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].SetID = set.ID
		}
		if len(items) > 0 {
			if err := tx.Table(s.items).CreateInBatches(items, 100).Error; err != nil {
				return err
			}
		}
		for i := range meta {
			meta[i].SetID = set.ID
		}
		if len(meta) > 0 {
			if err := tx.Table(s.meta).Create(&meta).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			s.log.Error("failed to create list", "operation", "lists.create_set", "slug", set.Slug, "items", len(items), "error", err)
		}
		return nil, err
	}

	set.Metadata = make(map[string]string, len(meta))
	for _, m := range meta {
		set.Metadata[m.MetaKey] = m.MetaValue
	}
	set.Items = items
	s.cache.FlushGroup(ctx, GroupLists)
	s.log.Info("list created", "set_id", set.ID, "slug", set.Slug, "items", len(items))
	return set, nil
}

// UpdateStatus moves a set between draft, published and archived.
func (s *Service) UpdateStatus(ctx context.Context, id uint, status string) (*models.ListSet, error) {
	if id == 0 {
		return nil, invalidID()
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if !models.ValidSetStatus(status) {
		return nil, invalidStatus()
	}

	var set models.ListSet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(s.sets).Where("id = ?", id).Take(&set).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{"status": status, "updated_at": time.Now().UTC()}
		if status == models.StatusPublished && set.PublishedAt == nil {
			now := time.Now().UTC()
			updates["published_at"] = now
			set.PublishedAt = &now
		}
		if err := tx.Table(s.sets).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		set.Status = status
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.log.Error("failed to update list status", "operation", "lists.update_status", "set_id", id, "status", status, "error", err)
		return nil, err
	}

	s.invalidate(ctx, &set)
	s.log.Info("list status updated", "set_id", id, "status", status)
	return &set, nil
}

// UpdateMetadata upserts metadata keys. An empty value removes the key.
func (s *Service) UpdateMetadata(ctx context.Context, id uint, values map[string]string) (map[string]string, error) {
	if id == 0 {
		return nil, invalidID()
	}
	if len(values) == 0 {
		return nil, invalid("metadata", "at least one key is required")
	}
	rows, err := metaRows(values)
	if err != nil {
		return nil, err
	}

	var set models.ListSet
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(s.sets).Where("id = ?", id).Take(&set).Error; err != nil {
			return err
		}
		for _, row := range rows {
			if row.MetaValue == "" {
				if err := tx.Table(s.meta).Where("set_id = ? AND meta_key = ?", id, row.MetaKey).
					Delete(&models.ListMeta{}).Error; err != nil {
					return err
				}
				continue
			}
			row.SetID = id
			if err := tx.Table(s.meta).Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "set_id"}, {Name: "meta_key"}},
				DoUpdates: clause.AssignmentColumns([]string{"meta_value"}),
			}).Create(&row).Error; err != nil {
				return err
			}
		}
		return tx.Table(s.sets).Where("id = ?", id).Update("updated_at", time.Now().UTC()).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.log.Error("failed to update list metadata", "operation", "lists.update_metadata", "set_id", id, "error", err)
		return nil, err
	}

	s.invalidate(ctx, &set)
	meta, err := s.loadMeta(ctx, id)
	if err != nil {
		s.log.Warning("metadata saved but reload failed", "operation", "lists.update_metadata", "set_id", id, "error", err)
		return map[string]string{}, nil
	}
	return meta, nil
}

// DeleteResult counts the rows a delete removed.
type DeleteResult struct {
	SetID uint  `json:"set_id"`
	Items int64 `json:"items"`
	Meta  int64 `json:"meta"`
}

// DeleteSet removes a set with all of its items and metadata, or nothing.
func (s *Service) DeleteSet(ctx context.Context, id uint) (DeleteResult, error) {
	result := DeleteResult{SetID: id}
	if id == 0 {
		return result, invalidID()
	}

	var set models.ListSet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(s.sets).Where("id = ?", id).Take(&set).Error; err != nil {
			return err
		}

		items := tx.Table(s.items).Where("set_id = ?", id).Delete(&models.ListItem{})
		if items.Error != nil {
			return fmt.Errorf("delete items: %w", items.Error)
		}
		meta := tx.Table(s.meta).Where("set_id = ?", id).Delete(&models.ListMeta{})
		if meta.Error != nil {
			return fmt.Errorf("delete meta: %w", meta.Error)
		}
		parent := tx.Table(s.sets).Where("id = ?", id).Delete(&models.ListSet{})
		if parent.Error != nil {
			return fmt.Errorf("delete set: %w", parent.Error)
		}
		if parent.RowsAffected != 1 {
			return fmt.Errorf("delete set: expected 1 row, got %d", parent.RowsAffected)
		}

		result.Items = items.RowsAffected
		result.Meta = meta.RowsAffected
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DeleteResult{SetID: id}, ErrNotFound
	}
	if err != nil {
		s.log.Error("list delete rolled back", "operation", "lists.delete_set", "set_id", id, "error", err)
		return DeleteResult{SetID: id}, err
	}

	s.invalidate(ctx, &set)
	s.log.Info("list deleted", "set_id", id, "items", result.Items, "meta", result.Meta)
	return result, nil
}

// invalidate drops every cache entry that can contain set.
func (s *Service) invalidate(ctx context.Context, set *models.ListSet) {
	s.cache.Delete(ctx, setKey(set.ID), GroupSets)
	s.cache.Delete(ctx, itemsKey(set.ID), GroupSets)
	if set.Slug != "" {
		s.cache.Delete(ctx, slugKey(set.Slug), GroupSets)
	}
	s.cache.FlushGroup(ctx, GroupLists)
}

func (s *Service) timed(op string, start time.Time, args ...any) {
	elapsed := time.Since(start)
	s.metrics.ObserveQuery(op, elapsed)
	s.log.Performance("lists."+op, elapsed, args...)
}

func setKey(id uint) string      { return "set:" + strconv.FormatUint(uint64(id), 10) }
func itemsKey(id uint) string    { return setKey(id) + ":items" }
func slugKey(slug string) string { return "slug:" + slug }
