package models

import "time"

// Set statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Item statuses.
const (
	ItemActive = "active"
	ItemHidden = "hidden"
)

// ValidSetStatus reports whether s is one of the set lifecycle states.
func ValidSetStatus(s string) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// ListSet is a curated, ranked collection of restaurants ("Top 10 Pizza in Austin").
type ListSet struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Slug         string     `gorm:"size:191;not null;uniqueIndex:idx_critic_set_slug" json:"slug"`
	Description  string     `gorm:"type:text" json:"description"`
	City         string     `gorm:"size:100;index:idx_critic_set_city" json:"city"`
	State        string     `gorm:"size:50" json:"state"`
	Neighborhood string     `gorm:"size:100" json:"neighborhood"`
	Category     string     `gorm:"size:100" json:"category"`
	Status       string     `gorm:"size:20;not null;default:draft;index:idx_critic_set_status" json:"status"`
	ItemCount    int        `gorm:"not null;default:0" json:"item_count"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Metadata map[string]string `gorm:"-" json:"metadata,omitempty"`
	Items    []ListItem        `gorm:"-" json:"items,omitempty"`
}

// Location renders "City, ST" with whichever parts are present.
func (s *ListSet) Location() string {
	switch {
	case s.City != "" && s.State != "":
		return s.City + ", " + s.State
	case s.City != "":
		return s.City
	default:
		return s.State
	}
}

// ListItem is one ranked restaurant inside a ListSet.
type ListItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SetID        uint      `gorm:"not null;index:idx_critic_item_set" json:"set_id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Score        float64   `gorm:"not null;default:0" json:"score"`
	Tier         string    `gorm:"size:50;index:idx_critic_item_tier" json:"tier"`
	Position     int       `gorm:"not null;default:0" json:"position"`
	Status       string    `gorm:"size:20;not null;default:active" json:"status"`
	Summary      string    `gorm:"type:text" json:"summary"`
	PriceTier    string    `gorm:"size:10" json:"price_tier"`
	Neighborhood string    `gorm:"size:100" json:"neighborhood"`
	Cuisine      string    `gorm:"size:100" json:"cuisine"`
	Address      string    `gorm:"size:255" json:"address"`
	URL          string    `gorm:"size:255" json:"url"`
	Dishes       Dishes    `json:"dishes"`
	SubScores    SubScores `json:"sub_scores"`
	Tags         Tags      `json:"tags"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListMeta is a key/value row attached to a ListSet.
type ListMeta struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	SetID     uint   `gorm:"not null;uniqueIndex:idx_critic_meta_set_key,priority:1" json:"set_id"`
	MetaKey   string `gorm:"size:191;not null;uniqueIndex:idx_critic_meta_set_key,priority:2" json:"meta_key"`
	MetaValue string `gorm:"type:text" json:"meta_value"`
}
