// Package schema builds Schema.org JSON-LD for critic lists.
package schema

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/segmentio/encoding/json"
	"github.com/zippicks/critic-backend/internal/models"
)

const schemaContext = "https://schema.org"

type ItemList struct {
	Context         string     `json:"@context"`
	Type            string     `json:"@type"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	URL             string     `json:"url,omitempty"`
	NumberOfItems   int        `json:"numberOfItems"`
	ItemListOrder   string     `json:"itemListOrder"`
	ItemListElement []ListItem `json:"itemListElement"`
}

type ListItem struct {
	Type     string     `json:"@type"`
	Position int        `json:"position"`
	Item     Restaurant `json:"item"`
}

type Restaurant struct {
	Type            string           `json:"@type"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	URL             string           `json:"url,omitempty"`
	ServesCuisine   string           `json:"servesCuisine,omitempty"`
	PriceRange      string           `json:"priceRange,omitempty"`
	Address         *PostalAddress   `json:"address,omitempty"`
	AggregateRating *AggregateRating `json:"aggregateRating,omitempty"`
	Keywords        string           `json:"keywords,omitempty"`
}

type PostalAddress struct {
	Type            string `json:"@type"`
	StreetAddress   string `json:"streetAddress,omitempty"`
	AddressLocality string `json:"addressLocality,omitempty"`
	AddressRegion   string `json:"addressRegion,omitempty"`
}

// AggregateRating carries the critic score on a 10-point scale.
type AggregateRating struct {
	Type        string `json:"@type"`
	RatingValue string `json:"ratingValue"`
	BestRating  string `json:"bestRating"`
	WorstRating string `json:"worstRating"`
	RatingCount int    `json:"ratingCount"`
}

// BuildItemList converts a set and its ordered items into an ItemList.
// Positions follow the order of items, starting at 1.
func BuildItemList(set *models.ListSet, items []models.ListItem, baseURL string) ItemList {
	list := ItemList{
		Context:         schemaContext,
		Type:            "ItemList",
		Name:            set.Name,
		Description:     set.Description,
		NumberOfItems:   len(items),
		ItemListOrder:   "https://schema.org/ItemListOrderDescending",
		ItemListElement: make([]ListItem, 0, len(items)),
	}
	if baseURL != "" && set.Slug != "" {
		list.URL = strings.TrimRight(baseURL, "/") + "/lists/" + set.Slug
	}

	for i, item := range items {
		r := Restaurant{
			Type:          "Restaurant",
			Name:          item.Name,
			Description:   item.Summary,
			URL:           item.URL,
			ServesCuisine: item.Cuisine,
			PriceRange:    item.PriceTier,
			Keywords:      strings.Join(item.Tags, ", "),
		}
		if item.Address != "" || set.City != "" || set.State != "" {
			r.Address = &PostalAddress{
				Type:            "PostalAddress",
				StreetAddress:   item.Address,
				AddressLocality: set.City,
				AddressRegion:   set.State,
			}
		}
		if item.Score > 0 {
			r.AggregateRating = &AggregateRating{
				Type:        "AggregateRating",
				RatingValue: formatScore(item.Score),
				BestRating:  "10",
				WorstRating: "0",
				RatingCount: 1,
			}
		}
		list.ItemListElement = append(list.ItemListElement, ListItem{
			Type:     "ListItem",
			Position: i + 1,
			Item:     r,
		})
	}
	return list
}

// Marshal encodes v as JSON-LD. "<" is escaped so the output is safe inside
// a script element.
func Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.ReplaceAll(b, []byte("<"), []byte(`\u003c`)), nil
}

func formatScore(score float64) string {
	return strconv.FormatFloat(math.Round(score*10)/10, 'f', 1, 64)
}
