package lists

import (
	"sort"
	"strings"

	"github.com/zippicks/critic-backend/internal/models"
)

const (
	TierEssential = "Essential"
	TierNotable   = "Notable"
	TierWorthy    = "Worthy"
	TierOther     = "Other"
)

// TierOrder is the fixed display order of tier buckets.
var TierOrder = []string{TierEssential, TierNotable, TierWorthy, TierOther}

// TierGroup is one tier bucket with its items in display order.
type TierGroup struct {
	Tier  string            `json:"tier"`
	Items []models.ListItem `json:"items"`
}

// CanonicalTier maps a stored label onto a bucket. Matching ignores case and
// surrounding space; unknown labels land in Other.
func CanonicalTier(label string) string {
	label = strings.TrimSpace(label)
	for _, tier := range TierOrder[:3] {
		if strings.EqualFold(label, tier) {
			return tier
		}
	}
	return TierOther
}

// SortItems orders items by descending score, then ascending position, then id.
func SortItems(items []models.ListItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.ID < b.ID
	})
}

// GroupByTier buckets items in TierOrder. Empty buckets are left out and
// every input item appears in exactly one bucket.
func GroupByTier(items []models.ListItem) []TierGroup {
	buckets := make(map[string][]models.ListItem, len(TierOrder))
	for _, item := range items {
		tier := CanonicalTier(item.Tier)
		buckets[tier] = append(buckets[tier], item)
	}

	groups := make([]TierGroup, 0, len(buckets))
	for _, tier := range TierOrder {
		bucket := buckets[tier]
		if len(bucket) == 0 {
			continue
		}
		SortItems(bucket)
		groups = append(groups, TierGroup{Tier: tier, Items: bucket})
	}
	return groups
}

// Flatten returns the items of groups in display order.
func Flatten(groups []TierGroup) []models.ListItem {
	var n int
	for _, g := range groups {
		n += len(g.Items)
	}
	out := make([]models.ListItem, 0, n)
	for _, g := range groups {
		out = append(out, g.Items...)
	}
	return out
}
