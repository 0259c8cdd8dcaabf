package lists

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zippicks/critic-backend/internal/models"
)

func TestGroupByTierOrder(t *testing.T) {
	items := []models.ListItem{
		{ID: 1, Name: "a", Tier: "Worthy", Score: 7},
		{ID: 2, Name: "b", Tier: "Essential", Score: 8},
		{ID: 3, Name: "c", Tier: "Legendary", Score: 9.9},
		{ID: 4, Name: "d", Tier: "essential", Score: 9.2},
		{ID: 5, Name: "e", Tier: "", Score: 5},
	}

	groups := GroupByTier(items)
	require.Len(t, groups, 3)
	assert.Equal(t, TierEssential, groups[0].Tier)
	assert.Equal(t, TierWorthy, groups[1].Tier)
	assert.Equal(t, TierOther, groups[2].Tier)

	assert.Equal(t, []uint{4, 2}, ids(groups[0].Items))
	assert.Equal(t, []uint{3, 5}, ids(groups[2].Items))
}

func TestGroupByTierTieBreaksOnPosition(t *testing.T) {
	items := []models.ListItem{
		{ID: 1, Tier: "Notable", Score: 8, Position: 3},
		{ID: 2, Tier: "Notable", Score: 8, Position: 1},
		{ID: 3, Tier: "Notable", Score: 8.5, Position: 9},
	}
	groups := GroupByTier(items)
	require.Len(t, groups, 1)
	assert.Equal(t, []uint{3, 2, 1}, ids(groups[0].Items))
}

func TestGroupByTierPreservesItems(t *testing.T) {
	labels := []string{"Essential", "Notable", "Worthy", "Other", "Hidden Gem", "", "NOTABLE"}
	r := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		n := r.Intn(30)
		items := make([]models.ListItem, n)
		for i := range items {
			items[i] = models.ListItem{
				ID:       uint(i + 1),
				Tier:     labels[r.Intn(len(labels))],
				Score:    float64(r.Intn(20)) / 2,
				Position: r.Intn(5),
			}
		}

		groups := GroupByTier(items)
		assert.ElementsMatch(t, ids(items), ids(Flatten(groups)))

		last := -1
		for _, g := range groups {
			idx := tierIndex(g.Tier)
			assert.Greater(t, idx, last, "bucket order")
			last = idx
			for i := 1; i < len(g.Items); i++ {
				prev, cur := g.Items[i-1], g.Items[i]
				ok := prev.Score > cur.Score || (prev.Score == cur.Score && prev.Position <= cur.Position)
				assert.True(t, ok, "items sorted within %s", g.Tier)
			}
		}
	}
}

func TestGroupByTierEmpty(t *testing.T) {
	groups := GroupByTier(nil)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
	assert.Empty(t, Flatten(groups))
}

func TestCanonicalTier(t *testing.T) {
	assert.Equal(t, TierEssential, CanonicalTier(" ESSENTIAL "))
	assert.Equal(t, TierOther, CanonicalTier("other"))
	assert.Equal(t, TierOther, CanonicalTier("Must Try"))
}

func ids(items []models.ListItem) []uint {
	out := make([]uint, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func tierIndex(tier string) int {
	for i, t := range TierOrder {
		if t == tier {
			return i
		}
	}
	return -1
}
