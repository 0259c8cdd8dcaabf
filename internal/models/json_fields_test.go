package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFieldsDecodeFailureYieldsEmpty(t *testing.T) {
	var dishes Dishes
	require.NoError(t, dishes.Scan([]byte("{not json")))
	assert.NotNil(t, dishes)
	assert.Empty(t, dishes)

	var scores SubScores
	require.NoError(t, scores.Scan("[1,2]"))
	assert.NotNil(t, scores)
	assert.Empty(t, scores)

	var tags Tags
	require.NoError(t, tags.Scan(nil))
	assert.NotNil(t, tags)
	assert.Empty(t, tags)

	require.NoError(t, tags.Scan("null"))
	assert.NotNil(t, tags)
}

func TestJSONFieldsDecodeValid(t *testing.T) {
	var dishes Dishes
	require.NoError(t, dishes.Scan(`[{"name":"Margherita","price":"$14"}]`))
	require.Len(t, dishes, 1)
	assert.Equal(t, "Margherita", dishes[0].Name)

	var scores SubScores
	require.NoError(t, scores.Scan([]byte(`{"food":9.5,"service":8}`)))
	assert.Equal(t, 9.5, scores["food"])

	var tags Tags
	require.NoError(t, tags.Scan(`["date-night","patio"]`))
	assert.Equal(t, Tags{"date-night", "patio"}, tags)
}

func TestJSONFieldsNilValues(t *testing.T) {
	v, err := Dishes(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = SubScores(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)

	v, err = Tags{"a"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a"]`, v)
}

func TestValidSetStatus(t *testing.T) {
	assert.True(t, ValidSetStatus(StatusPublished))
	assert.True(t, ValidSetStatus(StatusDraft))
	assert.True(t, ValidSetStatus(StatusArchived))
	assert.False(t, ValidSetStatus("deleted"))
	assert.False(t, ValidSetStatus(""))
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "Austin, TX", (&ListSet{City: "Austin", State: "TX"}).Location())
	assert.Equal(t, "Austin", (&ListSet{City: "Austin"}).Location())
	assert.Equal(t, "TX", (&ListSet{State: "TX"}).Location())
}
