package season

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Breaking Bad", "breaking bad"},
		{"  Amélie!! ", "amelie"},
		{"Marvel's Agents of S.H.I.E.L.D.", "marvel s agents of s h i e l d"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeTitle(tt.in))
		})
	}
}

func TestTitleScore(t *testing.T) {
	assert.Equal(t, 1.0, titleScore("bad", "Breaking Bad"))
	assert.Greater(t, titleScore("breakng bad", "Breaking Bad"), minTitleScore)
	assert.Less(t, titleScore("seinfeld", "Breaking Bad"), minTitleScore)
	assert.Equal(t, 0.0, titleScore("", "Breaking Bad"))
}

func TestMatchGroupsOrdersByScore(t *testing.T) {
	groups := []Group{
		{ID: "a", SeriesTitle: "The Office", SeasonTitle: "Season 1"},
		{ID: "b", SeriesTitle: "Office Space", SeasonTitle: "Season 1"},
		{ID: "c", SeriesTitle: "Dark", SeasonTitle: "Season 1"},
	}

	got := matchGroups("ofice", groups)
	ids := make([]string, 0, len(got))
	for _, g := range got {
		ids = append(ids, g.ID)
	}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	assert.Len(t, matchGroups("  ", groups), 3)
}
