package plex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGUID(t *testing.T) {
	cases := []struct {
		guid   string
		source string
		value  string
	}{
		{"com.plexapp.agents.themoviedb://603?lang=en", "tmdb", "603"},
		{"tmdb://603", "tmdb", "603"},
		{"com.plexapp.agents.imdb://tt0133093?lang=en", "imdb", "tt0133093"},
		{"imdb://tt0133093", "imdb", "tt0133093"},
		{"com.plexapp.agents.thetvdb://73762?lang=en", "tvdb", "73762"},
		{"tvdb://73762", "tvdb", "73762"},
		{"plex://movie/5d7768258df361001bdc8b4b", "plex", "5d7768258df361001bdc8b4b"},
	}

	for _, tc := range cases {
		ext, err := ParseGUID(tc.guid)
		require.NoError(t, err, tc.guid)
		assert.Equal(t, tc.source, ext.Source, tc.guid)
		assert.Equal(t, tc.value, ext.Value, tc.guid)
	}
}

func TestParseGUIDUnknown(t *testing.T) {
	_, err := ParseGUID("local://12345")
	assert.Error(t, err)

	_, err = ParseGUID("")
	assert.Error(t, err)
}
