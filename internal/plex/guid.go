package plex

import (
	"fmt"
	"regexp"
)

// ExternalID is the provider reference extracted from a Plex GUID.
type ExternalID struct {
	Source string // "tmdb", "imdb", "tvdb", "plex"
	Value  string
}

// Plex GUIDs come in several generations of formats:
//
//	plex://movie/5d7768258df361001bdc8b4b          (Plex's own)
//	com.plexapp.agents.themoviedb://123456?lang=en (TMDB agent)
//	tmdb://123456                                  (TMDB direct)
//	com.plexapp.agents.imdb://tt1234567?lang=en    (IMDB agent)
//	imdb://tt1234567                               (IMDB direct)
//	com.plexapp.agents.thetvdb://123456?lang=en    (TVDB agent)
var guidPatterns = []struct {
	source string
	re     *regexp.Regexp
}{
	{"tmdb", regexp.MustCompile(`com\.plexapp\.agents\.themoviedb://(\d+)`)},
	{"tmdb", regexp.MustCompile(`tmdb://(\d+)`)},
	{"imdb", regexp.MustCompile(`com\.plexapp\.agents\.imdb://(tt\d+)`)},
	{"imdb", regexp.MustCompile(`imdb://(tt\d+)`)},
	{"tvdb", regexp.MustCompile(`com\.plexapp\.agents\.thetvdb://(\d+)`)},
	{"tvdb", regexp.MustCompile(`tvdb://(\d+)`)},
	{"plex", regexp.MustCompile(`plex://movie/([a-f0-9]{24})`)},
}

// ParseGUID extracts the external id from any recognized Plex GUID format.
func ParseGUID(guid string) (ExternalID, error) {
	for _, p := range guidPatterns {
		if matches := p.re.FindStringSubmatch(guid); len(matches) > 1 {
			return ExternalID{Source: p.source, Value: matches[1]}, nil
		}
	}
	return ExternalID{}, fmt.Errorf("no recognized external ID found in GUID: %s", guid)
}
