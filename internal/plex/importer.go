package plex

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"watchlog/internal/metadata"
	"watchlog/internal/state"
	"watchlog/internal/types"
)

// Finder is the metadata surface the importer resolves GUIDs against.
type Finder interface {
	GetDetails(ctx context.Context, tmdbID int) (types.MovieRef, error)
	SearchMovies(ctx context.Context, query string, year int) ([]types.MovieRef, error)
	FindByExternalID(ctx context.Context, externalID, source string) ([]types.MovieRef, error)
}

// ListSink receives the resolved movies. Satisfied by the state provider.
type ListSink interface {
	AddToList(ctx context.Context, movie types.MovieRef, list types.ListType) state.MutationResult
}

// ImportStats summarizes one import run.
type ImportStats struct {
	Found    int
	Imported int
	Skipped  int
}

// Importer walks the movie libraries of every reachable server and adds
// each resolvable movie to the watched list. Movies already on a list are
// left where they are; the add is a no-op for them.
type Importer struct {
	log    *zap.Logger
	client *Client
	finder Finder
	sink   ListSink
}

func NewImporter(client *Client, finder Finder, sink ListSink, log *zap.Logger) *Importer {
	return &Importer{
		log:    log.Named("plex"),
		client: client,
		finder: finder,
		sink:   sink,
	}
}

// ImportWatched runs the full import. Per-item failures are logged and
// skipped; the run only fails when no server can be reached at all.
func (imp *Importer) ImportWatched(ctx context.Context) (ImportStats, error) {
	var stats ImportStats

	servers, err := imp.client.GetServers(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list servers: %w", err)
	}
	if len(servers) == 0 {
		return stats, fmt.Errorf("no accessible media servers")
	}

	for _, server := range servers {
		conn := BestConnection(server)
		if conn == nil {
			imp.log.Warn("server has no usable connection", zap.String("server", server.Name))
			continue
		}
		serverURL := ServerURL(*conn)

		libraries, err := imp.client.GetMovieLibraries(ctx, serverURL, server.AccessToken)
		if err != nil {
			imp.log.Warn("failed to list libraries",
				zap.String("server", server.Name), zap.Error(err))
			continue
		}

		for _, library := range libraries {
			items, err := imp.client.GetMovies(ctx, serverURL, server.AccessToken, library.Key)
			if err != nil {
				imp.log.Warn("failed to list library items",
					zap.String("library", library.Title), zap.Error(err))
				continue
			}
			stats.Found += len(items)

			for _, item := range items {
				movie, err := imp.resolve(ctx, item)
				if err != nil {
					imp.log.Debug("skipping unresolvable item",
						zap.String("title", item.Title), zap.Error(err))
					stats.Skipped++
					continue
				}

				res := imp.sink.AddToList(ctx, movie, types.ListWatched)
				if !res.Success {
					imp.log.Warn("failed to add imported movie",
						zap.String("title", movie.Title), zap.Error(res.Err))
					stats.Skipped++
					continue
				}
				stats.Imported++
			}
		}
	}

	imp.log.Info("plex import finished",
		zap.Int("found", stats.Found),
		zap.Int("imported", stats.Imported),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

// resolve maps a library item to a TMDB-keyed movie. GUID first, then a
// title search constrained by year when the GUID format is unknown or
// Plex-internal.
func (imp *Importer) resolve(ctx context.Context, item Item) (types.MovieRef, error) {
	extID, err := ParseGUID(item.GUID)
	if err != nil {
		return imp.resolveByTitle(ctx, item)
	}

	switch extID.Source {
	case "tmdb":
		tmdbID, err := strconv.Atoi(extID.Value)
		if err != nil {
			return types.MovieRef{}, fmt.Errorf("bad TMDB id in GUID %s: %w", item.GUID, err)
		}
		movie, err := imp.finder.GetDetails(ctx, tmdbID)
		if err != nil {
			// The id is trustworthy even when the details fetch fails;
			// enrichment fills the rest in later.
			return types.MovieRef{ID: tmdbID, Title: item.Title}, nil
		}
		return movie, nil

	case "imdb":
		return imp.resolveExternal(ctx, item, extID.Value, "imdb_id")
	case "tvdb":
		return imp.resolveExternal(ctx, item, extID.Value, "tvdb_id")
	default:
		// Plex's own ids carry no provider reference.
		return imp.resolveByTitle(ctx, item)
	}
}

func (imp *Importer) resolveExternal(ctx context.Context, item Item, externalID, source string) (types.MovieRef, error) {
	results, err := imp.finder.FindByExternalID(ctx, externalID, source)
	if err != nil {
		return types.MovieRef{}, fmt.Errorf("find by %s failed: %w", source, err)
	}
	if len(results) == 0 {
		return imp.resolveByTitle(ctx, item)
	}
	return results[0], nil
}

func (imp *Importer) resolveByTitle(ctx context.Context, item Item) (types.MovieRef, error) {
	year := 0
	if item.Year != nil {
		year = *item.Year
	}

	results, err := imp.finder.SearchMovies(ctx, item.Title, year)
	if err != nil {
		return types.MovieRef{}, fmt.Errorf("title search failed: %w", err)
	}
	if len(results) == 0 {
		return types.MovieRef{}, fmt.Errorf("no results for title %q", item.Title)
	}

	if year > 0 {
		for _, movie := range results {
			if metadata.ExtractYear(movie.ReleaseDate) == year {
				return movie, nil
			}
		}
	}
	// First result is the most popular match.
	return results[0], nil
}
