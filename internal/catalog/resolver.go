package catalog

import (
	"context"
	"fmt"
	"strings"

	"log/slog"

	"stylus/internal/catalog/spotify"
	"stylus/internal/config"
	"stylus/internal/logging"
	"stylus/internal/queue"
	"stylus/internal/services"
	"stylus/internal/stage"
	"stylus/internal/trackinfo"
)

// Resolver fills in track metadata from the Spotify catalog before searching.
// Resolution enriches the queue item; when the catalog is unreachable or has
// no match, the raw request text still flows through so the search stage can
// work with whatever the requester typed.
type Resolver struct {
	store   *queue.Store
	cfg     *config.Config
	logger  *slog.Logger
	catalog spotify.Searcher
}

// NewResolver constructs the resolution handler using default dependencies.
func NewResolver(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Resolver {
	client, err := spotify.New(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.BaseURL, cfg.Spotify.TokenURL)
	if err != nil {
		logger.Warn("spotify client unavailable", logging.Error(err))
	}
	return NewResolverWithClient(cfg, store, logger, client)
}

// NewResolverWithClient allows injecting the catalog searcher (used in tests).
func NewResolverWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, searcher spotify.Searcher) *Resolver {
	// A typed-nil *spotify.Client must read as absent.
	if client, ok := searcher.(*spotify.Client); ok && client == nil {
		searcher = nil
	}
	return &Resolver{
		store:   store,
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "resolver"),
		catalog: searcher,
	}
}

func (r *Resolver) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Resolving"
	}
	item.ProgressMessage = "Looking up track metadata"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info(
		"starting track resolution",
		logging.String("query", strings.TrimSpace(item.Query)),
		logging.String("requester", strings.TrimSpace(item.Requester)),
	)
	return nil
}

// Execute resolves the request against the catalog and persists the track
// envelope. Catalog failures degrade to query-derived metadata instead of
// failing the item.
func (r *Resolver) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)

	track, err := r.resolve(ctx, item)
	if err != nil {
		logger.Warn("catalog resolution failed, continuing with query metadata",
			logging.String("query", item.Query),
			logging.Error(err))
		track = r.fallbackTrack(item)
	}
	if strings.TrimSpace(track.Title) == "" {
		return services.Wrap(
			services.ErrValidation, "resolver", "derive track metadata",
			"Request has no usable track metadata; submit as 'Artist - Title' or a Spotify link", nil)
	}

	encoded, err := track.Encode()
	if err != nil {
		return services.Wrap(services.ErrTransient, "resolver", "encode track metadata", "Failed to encode track metadata", err)
	}

	item.Artist = track.Artist
	item.Title = track.Title
	item.Album = track.Album
	item.Year = track.Year
	item.DurationSeconds = track.DurationSeconds
	item.SpotifyURL = track.SpotifyURL
	item.MetadataJSON = encoded
	item.ProgressStage = "Resolved"
	item.ProgressPercent = 100
	item.ProgressMessage = fmt.Sprintf("Resolved as: %s", track.String())

	logger.Info(
		"track resolved",
		logging.String("artist", track.Artist),
		logging.String("title", track.Title),
		logging.String("album", track.Album),
		logging.Int("duration_seconds", track.DurationSeconds),
		logging.String("source", track.Source),
	)
	return nil
}

// HealthCheck verifies resolver dependencies required for successful execution.
func (r *Resolver) HealthCheck(ctx context.Context) stage.Health {
	const name = "resolver"
	if r.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(r.cfg.Spotify.ClientID) == "" || strings.TrimSpace(r.cfg.Spotify.ClientSecret) == "" {
		return stage.Unhealthy(name, "spotify credentials missing")
	}
	if r.catalog == nil {
		return stage.Unhealthy(name, "spotify client unavailable")
	}
	return stage.Healthy(name)
}

func (r *Resolver) resolve(ctx context.Context, item *queue.Item) (trackinfo.Track, error) {
	if r.catalog == nil {
		return trackinfo.Track{}, fmt.Errorf("spotify client unavailable")
	}

	// A pasted Spotify link resolves directly; anything else is a text search.
	for _, candidate := range []string{item.SpotifyURL, item.Query} {
		if id, ok := spotify.ParseTrackID(candidate); ok {
			found, err := r.catalog.TrackByID(ctx, id)
			if err != nil {
				return trackinfo.Track{}, err
			}
			return fromSpotify(*found), nil
		}
	}

	query := strings.TrimSpace(item.Query)
	if query == "" {
		query = strings.TrimSpace(strings.TrimSpace(item.Artist) + " " + strings.TrimSpace(item.Title))
	}
	if query == "" {
		return trackinfo.Track{}, fmt.Errorf("empty query")
	}

	limit := r.cfg.Search.MaxResults
	tracks, err := r.catalog.SearchTracks(ctx, query, limit)
	if err != nil {
		return trackinfo.Track{}, err
	}
	picked := pickTrack(query, tracks)
	if picked == nil {
		return trackinfo.Track{}, fmt.Errorf("no catalog match for %q", query)
	}
	return fromSpotify(*picked), nil
}

// fallbackTrack builds query-derived metadata when the catalog cannot help.
func (r *Resolver) fallbackTrack(item *queue.Item) trackinfo.Track {
	if strings.TrimSpace(item.Artist) != "" || strings.TrimSpace(item.Title) != "" {
		return trackinfo.Track{
			Artist:          strings.TrimSpace(item.Artist),
			Title:           strings.TrimSpace(item.Title),
			Album:           strings.TrimSpace(item.Album),
			Year:            strings.TrimSpace(item.Year),
			DurationSeconds: item.DurationSeconds,
			SpotifyURL:      strings.TrimSpace(item.SpotifyURL),
			Source:          trackinfo.SourceQuery,
		}
	}
	return trackinfo.FromQuery(item.Query)
}

// pickTrack selects the best catalog match. When the request looks like
// "Artist - Title", results whose artist does not contain the requested
// artist are skipped; catalog text search is loose and routinely returns
// covers and tributes first.
func pickTrack(query string, tracks []spotify.Track) *spotify.Track {
	if len(tracks) == 0 {
		return nil
	}
	queryArtist := ""
	if idx := strings.Index(query, " - "); idx >= 0 {
		queryArtist = strings.ToLower(strings.TrimSpace(query[:idx]))
	}
	if queryArtist != "" {
		for i := range tracks {
			if strings.Contains(strings.ToLower(tracks[i].Artist), queryArtist) {
				return &tracks[i]
			}
		}
	}
	return &tracks[0]
}

func fromSpotify(t spotify.Track) trackinfo.Track {
	return trackinfo.Track{
		Artist:          t.Artist,
		Title:           t.Title,
		Album:           t.Album,
		Year:            t.Year,
		DurationSeconds: t.DurationSeconds,
		SpotifyID:       t.ID,
		SpotifyURL:      t.URL,
		Source:          trackinfo.SourceSpotify,
	}
}
