package omdb

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"movie-aggregator-service/internal/apperr"
	"movie-aggregator-service/internal/metrics"
	"movie-aggregator-service/internal/models"
	"movie-aggregator-service/internal/upstream"
)

const (
	upstreamName = "omdb"

	purposeByTitle = "metadata lookup by title"
	purposeByID    = "metadata lookup by id"
)

// Client is the OMDb metadata API client.
type Client struct {
	apiKey  string
	baseURL string
	fetcher *upstream.Fetcher
}

// NewClient creates a new OMDb API client.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: upstream.NewFetcher(upstreamName, timeout),
	}
}

// LookupByTitle fetches the record best matching a free-text title.
func (c *Client) LookupByTitle(ctx context.Context, title string) (*models.MovieRecord, error) {
	slog.Debug("fetching OMDb record by title", "title", title)
	return c.lookup(ctx, purposeByTitle, url.Values{"t": {title}})
}

// LookupByID fetches the record for an identifier.
func (c *Client) LookupByID(ctx context.Context, id string) (*models.MovieRecord, error) {
	slog.Debug("fetching OMDb record by id", "imdb_id", id)
	return c.lookup(ctx, purposeByID, url.Values{"i": {id}})
}

func (c *Client) lookup(ctx context.Context, purpose string, q url.Values) (*models.MovieRecord, error) {
	q.Set("apikey", c.apiKey)
	reqURL := c.baseURL + "/?" + q.Encode()

	var raw map[string]any
	if err := c.fetcher.GetJSON(ctx, purpose, reqURL, nil, &raw); err != nil {
		return nil, err
	}

	rec, err := decodeRecord(raw)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		metrics.UpstreamRequests.WithLabelValues(upstreamName, "not_found").Inc()
		return nil, err
	case err != nil:
		metrics.UpstreamRequests.WithLabelValues(upstreamName, "failure").Inc()
		return nil, &upstream.Error{Purpose: purpose, Err: err}
	}

	metrics.UpstreamRequests.WithLabelValues(upstreamName, "success").Inc()
	return rec, nil
}

// decodeRecord turns a raw OMDb payload into a MovieRecord. The "N/A"
// poster sentinel becomes an absent poster.
func decodeRecord(raw map[string]any) (*models.MovieRecord, error) {
	if len(raw) == 0 || stringField(raw, "Response") == "False" {
		return nil, apperr.ErrNotFound
	}

	id := stringField(raw, "imdbID")
	if id == "" {
		return nil, errors.New("response has no imdbID")
	}

	rec := &models.MovieRecord{
		ID:     id,
		Title:  stringField(raw, "Title"),
		Fields: make(map[string]any, len(raw)),
	}
	if p := stringField(raw, "Poster"); models.HasPoster(p) {
		rec.Poster = p
	}

	for k, v := range raw {
		switch k {
		case "imdbID", "Title", "Poster":
			continue
		}
		rec.Fields[k] = v
	}
	return rec, nil
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}
