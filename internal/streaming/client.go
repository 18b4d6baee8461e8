package streaming

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"movie-aggregator-service/internal/metrics"
	"movie-aggregator-service/internal/models"
	"movie-aggregator-service/internal/upstream"
)

const (
	upstreamName = "streaming-availability"
	purpose      = "streaming availability lookup"

	// Lookups are pinned to one region and output language.
	country        = "us"
	outputLanguage = "en"
)

// ErrNoAvailability means the provider knows no offers for the title in the region.
var ErrNoAvailability = errors.New("no streaming availability found")

// Client is the Streaming Availability (RapidAPI) client.
type Client struct {
	apiKey  string
	host    string
	baseURL string
	fetcher *upstream.Fetcher
}

// NewClient creates a new streaming availability client.
func NewClient(apiKey, host, baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		host:    host,
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: upstream.NewFetcher(upstreamName, timeout),
	}
}

type searchResponse struct {
	Shows []show `json:"shows"`
}

type show struct {
	IMDbID           string                       `json:"imdbId"`
	Title            string                       `json:"title"`
	StreamingOptions map[string][]models.RawOffer `json:"streamingOptions"`
}

// LookupAvailability returns the regional offers of the first matching show,
// in provider order. Multiple editions are not disambiguated.
func (c *Client) LookupAvailability(ctx context.Context, id string) ([]models.RawOffer, error) {
	q := url.Values{
		"imdb_id":         {id},
		"country":         {country},
		"output_language": {outputLanguage},
	}
	reqURL := c.baseURL + "/shows/search/filters?" + q.Encode()
	header := http.Header{
		"x-rapidapi-key":  {c.apiKey},
		"x-rapidapi-host": {c.host},
	}

	slog.Debug("fetching streaming availability", "imdb_id", id)
	var resp searchResponse
	if err := c.fetcher.GetJSON(ctx, purpose, reqURL, header, &resp); err != nil {
		return nil, err
	}

	if len(resp.Shows) == 0 {
		metrics.UpstreamRequests.WithLabelValues(upstreamName, "empty").Inc()
		return nil, ErrNoAvailability
	}
	offers := resp.Shows[0].StreamingOptions[country]
	if len(offers) == 0 {
		metrics.UpstreamRequests.WithLabelValues(upstreamName, "empty").Inc()
		return nil, ErrNoAvailability
	}

	metrics.UpstreamRequests.WithLabelValues(upstreamName, "success").Inc()
	return offers, nil
}
