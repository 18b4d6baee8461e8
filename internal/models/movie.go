package models

import (
	"maps"
	"strings"

	"github.com/goccy/go-json"
)

const (
	// IDPrefix marks metadata-provider identifiers (e.g. tt0111161).
	IDPrefix = "tt"

	// UnavailableSentinel is the metadata provider's "field not present" value.
	UnavailableSentinel = "N/A"
)

// IsIdentifier reports whether input follows the identifier prefix convention
// rather than being a free-text title.
func IsIdentifier(input string) bool {
	return strings.HasPrefix(input, IDPrefix)
}

// HasPoster reports whether poster is a usable value.
func HasPoster(poster string) bool {
	return poster != "" && poster != UnavailableSentinel
}

// MovieRecord is the canonical metadata record for one title.
// Fields carries every other provider field through untouched.
type MovieRecord struct {
	ID     string
	Title  string
	Poster string // empty means absent
	Fields map[string]any
}

func (m MovieRecord) toMap() map[string]any {
	out := make(map[string]any, len(m.Fields)+3)
	maps.Copy(out, m.Fields)
	out["imdbID"] = m.ID
	out["Title"] = m.Title
	if m.Poster == "" {
		out["Poster"] = nil
	} else {
		out["Poster"] = m.Poster
	}
	return out
}

// MarshalJSON flattens the record back into the provider's field layout.
func (m MovieRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.toMap())
}

// AugmentedMovie is a record whose poster went through the resolver.
// PosterUploadRecommended is nil when the provider already had a poster.
type AugmentedMovie struct {
	Movie                   MovieRecord
	PosterUploadRecommended *bool
}

func (a AugmentedMovie) MarshalJSON() ([]byte, error) {
	out := a.Movie.toMap()
	if a.PosterUploadRecommended != nil {
		out["poster_upload_recommended"] = *a.PosterUploadRecommended
	}
	return json.Marshal(out)
}

// CombinedResult is a record merged with its streaming offers.
type CombinedResult struct {
	Movie                 MovieRecord
	StreamingAvailability []NormalizedOffer
}

func (c CombinedResult) MarshalJSON() ([]byte, error) {
	out := c.Movie.toMap()
	offers := c.StreamingAvailability
	if offers == nil {
		offers = []NormalizedOffer{}
	}
	out["streamingAvailability"] = offers
	return json.Marshal(out)
}
