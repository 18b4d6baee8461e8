// Package offers maps provider-specific streaming offers onto NormalizedOffer.
package offers

import (
	"strings"

	"movie-aggregator-service/internal/models"
)

const (
	UnknownProvider = "Unknown"
	UnknownType     = "Unknown"
	DefaultQuality  = "Not specified"
	DefaultPrice    = "N/A"
)

type platform struct {
	token string
	name  string
}

// platforms is checked in order; the first token found in a link wins.
var platforms = []platform{
	{"netflix", "Netflix"},
	{"amazon", "Amazon Prime Video"},
	{"hulu", "Hulu"},
	{"disney", "Disney+"},
	{"hbo", "HBO Max"},
	{"apple", "Apple TV+"},
}

// InferProvider guesses the service name from an outbound offer link.
// Matching is case-sensitive.
func InferProvider(link string) string {
	for _, p := range platforms {
		if strings.Contains(link, p.token) {
			return p.name
		}
	}
	return UnknownProvider
}

// Normalize reshapes one raw offer, filling defaults for missing fields.
func Normalize(o models.RawOffer) models.NormalizedOffer {
	n := models.NormalizedOffer{
		Provider:        InferProvider(o.Link),
		TransactionType: o.Type,
		Quality:         o.Quality,
		Price:           DefaultPrice,
		Link:            o.Link,
	}
	if n.TransactionType == "" {
		n.TransactionType = UnknownType
	}
	if n.Quality == "" {
		n.Quality = DefaultQuality
	}
	if o.Price != nil && o.Price.Formatted != "" {
		n.Price = o.Price.Formatted
	}
	return n
}

// NormalizeAll normalizes every offer, keeping upstream order.
// The result is never nil.
func NormalizeAll(raw []models.RawOffer) []models.NormalizedOffer {
	out := make([]models.NormalizedOffer, 0, len(raw))
	for _, o := range raw {
		out = append(out, Normalize(o))
	}
	return out
}
