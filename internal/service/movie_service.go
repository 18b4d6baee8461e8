package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"movie-aggregator-service/internal/apperr"
	"movie-aggregator-service/internal/metrics"
	"movie-aggregator-service/internal/models"
	"movie-aggregator-service/internal/offers"
	"movie-aggregator-service/internal/poster"
	"movie-aggregator-service/internal/streaming"
)

// ErrEmptyPoster means an upload carried no image bytes.
var ErrEmptyPoster = errors.New("poster file is empty")

// MetadataClient looks up canonical movie records.
type MetadataClient interface {
	LookupByTitle(ctx context.Context, title string) (*models.MovieRecord, error)
	LookupByID(ctx context.Context, id string) (*models.MovieRecord, error)
}

// AvailabilityClient lists raw streaming offers for an identifier.
type AvailabilityClient interface {
	LookupAvailability(ctx context.Context, id string) ([]models.RawOffer, error)
}

// PosterWriter persists uploaded posters.
type PosterWriter interface {
	Store(ctx context.Context, id string, data []byte) error
}

// MovieService combines metadata, availability and posters into responses.
type MovieService struct {
	metadata     MetadataClient
	availability AvailabilityClient
	resolver     *poster.Resolver
	posters      PosterWriter
}

// NewMovieService creates a new MovieService.
func NewMovieService(metadata MetadataClient, availability AvailabilityClient, resolver *poster.Resolver, posters PosterWriter) *MovieService {
	return &MovieService{
		metadata:     metadata,
		availability: availability,
		resolver:     resolver,
		posters:      posters,
	}
}

// GetCombined returns the record for a title or identifier together with its
// normalized streaming offers. Metadata failures are fatal; availability
// failures degrade to an empty offer list.
func (s *MovieService) GetCombined(ctx context.Context, input string) (*models.CombinedResult, error) {
	if input == "" {
		return nil, apperr.ErrMissingParameter
	}

	rec, err := s.lookup(ctx, input)
	if err != nil {
		return nil, err
	}

	raw := s.availabilityOrEmpty(ctx, rec.ID)
	return &models.CombinedResult{
		Movie:                 *rec,
		StreamingAvailability: offers.NormalizeAll(raw),
	}, nil
}

func (s *MovieService) lookup(ctx context.Context, input string) (*models.MovieRecord, error) {
	if models.IsIdentifier(input) {
		return s.metadata.LookupByID(ctx, input)
	}
	return s.metadata.LookupByTitle(ctx, input)
}

// availabilityOrEmpty is the only place an upstream failure is swallowed.
func (s *MovieService) availabilityOrEmpty(ctx context.Context, id string) []models.RawOffer {
	raw, err := s.availability.LookupAvailability(ctx, id)
	switch {
	case err == nil:
		return raw
	case errors.Is(err, streaming.ErrNoAvailability):
		slog.Debug("no streaming availability, returning empty offers", "imdb_id", id)
		metrics.AvailabilityDegraded.WithLabelValues("empty").Inc()
	default:
		slog.Warn("streaming availability lookup failed, returning empty offers", "imdb_id", id, "error", err)
		metrics.AvailabilityDegraded.WithLabelValues("upstream_error").Inc()
	}
	return nil
}

// GetByID returns the record for id with its poster resolved.
func (s *MovieService) GetByID(ctx context.Context, id string) (*models.AugmentedMovie, error) {
	if id == "" {
		return nil, apperr.ErrMissingParameter
	}
	rec, err := s.metadata.LookupByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withPoster(ctx, rec)
}

// GetByTitle returns the record best matching title with its poster resolved.
func (s *MovieService) GetByTitle(ctx context.Context, title string) (*models.AugmentedMovie, error) {
	if title == "" {
		return nil, apperr.ErrMissingParameter
	}
	rec, err := s.metadata.LookupByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	return s.withPoster(ctx, rec)
}

// withPoster fills a missing provider poster from uploads and flags records
// that still have none.
func (s *MovieService) withPoster(ctx context.Context, rec *models.MovieRecord) (*models.AugmentedMovie, error) {
	if models.HasPoster(rec.Poster) {
		return &models.AugmentedMovie{Movie: *rec}, nil
	}

	res, err := s.resolver.Resolve(ctx, rec.ID, rec.Poster)
	if err != nil {
		return nil, fmt.Errorf("resolve poster for %s: %w", rec.ID, err)
	}

	out := &models.AugmentedMovie{Movie: *rec}
	needsUpload := res.Kind == models.PosterNeedsUpload
	out.Movie.Poster = res.Ref
	out.PosterUploadRecommended = &needsUpload
	return out, nil
}

// GetAvailability returns the normalized offers for id. Unlike GetCombined,
// an empty listing is reported as streaming.ErrNoAvailability.
func (s *MovieService) GetAvailability(ctx context.Context, id string) ([]models.NormalizedOffer, error) {
	if id == "" {
		return nil, apperr.ErrMissingParameter
	}
	raw, err := s.availability.LookupAvailability(ctx, id)
	if err != nil {
		return nil, err
	}
	return offers.NormalizeAll(raw), nil
}

// UploadPoster stores a poster for id, replacing any previous upload.
func (s *MovieService) UploadPoster(ctx context.Context, id string, data []byte) error {
	if err := apperr.ValidateIdentifier(id); err != nil {
		metrics.PosterUploads.WithLabelValues("rejected").Inc()
		return err
	}
	if len(data) == 0 {
		metrics.PosterUploads.WithLabelValues("rejected").Inc()
		return ErrEmptyPoster
	}
	if err := s.posters.Store(ctx, id, data); err != nil {
		metrics.PosterUploads.WithLabelValues("failure").Inc()
		return err
	}
	metrics.PosterUploads.WithLabelValues("success").Inc()
	return nil
}

// DeliverPoster resolves the poster for direct retrieval.
func (s *MovieService) DeliverPoster(ctx context.Context, id string) (models.PosterDelivery, error) {
	return s.resolver.ResolveForDelivery(ctx, id)
}
