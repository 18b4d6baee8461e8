// Package poster resolves a title's poster through a fixed fallback chain:
// the metadata provider's URL, then an uploaded file, then an upload request.
package poster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"movie-aggregator-service/internal/apperr"
	"movie-aggregator-service/internal/metrics"
	"movie-aggregator-service/internal/models"
)

// ErrResolution is returned by ResolveForDelivery for any upstream or
// storage failure; the cause stays wrapped for logging.
var ErrResolution = errors.New("poster resolution failed")

// Store is the uploaded-poster storage the resolver falls back to.
type Store interface {
	Exists(ctx context.Context, id string) (bool, error)
	Read(ctx context.Context, id string) ([]byte, error)
}

// MetadataSource fetches the current record for an identifier.
type MetadataSource interface {
	LookupByID(ctx context.Context, id string) (*models.MovieRecord, error)
}

// Resolver picks exactly one poster tier per call. Nothing is cached.
type Resolver struct {
	store      Store
	metadata   MetadataSource
	publicPath string
}

// NewResolver creates a Resolver. Local posters are referenced as publicPath/<id>.
func NewResolver(store Store, metadata MetadataSource, publicPath string) *Resolver {
	return &Resolver{store: store, metadata: metadata, publicPath: publicPath}
}

// LocalRef is the public path an uploaded poster is served from.
func (r *Resolver) LocalRef(id string) string {
	return r.publicPath + "/" + id
}

// Resolve chooses the poster for a record the caller already fetched.
func (r *Resolver) Resolve(ctx context.Context, id, metadataPoster string) (models.PosterResolution, error) {
	res, err := r.resolve(ctx, id, metadataPoster)
	if err != nil {
		return models.PosterResolution{}, err
	}
	metrics.PosterResolutions.WithLabelValues("metadata", res.Kind.String()).Inc()
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, id, metadataPoster string) (models.PosterResolution, error) {
	if models.HasPoster(metadataPoster) {
		return models.RemotePoster(metadataPoster), nil
	}

	ok, err := r.store.Exists(ctx, id)
	if err != nil {
		return models.PosterResolution{}, err
	}
	if ok {
		return models.LocalPoster(r.LocalRef(id)), nil
	}
	return models.NeedsUpload(), nil
}

// ResolveForDelivery re-fetches the record and turns the chosen tier into
// something servable: a redirect, the stored bytes, or an upload request.
// A record the provider does not know simply has no remote poster.
func (r *Resolver) ResolveForDelivery(ctx context.Context, id string) (models.PosterDelivery, error) {
	if err := apperr.ValidateIdentifier(id); err != nil {
		return models.PosterDelivery{}, err
	}

	var metadataPoster string
	rec, err := r.metadata.LookupByID(ctx, id)
	switch {
	case err == nil:
		metadataPoster = rec.Poster
	case errors.Is(err, apperr.ErrNotFound):
		slog.Debug("no metadata record for poster, checking uploads", "imdb_id", id)
	default:
		return models.PosterDelivery{}, fmt.Errorf("%w: %w", ErrResolution, err)
	}

	res, err := r.resolve(ctx, id, metadataPoster)
	if err != nil {
		return models.PosterDelivery{}, fmt.Errorf("%w: %w", ErrResolution, err)
	}

	var d models.PosterDelivery
	switch res.Kind {
	case models.PosterRemote:
		d = models.PosterDelivery{Kind: models.PosterRemote, Location: res.Ref}
	case models.PosterLocal:
		img, err := r.store.Read(ctx, id)
		if err != nil {
			return models.PosterDelivery{}, fmt.Errorf("%w: %w", ErrResolution, err)
		}
		d = models.PosterDelivery{Kind: models.PosterLocal, Image: img, ContentType: models.PosterContentType}
	default:
		d = models.PosterDelivery{Kind: models.PosterNeedsUpload}
	}

	metrics.PosterResolutions.WithLabelValues("delivery", d.Kind.String()).Inc()
	return d, nil
}
