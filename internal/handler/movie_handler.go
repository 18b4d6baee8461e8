package handler

import (
	"errors"
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"

	"movie-aggregator-service/internal/apperr"
	"movie-aggregator-service/internal/models"
	"movie-aggregator-service/internal/service"
	"movie-aggregator-service/internal/streaming"
)

// MovieHandler handles HTTP requests for movies.
type MovieHandler struct {
	svc            *service.MovieService
	maxUploadBytes int
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(svc *service.MovieService, maxUploadBytes int) *MovieHandler {
	return &MovieHandler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is used by the poster endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterRoutes mounts the movie endpoints on r.
func (h *MovieHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/health", h.Health)

	movies := r.Group("/movies")
	// Titles may contain "/", so everything after the prefix is the input.
	movies.Get("/combined/*", h.GetCombined)
	movies.Get("/search/*", h.SearchByTitle)
	movies.Get("/data/:id?", h.GetByID)
	movies.Get("/availability/:id?", h.GetAvailability)
	movies.Post("/poster/upload", h.UploadPoster)
	movies.Get("/poster/:id?", h.GetPoster)
}

// Health returns service health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *MovieHandler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "movie-aggregator",
	})
}

// GetCombined returns movie metadata merged with streaming availability.
// @Summary Combined movie and availability lookup
// @Tags movies
// @Produce json
// @Param input path string true "IMDb ID (tt...) or title"
// @Success 200 {object} models.CombinedResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /movies/combined/{input} [get]
func (h *MovieHandler) GetCombined(c fiber.Ctx) error {
	input := c.Params("*")

	result, err := h.svc.GetCombined(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrMissingParameter):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Title or IMDb ID parameter is missing"})
		case errors.Is(err, apperr.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "Movie not found"})
		}
		slog.Error("failed to combine movie data", "input", input, "request_id", requestid.FromContext(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Error combining movie data"})
	}

	return c.JSON(result)
}

// SearchByTitle returns the movie best matching a title, with its poster resolved.
// @Summary Search movie by title
// @Tags movies
// @Produce json
// @Param title path string true "Movie title"
// @Success 200 {object} models.AugmentedMovie
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /movies/search/{title} [get]
func (h *MovieHandler) SearchByTitle(c fiber.Ctx) error {
	title := c.Params("*")

	movie, err := h.svc.GetByTitle(c.Context(), title)
	if err != nil {
		return h.lookupError(c, err, "Title parameter is missing", "Error fetching movie data by title", "title", title)
	}
	return c.JSON(movie)
}

// GetByID returns a movie by IMDb ID, with its poster resolved.
// @Summary Get movie by IMDb ID
// @Tags movies
// @Produce json
// @Param id path string true "IMDb ID"
// @Success 200 {object} models.AugmentedMovie
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /movies/data/{id} [get]
func (h *MovieHandler) GetByID(c fiber.Ctx) error {
	id := c.Params("id")

	movie, err := h.svc.GetByID(c.Context(), id)
	if err != nil {
		return h.lookupError(c, err, "IMDb ID parameter is missing", "Error fetching movie data by IMDb ID", "imdb_id", id)
	}
	return c.JSON(movie)
}

func (h *MovieHandler) lookupError(c fiber.Ctx, err error, missingMsg, failMsg, key, value string) error {
	switch {
	case errors.Is(err, apperr.ErrMissingParameter):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: missingMsg})
	case errors.Is(err, apperr.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "Movie not found"})
	}
	slog.Error(failMsg, key, value, "request_id", requestid.FromContext(c), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: failMsg})
}

// GetAvailability returns normalized streaming offers for an IMDb ID.
// @Summary Streaming availability by IMDb ID
// @Tags movies
// @Produce json
// @Param id path string true "IMDb ID"
// @Success 200 {object} models.AvailabilityResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /movies/availability/{id} [get]
func (h *MovieHandler) GetAvailability(c fiber.Ctx) error {
	id := c.Params("id")

	services, err := h.svc.GetAvailability(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrMissingParameter):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "IMDb ID parameter is missing"})
		case errors.Is(err, streaming.ErrNoAvailability):
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "No streaming availability found"})
		}
		slog.Error("failed to fetch streaming availability", "imdb_id", id, "request_id", requestid.FromContext(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Error fetching streaming availability by IMDb ID"})
	}

	return c.JSON(models.AvailabilityResponse{Services: services})
}

// UploadPoster stores a poster image for the IMDb ID in the imdb-id header.
// @Summary Upload movie poster
// @Tags posters
// @Accept multipart/form-data
// @Produce json
// @Param imdb-id header string true "IMDb ID"
// @Param file formData file true "Poster image (JPEG)"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /movies/poster/upload [post]
func (h *MovieHandler) UploadPoster(c fiber.Ctx) error {
	id := c.Get("imdb-id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "IMDb ID header is missing"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "File not uploaded correctly or file is missing."})
	}
	if fh.Size > int64(h.maxUploadBytes) {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(ErrorResponse{Error: "Poster exceeds the maximum upload size"})
	}

	f, err := fh.Open()
	if err != nil {
		slog.Error("failed to open uploaded poster", "imdb_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Error processing the file"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("failed to read uploaded poster", "imdb_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Error processing the file"})
	}

	if err := h.svc.UploadPoster(c.Context(), id, data); err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyPoster):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "File not uploaded correctly or file is missing."})
		case errors.Is(err, apperr.ErrInvalidIdentifier):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid IMDb ID"})
		}
		slog.Error("failed to save poster", "imdb_id", id, "request_id", requestid.FromContext(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Error saving the poster"})
	}

	return c.JSON(MessageResponse{Message: "Poster uploaded successfully"})
}

// GetPoster redirects to the provider's poster, streams an uploaded one,
// or asks for an upload.
// @Summary Retrieve movie poster
// @Tags posters
// @Produce image/jpeg
// @Produce json
// @Param id path string true "IMDb ID"
// @Success 200 {file} binary
// @Success 302
// @Failure 400 {object} MessageResponse
// @Failure 404 {object} MessageResponse
// @Failure 500 {object} MessageResponse
// @Router /movies/poster/{id} [get]
func (h *MovieHandler) GetPoster(c fiber.Ctx) error {
	id := c.Params("id")

	d, err := h.svc.DeliverPoster(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrMissingParameter):
			return c.Status(fiber.StatusBadRequest).JSON(MessageResponse{Message: "IMDb ID parameter is missing"})
		case errors.Is(err, apperr.ErrInvalidIdentifier):
			return c.Status(fiber.StatusBadRequest).JSON(MessageResponse{Message: "Invalid IMDb ID"})
		}
		slog.Error("failed to retrieve poster", "imdb_id", id, "request_id", requestid.FromContext(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(MessageResponse{
			Message: "An error occurred while retrieving the poster or the IMDB ID is invalid.",
		})
	}

	switch d.Kind {
	case models.PosterRemote:
		return c.Redirect().Status(fiber.StatusFound).To(d.Location)
	case models.PosterLocal:
		c.Set(fiber.HeaderContentType, d.ContentType)
		return c.Send(d.Image)
	default:
		return c.Status(fiber.StatusNotFound).JSON(MessageResponse{
			Message: "Poster not found. Please upload a poster for this movie.",
		})
	}
}
