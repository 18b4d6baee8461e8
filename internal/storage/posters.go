package storage

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"movie-aggregator-service/internal/apperr"
)

const posterExt = ".jpg"

// PosterStore keeps uploaded posters on disk, one <id>.jpg file per identifier.
// Writes land in a temp file in the same directory and are renamed into
// place, so readers see either the old poster or the new one.
type PosterStore struct {
	dir string
}

// NewPosterStore creates the poster directory if needed.
func NewPosterStore(dir string) (*PosterStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &apperr.StorageError{Op: "init", ID: dir, Err: err}
	}
	slog.Info("poster store ready", "dir", dir)
	return &PosterStore{dir: filepath.Clean(dir)}, nil
}

func (s *PosterStore) path(id string) (string, error) {
	if err := apperr.ValidateIdentifier(id); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, id+posterExt), nil
}

// Exists reports whether a poster has been uploaded for id.
func (s *PosterStore) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := s.path(id)
	if err != nil {
		return false, err
	}

	fi, err := os.Stat(p)
	switch {
	case err == nil:
		return fi.Mode().IsRegular(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, &apperr.StorageError{Op: "stat", ID: id, Err: err}
	}
}

// Read returns the stored poster bytes for id.
func (s *PosterStore) Read(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, &apperr.StorageError{Op: "read", ID: id, Err: err}
	}
	return data, nil
}

// Store replaces the poster for id. Last writer wins.
func (s *PosterStore) Store(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(id)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(s.dir, filepath.Base(p), data); err != nil {
		return &apperr.StorageError{Op: "write", ID: id, Err: err}
	}
	slog.Info("poster stored", "imdb_id", id, "bytes", len(data))
	return nil
}

func writeFileAtomic(dir, name string, data []byte) error {
	// Temp file must share the target's directory for rename to be atomic.
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, filepath.Join(dir, name))
}
