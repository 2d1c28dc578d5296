package library

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"vision_collage/pkg/config"
	"vision_collage/pkg/metrics"
)

const jpegQuality = 92

// DirLibrary keeps assets as JPEG files named <uuid>.jpg inside a directory.
type DirLibrary struct {
	dir string
	reg *metrics.Registry

	mu     sync.Mutex
	status Status
}

func NewDirLibrary(dir string, status Status, reg *metrics.Registry) *DirLibrary {
	return &DirLibrary{dir: dir, status: status, reg: reg}
}

// NewFromConfig constructs a directory library from app config.
func NewFromConfig(cfg config.Config, reg *metrics.Registry) (*DirLibrary, error) {
	status, err := ParseStatus(cfg.Library.Permission)
	if err != nil {
		return nil, err
	}
	return NewDirLibrary(cfg.Library.Dir, status, reg), nil
}

func (l *DirLibrary) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// RequestPermission grants access when the directory exists or can be
// created and denies it otherwise. A status that was already decided is
// returned unchanged.
func (l *DirLibrary) RequestPermission(ctx context.Context) Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status != StatusNotDetermined {
		return l.status
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("dir", l.dir).Msg("photo library directory unavailable")
		l.status = StatusDenied
	} else {
		l.status = StatusAuthorized
	}
	return l.status
}

func (l *DirLibrary) WriteImage(ctx context.Context, img image.Image) (string, error) {
	if !l.Status().CanWrite() {
		return "", ErrPermissionDenied
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("create library dir: %w", err)
	}

	id := uuid.NewString()
	path := l.Path(id)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		l.reg.Inc(ctx, "library_writes_total", metrics.Labels{"result": "error"}, 1)
		return "", fmt.Errorf("create asset: %w", err)
	}
	if err := imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		f.Close()
		os.Remove(tmp)
		l.reg.Inc(ctx, "library_writes_total", metrics.Labels{"result": "error"}, 1)
		return "", fmt.Errorf("encode asset: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		l.reg.Inc(ctx, "library_writes_total", metrics.Labels{"result": "error"}, 1)
		return "", fmt.Errorf("close asset: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		l.reg.Inc(ctx, "library_writes_total", metrics.Labels{"result": "error"}, 1)
		return "", fmt.Errorf("publish asset: %w", err)
	}

	log.Ctx(ctx).Info().Str("asset_id", id).Str("path", path).Msg("image saved to photo library")
	l.reg.Inc(ctx, "library_writes_total", metrics.Labels{"result": "ok"}, 1)
	return id, nil
}

// Path returns the file backing asset id.
func (l *DirLibrary) Path(id string) string {
	return filepath.Join(l.dir, id+".jpg")
}
