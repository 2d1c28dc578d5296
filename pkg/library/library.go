// Package library stores composed images as assets in a photo library that
// guards writes behind a permission status.
package library

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/rs/zerolog/log"
)

// Status is the library's write-permission state.
type Status string

const (
	StatusNotDetermined Status = "not_determined"
	StatusAuthorized    Status = "authorized"
	StatusLimited       Status = "limited"
	StatusDenied        Status = "denied"
	StatusRestricted    Status = "restricted"
)

var ErrPermissionDenied = errors.New("photo library access denied")

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusNotDetermined, StatusAuthorized, StatusLimited, StatusDenied, StatusRestricted:
		return st, nil
	case "":
		return StatusNotDetermined, nil
	default:
		return "", fmt.Errorf("unknown library permission %q", s)
	}
}

// CanWrite reports whether s allows creating assets.
func (s Status) CanWrite() bool {
	return s == StatusAuthorized || s == StatusLimited
}

// Library is a place composed images can be saved to.
type Library interface {
	Status() Status
	// RequestPermission asks for write access and returns the resulting status.
	RequestPermission(ctx context.Context) Status
	// WriteImage stores img as a new asset and returns its id.
	WriteImage(ctx context.Context, img image.Image) (string, error)
}

// Save writes img to lib, asking for permission first if it was never
// requested. It returns ErrPermissionDenied when access is denied or
// restricted.
func Save(ctx context.Context, lib Library, img image.Image) (string, error) {
	if img == nil {
		return "", errors.New("no image to save")
	}

	status := lib.Status()
	if status == StatusNotDetermined {
		status = lib.RequestPermission(ctx)
		log.Ctx(ctx).Info().Str("status", string(status)).Msg("photo library permission requested")
	}
	if !status.CanWrite() {
		log.Ctx(ctx).Warn().Str("status", string(status)).Msg("photo library write refused")
		return "", fmt.Errorf("%w: %s", ErrPermissionDenied, status)
	}

	id, err := lib.WriteImage(ctx, img)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("photo library write failed")
		return "", fmt.Errorf("save to photo library: %w", err)
	}
	return id, nil
}
