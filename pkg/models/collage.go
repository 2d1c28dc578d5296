package models

import (
	"fmt"
	"strings"
)

// CollageMode selects the layout policy used to compose a collage.
type CollageMode string

const (
	// ModeGrid lays out up to 9 images in a 3x3 grid on a 1920x1080 canvas.
	ModeGrid CollageMode = "grid"
	// ModeWallpaper stacks every image as a horizontal strip on a 1080x1920 canvas.
	ModeWallpaper CollageMode = "wallpaper"
)

func ParseCollageMode(s string) (CollageMode, error) {
	switch CollageMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeGrid:
		return ModeGrid, nil
	case ModeWallpaper:
		return ModeWallpaper, nil
	default:
		return "", fmt.Errorf("unknown collage mode %q", s)
	}
}
