// Package collage composes several images into one according to a fixed
// layout policy.
package collage

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"vision_collage/pkg/models"
)

const (
	GridWidth   = 1920
	GridHeight  = 1080
	GridColumns = 3
	GridRows    = 3
	// GridMax is how many images a grid collage shows; extras are ignored.
	GridMax = GridColumns * GridRows

	WallpaperWidth  = 1080
	WallpaperHeight = 1920
)

var ErrNothingToCompose = errors.New("nothing to compose")

var background = color.NRGBA{A: 0xff}

// Compose lays images out according to mode on a fresh canvas.
func Compose(mode models.CollageMode, images []image.Image) (*image.NRGBA, error) {
	images = nonEmpty(images)
	if len(images) == 0 {
		return nil, ErrNothingToCompose
	}
	switch mode {
	case models.ModeGrid:
		return Grid(images), nil
	case models.ModeWallpaper:
		return Wallpaper(images), nil
	default:
		return nil, fmt.Errorf("unknown collage mode %q", mode)
	}
}

// Grid draws up to GridMax images row-major into equal cells of a
// GridWidth x GridHeight canvas, each letterboxed within its cell.
func Grid(images []image.Image) *image.NRGBA {
	canvas := imaging.New(GridWidth, GridHeight, background)
	if len(images) > GridMax {
		images = images[:GridMax]
	}
	cells := GridCells(len(images))
	for i, img := range images {
		fitInto(canvas, cells[i], img)
	}
	return canvas
}

// Wallpaper stacks every image as a full-width horizontal strip of a
// WallpaperWidth x WallpaperHeight canvas, each filled and centre-cropped.
func Wallpaper(images []image.Image) *image.NRGBA {
	canvas := imaging.New(WallpaperWidth, WallpaperHeight, background)
	for i, r := range Strips(len(images)) {
		if r.Empty() {
			continue
		}
		filled := imaging.Fill(images[i], r.Dx(), r.Dy(), imaging.Center, imaging.Lanczos)
		draw.Draw(canvas, r, filled, filled.Bounds().Min, draw.Over)
	}
	return canvas
}

// GridCells returns the cell rectangles used for n images, row-major.
func GridCells(n int) []image.Rectangle {
	n = min(max(n, 0), GridMax)
	cw, ch := GridWidth/GridColumns, GridHeight/GridRows
	cells := make([]image.Rectangle, n)
	for i := range cells {
		x, y := (i%GridColumns)*cw, (i/GridColumns)*ch
		cells[i] = image.Rect(x, y, x+cw, y+ch)
	}
	return cells
}

// Strips returns n horizontal strips covering the wallpaper canvas top to
// bottom. Heights differ by at most one pixel when n does not divide it.
func Strips(n int) []image.Rectangle {
	if n <= 0 {
		return nil
	}
	strips := make([]image.Rectangle, n)
	for i := range strips {
		y0 := i * WallpaperHeight / n
		y1 := (i + 1) * WallpaperHeight / n
		strips[i] = image.Rect(0, y0, WallpaperWidth, y1)
	}
	return strips
}

// fitInto scales img to the largest size that fits cell while keeping its
// aspect ratio and composites it centred over dst.
func fitInto(dst draw.Image, cell image.Rectangle, img image.Image) {
	w, h := fitSize(img.Bounds().Dx(), img.Bounds().Dy(), cell.Dx(), cell.Dy())
	at := cell.Min.Add(image.Pt((cell.Dx()-w)/2, (cell.Dy()-h)/2))
	draw.CatmullRom.Scale(dst, image.Rectangle{Min: at, Max: at.Add(image.Pt(w, h))}, img, img.Bounds(), draw.Over, nil)
}

func fitSize(srcW, srcH, boxW, boxH int) (int, int) {
	// compare srcW/srcH against boxW/boxH without floats
	if srcW*boxH >= srcH*boxW {
		return boxW, max(1, (srcH*boxW+srcW/2)/srcW)
	}
	return max(1, (srcW*boxH+srcH/2)/srcH), boxH
}

func nonEmpty(images []image.Image) []image.Image {
	out := make([]image.Image, 0, len(images))
	for _, img := range images {
		if img != nil && !img.Bounds().Empty() {
			out = append(out, img)
		}
	}
	return out
}
