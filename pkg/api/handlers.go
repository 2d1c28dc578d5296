package api

import (
	"bytes"
	"context"
	"errors"
	"image"
	"net/http"

	"github.com/labstack/echo/v4"

	"vision_collage/pkg/collage"
	"vision_collage/pkg/library"
	"vision_collage/pkg/metrics"
	"vision_collage/pkg/models"
	"vision_collage/pkg/selection"
	"vision_collage/pkg/store"
)

// Store is the command side of the application state. *store.Store
// implements it.
type Store interface {
	Snapshot() store.State
	LoadNewBatch(ctx context.Context) models.ImageInfoList
	LoadMore(ctx context.Context) models.ImageInfoList
	ToggleSelection(ctx context.Context, id string) (bool, error)
	GenerateCollage(ctx context.Context, mode models.CollageMode) (image.Image, error)
	DiscardCollage()
	SaveToLibrary(ctx context.Context) (string, error)
}

// Handlers serves the HTTP command surface.
type Handlers struct {
	store Store
}

// NewHandlers constructs Handlers over the given store.
func NewHandlers(s Store) *Handlers {
	return &Handlers{store: s}
}

// Register mounts all routes on e.
func (h *Handlers) Register(e *echo.Echo, reg *metrics.Registry) {
	v1 := e.Group("/api/v1")
	v1.GET("/state", h.State)
	v1.POST("/images/batch", h.LoadNewBatch)
	v1.POST("/images/more", h.LoadMore)
	v1.POST("/selection/:id", h.ToggleSelection)
	v1.POST("/collage", h.GenerateCollage)
	v1.GET("/collage", h.GetCollage)
	v1.DELETE("/collage", h.DiscardCollage)
	v1.POST("/collage/save", h.SaveCollage)

	e.GET("/metrics", reg.EchoHandlerText)
	e.GET("/metrics.json", reg.EchoHandlerJSON)
}

type errorResponse struct {
	Error string `json:"error"`
}

type stateResponse struct {
	Images     models.ImageInfoList `json:"images"`
	Selected   []string             `json:"selected"`
	HasCollage bool                 `json:"has_collage"`
	Page       int                  `json:"page"`
}

type batchResponse struct {
	Images models.ImageInfoList `json:"images"`
	Page   int                  `json:"page"`
}

type selectionResponse struct {
	ID       string   `json:"id"`
	Selected bool     `json:"selected"`
	All      []string `json:"all"`
}

type collageResponse struct {
	Mode   models.CollageMode `json:"mode"`
	Width  int                `json:"width"`
	Height int                `json:"height"`
}

type saveResponse struct {
	AssetID string `json:"asset_id"`
}

func fail(c echo.Context, status int, err error) error {
	return c.JSON(status, errorResponse{Error: err.Error()})
}

// State handles GET /api/v1/state
func (h *Handlers) State(c echo.Context) error {
	st := h.store.Snapshot()
	return c.JSON(http.StatusOK, stateResponse{
		Images:     st.Images,
		Selected:   st.Selected,
		HasCollage: st.Collage != nil,
		Page:       st.Page,
	})
}

// LoadNewBatch handles POST /api/v1/images/batch
func (h *Handlers) LoadNewBatch(c echo.Context) error {
	list := h.store.LoadNewBatch(c.Request().Context())
	return c.JSON(http.StatusOK, batchResponse{Images: nonNil(list), Page: h.store.Snapshot().Page})
}

// LoadMore handles POST /api/v1/images/more
func (h *Handlers) LoadMore(c echo.Context) error {
	list := h.store.LoadMore(c.Request().Context())
	return c.JSON(http.StatusOK, batchResponse{Images: nonNil(list), Page: h.store.Snapshot().Page})
}

// ToggleSelection handles POST /api/v1/selection/:id
func (h *Handlers) ToggleSelection(c echo.Context) error {
	id := c.Param("id")
	selected, err := h.store.ToggleSelection(c.Request().Context(), id)
	switch {
	case errors.Is(err, store.ErrUnknownImage):
		return fail(c, http.StatusNotFound, err)
	case errors.Is(err, selection.ErrSelectionFull):
		return fail(c, http.StatusConflict, err)
	case err != nil:
		return err
	}
	return c.JSON(http.StatusOK, selectionResponse{ID: id, Selected: selected, All: h.store.Snapshot().Selected})
}

// GenerateCollage handles POST /api/v1/collage?mode=grid|wallpaper
func (h *Handlers) GenerateCollage(c echo.Context) error {
	mode := models.ModeGrid
	if q := c.QueryParam("mode"); q != "" {
		m, err := models.ParseCollageMode(q)
		if err != nil {
			return fail(c, http.StatusBadRequest, err)
		}
		mode = m
	}

	img, err := h.store.GenerateCollage(c.Request().Context(), mode)
	switch {
	case errors.Is(err, collage.ErrNothingToCompose):
		return fail(c, http.StatusUnprocessableEntity, err)
	case err != nil:
		return err
	}
	b := img.Bounds()
	return c.JSON(http.StatusCreated, collageResponse{Mode: mode, Width: b.Dx(), Height: b.Dy()})
}

// GetCollage handles GET /api/v1/collage?format=png|jpeg
func (h *Handlers) GetCollage(c echo.Context) error {
	format, err := collage.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	img := h.store.Snapshot().Collage
	if img == nil {
		return fail(c, http.StatusNotFound, store.ErrNoCollage)
	}

	var buf bytes.Buffer
	if err := collage.Encode(&buf, img, format); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}

// DiscardCollage handles DELETE /api/v1/collage
func (h *Handlers) DiscardCollage(c echo.Context) error {
	h.store.DiscardCollage()
	return c.NoContent(http.StatusNoContent)
}

// SaveCollage handles POST /api/v1/collage/save
func (h *Handlers) SaveCollage(c echo.Context) error {
	id, err := h.store.SaveToLibrary(c.Request().Context())
	switch {
	case errors.Is(err, store.ErrNoCollage):
		return fail(c, http.StatusNotFound, err)
	case errors.Is(err, library.ErrPermissionDenied):
		return fail(c, http.StatusForbidden, err)
	case err != nil:
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusCreated, saveResponse{AssetID: id})
}

func nonNil(l models.ImageInfoList) models.ImageInfoList {
	if l == nil {
		return models.ImageInfoList{}
	}
	return l
}
