package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"vision_collage/pkg/api"
	"vision_collage/pkg/library"
	"vision_collage/pkg/loader"
	"vision_collage/pkg/metrics"
	"vision_collage/pkg/models"
	imagerepo "vision_collage/pkg/repository/image"
	"vision_collage/pkg/store"
)

type stubSource struct{}

func (stubSource) List(ctx context.Context, page, limit int) (models.ImageInfoList, error) {
	out := make(models.ImageInfoList, 0, limit)
	for i := 0; i < limit; i++ {
		id := fmt.Sprintf("%d-%d", page, i)
		out = append(out, models.ImageInfo{ID: id, DownloadURL: "http://img/" + id})
	}
	return out, nil
}

func (stubSource) Download(ctx context.Context, url string) (image.Image, error) {
	return image.NewNRGBA(image.Rect(0, 0, 16, 9)), nil
}

func newServer(t *testing.T, permission library.Status, maxSelection int) *echo.Echo {
	t.Helper()
	reg := metrics.NewRegistry()
	cache, err := imagerepo.NewMemoryCache(16, reg)
	require.NoError(t, err)
	lib := library.NewDirLibrary(t.TempDir(), permission, reg)
	st := store.New(loader.New(stubSource{}, cache, reg), lib, reg, store.Options{
		PageLimit:    3,
		MaxSelection: maxSelection,
		RandomPage:   func() int { return 1 },
	})

	e := echo.New()
	api.NewHandlers(st).Register(e, reg)
	return e
}

func do(t *testing.T, e *echo.Echo, method, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

type errorBody struct {
	Error string `json:"error"`
}

func TestCollageFlow(t *testing.T) {
	e := newServer(t, library.StatusNotDetermined, 10)

	var state struct {
		Images     models.ImageInfoList `json:"images"`
		Selected   []string             `json:"selected"`
		HasCollage bool                 `json:"has_collage"`
	}
	rec := do(t, e, http.MethodGet, "/api/v1/state", &state)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, state.Images)
	require.Empty(t, state.Selected)

	var batch struct {
		Images models.ImageInfoList `json:"images"`
		Page   int                  `json:"page"`
	}
	rec = do(t, e, http.MethodPost, "/api/v1/images/batch", &batch)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"1-0", "1-1", "1-2"}, batch.Images.IDs())
	require.Equal(t, 1, batch.Page)

	rec = do(t, e, http.MethodPost, "/api/v1/images/more", &batch)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"2-0", "2-1", "2-2"}, batch.Images.IDs())

	var eb errorBody
	rec = do(t, e, http.MethodPost, "/api/v1/collage", &eb)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var sel struct {
		Selected bool     `json:"selected"`
		All      []string `json:"all"`
	}
	rec = do(t, e, http.MethodPost, "/api/v1/selection/1-1", &sel)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, sel.Selected)
	do(t, e, http.MethodPost, "/api/v1/selection/2-0", &sel)
	require.Equal(t, []string{"1-1", "2-0"}, sel.All)

	rec = do(t, e, http.MethodGet, "/api/v1/collage", &eb)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var made struct {
		Mode   string `json:"mode"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}
	rec = do(t, e, http.MethodPost, "/api/v1/collage?mode=wallpaper", &made)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "wallpaper", made.Mode)
	require.Equal(t, 1080, made.Width)
	require.Equal(t, 1920, made.Height)

	rec = do(t, e, http.MethodGet, "/api/v1/collage?format=png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	cfg, err := png.DecodeConfig(rec.Body)
	require.NoError(t, err)
	require.Equal(t, 1080, cfg.Width)

	var saved struct {
		AssetID string `json:"asset_id"`
	}
	rec = do(t, e, http.MethodPost, "/api/v1/collage/save", &saved)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, saved.AssetID)

	rec = do(t, e, http.MethodDelete, "/api/v1/collage", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, e, http.MethodPost, "/api/v1/collage/save", &eb)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, e, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "collages_generated_total{mode=wallpaper} 1")
}

func TestSelectionErrors(t *testing.T) {
	e := newServer(t, library.StatusAuthorized, 1)
	do(t, e, http.MethodPost, "/api/v1/images/batch", nil)

	var eb errorBody
	rec := do(t, e, http.MethodPost, "/api/v1/selection/unknown", &eb)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, e, http.MethodPost, "/api/v1/selection/1-0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, e, http.MethodPost, "/api/v1/selection/1-1", &eb)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, eb.Error, "full")
}

func TestBadRequests(t *testing.T) {
	e := newServer(t, library.StatusAuthorized, 10)

	var eb errorBody
	rec := do(t, e, http.MethodPost, "/api/v1/collage?mode=mosaic", &eb)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/v1/collage?format=bmp", &eb)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveDenied(t *testing.T) {
	e := newServer(t, library.StatusDenied, 10)
	do(t, e, http.MethodPost, "/api/v1/images/batch", nil)
	do(t, e, http.MethodPost, "/api/v1/selection/1-0", nil)
	rec := do(t, e, http.MethodPost, "/api/v1/collage", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var eb errorBody
	rec = do(t, e, http.MethodPost, "/api/v1/collage/save", &eb)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, eb.Error, "denied")
}
