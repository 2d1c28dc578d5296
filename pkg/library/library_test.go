package library_test

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"vision_collage/pkg/library"
	"vision_collage/pkg/metrics"
)

func testImage() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, 12, 8))
}

func TestSaveRequestsPermissionAndWrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "photos")
	reg := metrics.NewRegistry()
	lib := library.NewDirLibrary(dir, library.StatusNotDetermined, reg)

	id, err := library.Save(context.Background(), lib, testImage())
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Equal(t, library.StatusAuthorized, lib.Status())

	img, err := imaging.Open(lib.Path(id))
	require.NoError(t, err)
	require.Equal(t, 12, img.Bounds().Dx())
	require.EqualValues(t, 1, reg.Value("library_writes_total", metrics.Labels{"result": "ok"}))
}

func TestSaveWithLimitedAccess(t *testing.T) {
	lib := library.NewDirLibrary(t.TempDir(), library.StatusLimited, nil)
	_, err := library.Save(context.Background(), lib, testImage())
	require.NoError(t, err)
}

func TestSaveRefusedWhenDeniedOrRestricted(t *testing.T) {
	for _, st := range []library.Status{library.StatusDenied, library.StatusRestricted} {
		dir := t.TempDir()
		lib := library.NewDirLibrary(dir, st, nil)

		_, err := library.Save(context.Background(), lib, testImage())
		require.ErrorIs(t, err, library.ErrPermissionDenied)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Empty(t, entries)
	}
}

func TestRequestPermissionDeniedWhenDirUnusable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	lib := library.NewDirLibrary(filepath.Join(blocker, "photos"), library.StatusNotDetermined, nil)
	require.Equal(t, library.StatusDenied, lib.RequestPermission(context.Background()))

	_, err := library.Save(context.Background(), lib, testImage())
	require.ErrorIs(t, err, library.ErrPermissionDenied)
}

type failingLibrary struct{}

func (failingLibrary) Status() library.Status { return library.StatusAuthorized }
func (failingLibrary) RequestPermission(context.Context) library.Status {
	return library.StatusAuthorized
}
func (failingLibrary) WriteImage(context.Context, image.Image) (string, error) {
	return "", errors.New("disk full")
}

func TestSaveReportsWriteFailure(t *testing.T) {
	_, err := library.Save(context.Background(), failingLibrary{}, testImage())
	require.ErrorContains(t, err, "disk full")
	require.NotErrorIs(t, err, library.ErrPermissionDenied)

	_, err = library.Save(context.Background(), failingLibrary{}, nil)
	require.Error(t, err)
}

func TestParseStatus(t *testing.T) {
	st, err := library.ParseStatus("Authorized")
	require.NoError(t, err)
	require.Equal(t, library.StatusAuthorized, st)

	st, err = library.ParseStatus("")
	require.NoError(t, err)
	require.Equal(t, library.StatusNotDetermined, st)

	_, err = library.ParseStatus("maybe")
	require.Error(t, err)
}
