package batch

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/qrforge/internal/qr/qrtest"
)

// readArchive returns the entries of the zip at path keyed by name, plus
// their order.
func readArchive(t *testing.T, path string) (map[string][]byte, []string) {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	files := make(map[string][]byte)
	var order []string
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		files[f.Name] = data
		order = append(order, f.Name)
		assert.Equal(t, zip.Deflate, f.Method)
	}
	return files, order
}

func TestPackage_WithoutValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.zip")
	home := qrtest.PNG(t, "https://example.com")
	plain := qrtest.PNG(t, "hello")

	items := []Item{
		{Row: 1, Content: "https://example.com", Label: "Home", ImageData: qrtest.DataURL(t, "https://example.com")},
		{Row: 2, Content: "hello", ImageData: qrtest.Base64(t, "hello")},
	}

	res, err := Package(items, false, FileDestination{Path: path})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.False(t, res.Cancelled)
	assert.Equal(t, path, res.ZipPath)
	assert.Empty(t, res.ValidationResults)
	assert.Equal(t, []string{"001_Home.png", "002_qr.png"}, res.Entries)

	files, order := readArchive(t, path)
	assert.Equal(t, []string{"001_Home.png", "002_qr.png"}, order)
	assert.Equal(t, home, files["001_Home.png"])
	assert.Equal(t, plain, files["002_qr.png"])
}

func TestPackage_WithValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.zip")
	items := []Item{
		{Row: 1, Content: "alpha", ImageData: qrtest.Base64(t, "alpha")},
		{Row: 4, Content: "expected", ImageData: qrtest.Base64(t, "other")},
		{Row: 5, Content: "blank", Label: "b", ImageData: qrtest.BlankDataURL(t)},
	}

	res, err := Package(items, true, FileDestination{Path: path})
	require.NoError(t, err)
	assert.True(t, res.Success)

	require.Len(t, res.ValidationResults, 3)
	assert.True(t, res.ValidationResults[0].Success)
	assert.Equal(t, MsgContentMismatch, res.ValidationResults[1].Error)
	assert.Equal(t, 4, res.ValidationResults[1].Row)
	assert.Equal(t, MsgNoQRCode, res.ValidationResults[2].Error)

	// Items that fail validation are still archived.
	files, _ := readArchive(t, path)
	assert.Len(t, files, 3)
	assert.Contains(t, files, "005_b.png")
}

func TestPackage_BadPayloadLeavesNoArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codes.zip")
	items := []Item{
		{Row: 1, Content: "ok", ImageData: qrtest.Base64(t, "ok")},
		{Row: 2, Content: "bad", ImageData: "@@not-base64@@"},
	}

	res, err := Package(items, false, FileDestination{Path: path})
	assert.Nil(t, res)

	var ie *ItemError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 2, ie.Row)
	assert.Contains(t, err.Error(), "row 2")

	assert.NoFileExists(t, path)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must be removed")
}

func TestPackage_KeepsExistingFileOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.zip")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	items := []Item{{Row: 1, Content: "bad", ImageData: "!!"}}
	_, err := Package(items, false, FileDestination{Path: path, Confirm: func(string) bool { return true }})
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestPackage_DuplicateEntryName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.zip")
	img := qrtest.Base64(t, "x")
	items := []Item{
		{Row: 3, Content: "x", ImageData: img},
		{Row: 3, Content: "x", ImageData: img},
	}

	_, err := Package(items, false, FileDestination{Path: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "003_qr.png")
	assert.NoFileExists(t, path)
}

func TestPackage_Cancelled(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "codes.zip")
	require.NoError(t, os.WriteFile(existing, []byte("keep"), 0o644))

	items := []Item{{Row: 1, Content: "x", ImageData: qrtest.Base64(t, "x")}}

	tests := []struct {
		name string
		dest Destination
	}{
		{name: "empty path", dest: FileDestination{Path: "  "}},
		{name: "overwrite declined", dest: FileDestination{Path: existing, Confirm: func(string) bool { return false }}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Package(items, true, tt.dest)
			require.NoError(t, err)
			assert.True(t, res.Cancelled)
			assert.False(t, res.Success)
			assert.Empty(t, res.Error)
			assert.Empty(t, res.ZipPath)
			assert.Empty(t, res.ValidationResults)
		})
	}

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestPackage_EmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.zip")
	res, err := Package(nil, true, FileDestination{Path: path})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Entries)

	files, _ := readArchive(t, path)
	assert.Empty(t, files)
}

func TestPackager_Options(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.zip")
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	var seen []string
	p := Packager{
		Level: 9,
		Now:   func() time.Time { return stamp },
		OnEntry: func(name string, size int) {
			assert.Positive(t, size)
			seen = append(seen, name)
		},
	}

	items := []Item{
		{Row: 1, Content: "a", Label: "first", ImageData: qrtest.Base64(t, "a")},
		{Row: 2, Content: "b", Label: "second", ImageData: qrtest.Base64(t, "b")},
	}
	res, err := p.Package(items, false, DirDestination{Dir: filepath.Dir(path), Name: filepath.Base(path)})
	require.NoError(t, err)
	assert.Equal(t, res.Entries, seen)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	for _, f := range zr.File {
		assert.True(t, f.Modified.Equal(stamp), "entry %s modified %v", f.Name, f.Modified)
	}
}

func TestPackager_FixedClockIsReproducible(t *testing.T) {
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := Packager{Now: func() time.Time { return stamp }}
	items := []Item{
		{Row: 1, Content: "a", Label: "first", ImageData: qrtest.Base64(t, "a")},
		{Row: 2, Content: "b", ImageData: qrtest.Base64(t, "b")},
	}

	dir := t.TempDir()
	var archives [][]byte
	for _, name := range []string{"one.zip", "two.zip"} {
		_, err := p.Package(items, false, FileDestination{Path: filepath.Join(dir, name)})
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		archives = append(archives, data)
	}
	assert.Equal(t, archives[0], archives[1])
}
