package core

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadPoolRunsEverything(t *testing.T) {
	httpmock.Activate(t)
	dir := useDataDir(t)

	pool := NewDownloadPool()
	for i := 0; i < 10; i++ {
		content := []byte(fmt.Sprintf("file %d", i))
		url := fmt.Sprintf("https://example.com/%d.jar", i)
		httpmock.RegisterResponder("GET", url, httpmock.NewBytesResponder(200, content))
		pool.Add(&Downloadable{URL: url, Path: filepath.Join(dir, fmt.Sprintf("%d.jar", i)), Hash: sha1Hex(content), Size: int64(len(content))})
	}
	assert.Equal(t, 10, pool.Len())
	assert.Equal(t, int64(60), pool.TotalSize())

	completed := 0
	for dl := range pool.StartDownloads(context.Background(), 3) {
		require.NoError(t, dl.Error)
		assert.FileExists(t, dl.Download.Path)
		completed++
	}
	assert.Equal(t, 10, completed)
}

func TestDownloadPoolStopsOnFailure(t *testing.T) {
	httpmock.Activate(t)
	dir := useDataDir(t)
	httpmock.RegisterResponder("GET", "https://example.com/broken.jar", httpmock.NewStringResponder(404, "not found"))

	pool := NewDownloadPool(&Downloadable{URL: "https://example.com/broken.jar", Path: filepath.Join(dir, "broken.jar"), Hash: "-"})
	err := pool.Run(context.Background(), 2)
	require.ErrorIs(t, err, ErrAllMirrorsFailed)
	assert.ErrorContains(t, err, "404")
}
