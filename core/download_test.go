package core

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func useDataDir(t *testing.T) string {
	dir := t.TempDir()
	viper.Set("data-dir", dir)
	t.Cleanup(func() {
		viper.Set("data-dir", "")
	})
	return dir
}

func sha1Hex(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

func md5Hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// flakyResponder serves bad content for the first failures calls, then good
func flakyResponder(failures int, good []byte) httpmock.Responder {
	calls := 0
	return func(req *http.Request) (*http.Response, error) {
		calls++
		if calls <= failures {
			return httpmock.NewBytesResponse(200, []byte("corrupted")), nil
		}
		return httpmock.NewBytesResponse(200, good), nil
	}
}

func TestDownloadVerifiesAndSkipsExisting(t *testing.T) {
	httpmock.Activate(t)
	dir := useDataDir(t)
	content := []byte("mod contents")
	httpmock.RegisterResponder("GET", "https://example.com/mod.jar", httpmock.NewBytesResponder(200, content))

	d := &Downloadable{URL: "https://example.com/mod.jar", Path: filepath.Join(dir, "mods", "mod.jar"), Hash: sha1Hex(content)}
	require.NoError(t, d.Download(context.Background()))

	data, err := os.ReadFile(d.Path)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	// Already verified, so no second request
	require.NoError(t, d.Download(context.Background()))
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestDownloadMD5ChosenByLength(t *testing.T) {
	httpmock.Activate(t)
	dir := useDataDir(t)
	content := []byte("texture pack")
	httpmock.RegisterResponder("GET", "https://example.com/tp.zip", httpmock.NewBytesResponder(200, content))

	d := &Downloadable{URL: "https://example.com/tp.zip", Path: filepath.Join(dir, "tp.zip"), Hash: md5Hex(content)}
	require.NoError(t, d.Download(context.Background()))
	assert.Equal(t, "md5", d.hashType())
}

func TestDownloadRetriesUntilVerified(t *testing.T) {
	httpmock.Activate(t)
	dir := useDataDir(t)
	content := []byte("eventually right")
	httpmock.RegisterResponder("GET", "https://example.com/retry.jar", flakyResponder(2, content))

	d := &Downloadable{URL: "https://example.com/retry.jar", Path: filepath.Join(dir, "retry.jar"), Hash: sha1Hex(content)}
	require.NoError(t, d.Download(context.Background()))
	assert.Equal(t, 3, httpmock.GetTotalCallCount())
}

func TestDownloadFailsOverToNextServer(t *testing.T) {
	httpmock.Activate(t)
	dir := useDataDir(t)
	content := []byte("from the mirror")
	httpmock.RegisterResponder("GET", "https://one.example.com/mods/x.jar", httpmock.NewBytesResponder(200, []byte("bad")))
	httpmock.RegisterResponder("GET", "https://two.example.com/mods/x.jar", httpmock.NewBytesResponder(200, content))

	d := &Downloadable{
		URL:        "mods/x.jar",
		FromServer: true,
		Servers:    []Server{{Name: "One", URL: "https://one.example.com"}, {Name: "Two", URL: "https://two.example.com/"}},
		Path:       filepath.Join(dir, "x.jar"),
		Hash:       sha1Hex(content),
	}
	require.NoError(t, d.Download(context.Background()))

	info := httpmock.GetCallCountInfo()
	assert.Equal(t, MaxAttempts, info["GET https://one.example.com/mods/x.jar"])
	assert.Equal(t, 1, info["GET https://two.example.com/mods/x.jar"])
}

func TestDownloadFailureRestoresBackup(t *testing.T) {
	httpmock.Activate(t)
	dir := useDataDir(t)
	httpmock.RegisterResponder("GET", "https://example.com/config.zip", httpmock.NewBytesResponder(200, []byte("bad")))

	path := filepath.Join(dir, "config.zip")
	require.NoError(t, os.WriteFile(path, []byte("old but good"), 0644))

	d := &Downloadable{URL: "https://example.com/config.zip", Path: path, Hash: sha1Hex([]byte("new"))}
	err := d.Download(context.Background())
	require.ErrorIs(t, err, ErrAllMirrorsFailed)
	require.ErrorIs(t, err, ErrHashMismatch)
	assert.Equal(t, MaxAttempts, httpmock.GetTotalCallCount())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old but good", string(data))
	assert.NoFileExists(t, path+".bak")
	assert.FileExists(t, filepath.Join(dir, "failed-downloads", "config.zip"))
}

func TestDownloadDecodesGzip(t *testing.T) {
	httpmock.Activate(t)
	dir := useDataDir(t)
	content := []byte(`{"libraries":[]}`)
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(content)
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	httpmock.RegisterResponder("GET", "https://example.com/version.json", func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "gzip", req.Header.Get("Accept-Encoding"))
		resp := httpmock.NewBytesResponse(200, buf.Bytes())
		resp.Header.Set("Content-Encoding", "gzip")
		return resp, nil
	})

	d := &Downloadable{URL: "https://example.com/version.json", Path: filepath.Join(dir, "version.json"), Hash: sha1Hex(content)}
	require.NoError(t, d.Download(context.Background()))
	data, err := os.ReadFile(d.Path)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestDownloadUsesETagAsMD5(t *testing.T) {
	httpmock.Activate(t)
	dir := useDataDir(t)
	content := []byte("etag verified")
	httpmock.RegisterResponder("GET", "https://example.com/good.bin", func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewBytesResponse(200, content)
		resp.Header.Set("ETag", `"`+md5Hex(content)+`"`)
		return resp, nil
	})
	httpmock.RegisterResponder("GET", "https://example.com/bad.bin", func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewBytesResponse(200, content)
		resp.Header.Set("ETag", `"`+md5Hex([]byte("something else"))+`"`)
		return resp, nil
	})

	good := &Downloadable{URL: "https://example.com/good.bin", Path: filepath.Join(dir, "good.bin")}
	require.NoError(t, good.Download(context.Background()))

	bad := &Downloadable{URL: "https://example.com/bad.bin", Path: filepath.Join(dir, "bad.bin")}
	require.ErrorIs(t, bad.Download(context.Background()), ErrHashMismatch)
	assert.NoFileExists(t, bad.Path)
}

func TestDownloadSkipsWhenSizeMatches(t *testing.T) {
	httpmock.Activate(t)
	dir := useDataDir(t)
	path := filepath.Join(dir, "asset")
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0644))

	d := &Downloadable{URL: "https://example.com/asset", Path: path, Size: 5}
	require.NoError(t, d.Download(context.Background()))
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestDownloadRevalidatesWithETag(t *testing.T) {
	httpmock.Activate(t)
	dir := useDataDir(t)
	content := []byte("launcher json")
	const etag = `"v1-abc"`
	httpmock.RegisterResponder("GET", "https://example.com/packs.json", func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("If-None-Match") == etag {
			return httpmock.NewBytesResponse(http.StatusNotModified, nil), nil
		}
		resp := httpmock.NewBytesResponse(200, content)
		resp.Header.Set("ETag", etag)
		return resp, nil
	})

	d := &Downloadable{URL: "https://example.com/packs.json", Path: filepath.Join(dir, "packs.json"), TrackETag: true}
	require.NoError(t, d.Download(context.Background()))
	assert.FileExists(t, d.Path+".hash")

	require.NoError(t, d.Download(context.Background()))
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
	data, err := os.ReadFile(d.Path)
	require.NoError(t, err)
	assert.Equal(t, content, data)
	assert.NoFileExists(t, d.Path+".bak")
}

func TestDownloadCopiesToSecondLocation(t *testing.T) {
	httpmock.Activate(t)
	dir := useDataDir(t)
	content := []byte("library")
	httpmock.RegisterResponder("GET", "https://example.com/lib.jar", httpmock.NewBytesResponder(200, content))

	d := &Downloadable{
		URL:    "https://example.com/lib.jar",
		Path:   filepath.Join(dir, "libraries", "lib.jar"),
		Hash:   sha1Hex(content),
		CopyTo: filepath.Join(dir, "instance", "bin", "lib.jar"),
	}
	require.NoError(t, d.Download(context.Background()))
	data, err := os.ReadFile(d.CopyTo)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestDownloadHonoursCancellation(t *testing.T) {
	httpmock.Activate(t)
	dir := useDataDir(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &Downloadable{URL: "https://example.com/never", Path: filepath.Join(dir, "never"), Hash: "-"}
	require.ErrorIs(t, d.Download(ctx), context.Canceled)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}
