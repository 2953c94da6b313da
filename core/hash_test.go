package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashTypeFor(t *testing.T) {
	assert.Equal(t, "sha1", HashTypeFor("da39a3ee5e6b4b0d3255bfef95601890afd80709"))
	assert.Equal(t, "md5", HashTypeFor("d41d8cd98f00b204e9800998ecf8427e"))
	assert.Equal(t, "md5", HashTypeFor(""))
	assert.Equal(t, "md5", HashTypeFor("abc"))
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	sum, err := HashFile(path, "sha1")
	require.NoError(t, err)
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", sum)

	sum, err = HashFile(path, "MD5")
	require.NoError(t, err)
	assert.True(t, HashMatches(sum, "D41D8CD98F00B204E9800998ECF8427E"))

	_, err = HashFile(path, "crc32")
	assert.Error(t, err)
}

func TestMurmur2IgnoresWhitespace(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	require.NoError(t, os.WriteFile(a, []byte("hello world"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("hello\r\n\tworld"), 0644))

	sumA, err := HashFile(a, "murmur2")
	require.NoError(t, err)
	sumB, err := HashFile(b, "murmur2")
	require.NoError(t, err)
	assert.Equal(t, sumA, sumB)
	assert.NotContains(t, sumA, "-")
}

func TestCleanPackURL(t *testing.T) {
	assert.Equal(t, "https://example.com/get?a=1&b=My%20Mod.jar", CleanPackURL("https://example.com/get?a=1&amp;b=My Mod.jar"))
	assert.Equal(t, "My Mod.jar", FileNameFromURL("https://example.com/files/My%20Mod.jar?x=1"))
}
