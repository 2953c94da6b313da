package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "assets", "lang"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "assets", "lang", "en_US.lang"), []byte("item.name=Thing"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "mod.info"), []byte("{}"), 0644))

	archive := filepath.Join(dir, "out.zip")
	require.NoError(t, ZipDir(src, archive))

	out := filepath.Join(dir, "out")
	require.NoError(t, Unzip(archive, out))
	data, err := os.ReadFile(filepath.Join(out, "assets", "lang", "en_US.lang"))
	require.NoError(t, err)
	assert.Equal(t, "item.name=Thing", string(data))
	assert.FileExists(t, filepath.Join(out, "mod.info"))
}

func TestRewriteZipDropsEntries(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "minecraft.jar")
	require.NoError(t, os.WriteFile(jar, buildJar(t, map[string]string{
		"META-INF/MANIFEST.MF": "Manifest-Version: 1.0",
		"META-INF/MOJANG_C.SF": "sig",
		"net/minecraft/A.class": "a",
	}), 0644))

	require.NoError(t, RewriteZip(jar, func(name string) bool {
		return len(name) >= 9 && name[:9] == "META-INF/"
	}, map[string][]byte{"extra.txt": []byte("added")}))

	_, err := ReadZipEntry(jar, "META-INF/MANIFEST.MF")
	assert.ErrorIs(t, err, os.ErrNotExist)
	data, err := ReadZipEntry(jar, "extra.txt")
	require.NoError(t, err)
	assert.Equal(t, "added", string(data))
	assert.NoFileExists(t, jar+".tmp")
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "instance.json")
	require.NoError(t, WriteFileAtomic(path, []byte("one")))
	require.NoError(t, WriteFileAtomic(path, []byte("two")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
