package instance

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJarMeta(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name    string
		entries map[string]string
		want    JarMeta
	}{
		{
			name: "forge",
			entries: map[string]string{"META-INF/mods.toml": `
modLoader="javafml"
[[mods]]
modId="examplemod"
version="${file.jarVersion}"
displayName="Example Mod"
description='''
Does things.
'''`},
			want: JarMeta{ID: "examplemod", Name: "Example Mod", Description: "Does things."},
		},
		{
			name:    "quilt",
			entries: map[string]string{"quilt.mod.json": `{"quilt_loader": {"id": "q", "version": "1.0", "metadata": {"name": "Quilted"}}}`},
			want:    JarMeta{ID: "q", Name: "Quilted", Version: "1.0"},
		},
		{
			name:    "mcmod.info list",
			entries: map[string]string{"mcmod.info": `[{"modid": "old", "name": "Old Mod", "version": "1.7.10-1"}]`},
			want:    JarMeta{ID: "old", Name: "Old Mod", Version: "1.7.10-1"},
		},
		{
			name:    "mcmod.info v2",
			entries: map[string]string{"mcmod.info": `{"modListVersion": 2, "modList": [{"modid": "new", "name": "Newer Mod"}]}`},
			want:    JarMeta{ID: "new", Name: "Newer Mod"},
		},
		{
			name:    "plugin",
			entries: map[string]string{"plugin.yml": "name: WorldEdit\nversion: 7.2.0\nmain: com.sk89q.Main\n"},
			want:    JarMeta{ID: "WorldEdit", Name: "WorldEdit", Version: "7.2.0"},
		},
		{
			name: "broken fabric falls through",
			entries: map[string]string{
				"fabric.mod.json": "{not json",
				"plugin.yml":      "name: Fallback\n",
			},
			want: JarMeta{ID: "Fallback", Name: "Fallback"},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(dir, c.name+".jar")
			writeZip(t, path, c.entries)
			meta, err := ReadJarMeta(path)
			require.NoError(t, err)
			assert.Equal(t, c.want, meta)
		})
	}

	path := filepath.Join(dir, "empty.jar")
	writeZip(t, path, map[string]string{"a.class": ""})
	_, err := ReadJarMeta(path)
	assert.ErrorIs(t, err, ErrNoJarMeta)
}
