package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoot() *cobra.Command {
	root := &cobra.Command{Use: "packlaunch"}
	child := &cobra.Command{Use: "launch", Short: "Launch an instance", Run: func(*cobra.Command, []string) {}}
	root.AddCommand(child)
	return root
}

func TestGenerateMarkdown(t *testing.T) {
	dir := t.TempDir()
	n, err := generateMarkdown(testRoot(), dir, "/docs/")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(filepath.Join(dir, "packlaunch.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "(/docs/packlaunch_launch.md)")
	assert.NotContains(t, string(data), "Auto generated")
}

func TestAddSourceLine(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "home", ".bashrc")

	added, err := addSourceLine(profile, ". /data/completion.sh", "\n")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = addSourceLine(profile, ". /data/completion.sh", "\n")
	require.NoError(t, err)
	assert.False(t, added)

	data, err := os.ReadFile(profile)
	require.NoError(t, err)
	assert.Equal(t, "\n. /data/completion.sh\n", string(data))
}

func TestShellsGenerate(t *testing.T) {
	for name, sh := range shells {
		var buf bytes.Buffer
		require.NoError(t, sh.generate(testRoot(), &buf), name)
		assert.Contains(t, buf.String(), "packlaunch", name)
	}
}
