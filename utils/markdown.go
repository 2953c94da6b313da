package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
	"github.com/spf13/viper"
)

// markdownCmd represents the markdown command
var markdownCmd = &cobra.Command{
	Use:     "markdown",
	Short:   "Generate markdown documentation for every packlaunch command",
	Aliases: []string{"md"},
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		outDir := viper.GetString("utils.markdown.dir")
		n, err := generateMarkdown(cmd.Root(), outDir, viper.GetString("utils.markdown.link-prefix"))
		if err != nil {
			fmt.Printf("Error generating markdown: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated markdown for %d commands in %s\n", n, outDir)
	},
}

// generateMarkdown writes a page per command into outDir and returns how many pages were written. Links between
// pages are prefixed with linkPrefix, for docs served from a subpath.
func generateMarkdown(root *cobra.Command, outDir string, linkPrefix string) (int, error) {
	if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return 0, err
	}
	// The date stamp would change every page on each run
	root.DisableAutoGenTag = true
	linkHandler := func(name string) string {
		return linkPrefix + name
	}
	if err := doc.GenMarkdownTreeCustom(root, outDir, func(string) string { return "" }, linkHandler); err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), root.Name()) && filepath.Ext(e.Name()) == ".md" {
			n++
		}
	}
	return n, nil
}

func init() {
	utilsCmd.AddCommand(markdownCmd)

	markdownCmd.Flags().String("dir", ".", "The destination directory to save docs in")
	_ = viper.BindPFlag("utils.markdown.dir", markdownCmd.Flags().Lookup("dir"))
	markdownCmd.Flags().String("link-prefix", "", "Prefix for links between pages")
	_ = viper.BindPFlag("utils.markdown.link-prefix", markdownCmd.Flags().Lookup("link-prefix"))
}
