package cmdshared

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/install"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/viper"
)

// ManualDownloads lists the files the launcher cannot fetch itself, offers to open their pages, and waits
// for the user to download them. Returning nil makes the installer look in the downloads folder again.
func ManualDownloads(mods []*core.Mod, downloadsDir string) error {
	fmt.Printf("Found %v manual downloads; these files are unable to be downloaded by packlaunch and must be manually downloaded:\n",
		len(mods))
	for _, m := range mods {
		fmt.Printf("%s (%s) from %s\n", m.Name, m.DownloadFileName(false), m.URL)
	}
	fmt.Printf("Save them to %s\n", downloadsDir)
	if viper.GetBool("non-interactive") {
		return fmt.Errorf("%w: %d files need downloading through a browser", install.ErrCancelled, len(mods))
	}
	if PromptYesNo("Open these pages in your browser? [Y/n]: ") {
		for _, m := range mods {
			if err := open.Start(m.URL); err != nil {
				fmt.Printf("Failed to open %s: %v\n", m.URL, err)
			}
		}
	}
	if !PromptYesNo("Have you downloaded all of them? [Y/n]: ") {
		return install.ErrCancelled
	}
	return nil
}

// AddToZip copies the file at src into the zip at dest, using forward slashes
func AddToZip(exp *zip.Writer, src string, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = path.Clean(dest)
	header.Method = zip.Deflate
	w, err := exp.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("error creating file %s: %w", dest, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("error copying file %s: %w", dest, err)
	}
	return nil
}

func PrintDisclaimer(isCf bool) {
	fmt.Println("Disclaimer: you are responsible for ensuring you comply with ALL the licenses, or obtain appropriate permissions, for the files \"added to zip\" below")
	if isCf {
		fmt.Println("Note that mods bundled within a CurseForge pack must be in the Approved Non-CurseForge Mods list")
	}
	fmt.Println()
}
