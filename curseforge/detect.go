package curseforge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/curseforge/murmur2"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect <instance>",
	Short: "Match .jar files in an instance's mods folder to CurseForge projects",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		inst := cmdshared.LoadInstance(cmd.Context(), args[0])
		res, err := detect(cmd.Context(), inst)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("Successfully matched %d files\n", len(res.Matched))
		if len(res.Unmatched) > 0 {
			fmt.Printf("Failed to match the following %d files:\n", len(res.Unmatched))
			for _, v := range res.Unmatched {
				fmt.Println(v)
			}
		}
	},
}

type detectResult struct {
	Matched   []string
	Unmatched []string
}

// detect fingerprints every jar in the mods folder and records the CurseForge project of each one CurseForge
// recognises, adding files the instance didn't know about as user added mods
func detect(ctx context.Context, inst *instance.Instance) (detectResult, error) {
	var res detectResult
	var hashes []uint32
	modPaths := make(map[uint32]string)
	err := filepath.Walk(inst.ModsDir(), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != inst.ModsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".jar") && !strings.HasSuffix(path, ".litemod") {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		hash, err := murmur2.Fingerprint(f)
		if err != nil {
			return err
		}
		core.Log.Debug("fingerprinted", zap.String("file", path), zap.Uint32("fingerprint", hash))
		hashes = append(hashes, hash)
		modPaths[hash] = path
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return res, nil
		}
		return res, err
	}
	if len(hashes) == 0 {
		return res, nil
	}
	fmt.Printf("Found %d files, submitting...\n", len(hashes))

	fp, err := api.getFingerprintInfo(ctx, hashes)
	if err != nil {
		return res, err
	}

	projectIDs := make([]uint32, 0, len(fp.ExactMatches))
	for _, v := range fp.ExactMatches {
		projectIDs = append(projectIDs, v.ID)
	}
	projects := make(map[uint32]modInfo)
	if len(projectIDs) > 0 {
		infos, err := api.getModInfoMultiple(ctx, projectIDs)
		if err != nil {
			return res, err
		}
		for _, v := range infos {
			projects[v.ID] = v
		}
	}

	matched := make(map[string]bool)
	for _, v := range fp.ExactMatches {
		path, ok := modPaths[v.File.Fingerprint]
		if !ok {
			continue
		}
		project, ok := projects[v.ID]
		if !ok {
			project = modInfo{ID: v.ID, Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), ClassID: classMods}
		}
		file := v.File
		// Keep the name on disk, which can differ from the name CurseForge has
		file.FileName = filepath.Base(path)
		detected, err := toDisableableMod(project, file)
		if err != nil {
			core.Log.Warn("skipping detected file", zap.String("file", path), zap.Error(err))
			continue
		}
		if existing := findByFile(inst, file.FileName); existing != nil {
			existing.CurseForge = detected.CurseForge
			if existing.Hash == "" {
				existing.Hash, existing.HashType = detected.Hash, detected.HashType
			}
		} else {
			detected.UserAdded = true
			detected.Optional = true
			inst.Launcher.Mods = append(inst.Launcher.Mods, detected)
		}
		matched[path] = true
		res.Matched = append(res.Matched, file.FileName)
	}
	for _, path := range modPaths {
		if !matched[path] {
			res.Unmatched = append(res.Unmatched, filepath.Base(path))
		}
	}
	sort.Strings(res.Unmatched)
	if len(res.Matched) > 0 {
		if err := inst.Save(); err != nil {
			return res, err
		}
	}
	return res, nil
}

func findByFile(inst *instance.Instance, file string) *instance.DisableableMod {
	for i := range inst.Launcher.Mods {
		m := &inst.Launcher.Mods[i]
		if m.File == file && !m.Disabled {
			return m
		}
	}
	return nil
}

func init() {
	curseforgeCmd.AddCommand(detectCmd)
}
