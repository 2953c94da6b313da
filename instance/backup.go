package instance

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/packlaunch/packlaunch/core"
	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"
)

// IgnoreFileName is a gitignore style file in the instance root listing paths to leave out of backups
const IgnoreFileName = ".launcherignore"

// Always left out; these are rebuilt by the next install or launch
var defaultBackupIgnores = []string{
	"bin/natives/",
	"logs/",
	"crash-reports/",
	"*.bak",
	"*.hash",
}

// BackupMode picks how much of an instance a backup holds
type BackupMode string

const (
	// BackupNormal saves worlds, configs and the instance metadata
	BackupNormal BackupMode = "normal"
	// BackupMods adds the mod folders to a normal backup
	BackupMods BackupMode = "mods"
	// BackupFull saves the whole instance
	BackupFull BackupMode = "full"
)

var modFolderIgnores = []string{
	"mods/", "coremods/", "jarmods/", "disabledmods/", "bin/", "resourcepacks/", "texturepacks/", "shaderpacks/",
}

func (i *Instance) backupMatcher(mode BackupMode) (*ignore.GitIgnore, error) {
	lines := append([]string(nil), defaultBackupIgnores...)
	if mode == BackupNormal || mode == "" {
		lines = append(lines, modFolderIgnores...)
	} else if mode == BackupMods {
		lines = append(lines, "bin/")
	}
	ignoreFile := filepath.Join(i.root, IgnoreFileName)
	if core.FileExists(ignoreFile) {
		return ignore.CompileIgnoreFileAndLines(ignoreFile, lines...)
	}
	return ignore.CompileIgnoreLines(lines...), nil
}

// Backup zips the instance into the backups folder and returns the path of the archive
func (i *Instance) Backup(mode BackupMode) (string, error) {
	backupsDir, err := core.GetBackupsDir()
	if err != nil {
		return "", err
	}
	matcher, err := i.backupMatcher(mode)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}
	dst := filepath.Join(backupsDir, fmt.Sprintf("%s-%s.zip", SafeName(i.Name()), time.Now().Format("20060102-150405")))
	err = core.ZipDirFiltered(i.root, dst, func(rel string, isDir bool) bool {
		if rel == FileName {
			return false
		}
		if isDir {
			return matcher.MatchesPath(rel + "/")
		}
		return matcher.MatchesPath(rel)
	})
	if err != nil {
		return "", err
	}
	core.Log.Info("backed up instance", zap.String("instance", i.Name()), zap.String("path", dst))
	return dst, nil
}
