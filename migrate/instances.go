package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/packlaunch/packlaunch/minecraft"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var instancesCommand = &cobra.Command{
	Use:   "instances [name...]",
	Short: "Migrate instances to the current instance format",
	Long: `Migrate instances to the current instance format. Every instance is checked unless names are given.
Each instance is converted in memory and written once, so a failed migration leaves it as it was.`,
	Run: func(cmd *cobra.Command, args []string) {
		res, err := migrateInstances(cmd.Context(), args, minecraft.DefaultClient, viper.GetBool("migrate.dry-run"), viper.GetBool("migrate.keep-old"))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		for _, name := range res.Migrated {
			if viper.GetBool("migrate.dry-run") {
				fmt.Printf("%s needs migrating\n", name)
			} else {
				fmt.Printf("%s migrated\n", name)
			}
		}
		for name, err := range res.Failed {
			fmt.Printf("%s failed to migrate: %v\n", name, err)
		}
		fmt.Printf("%d migrated, %d already current, %d failed\n", len(res.Migrated), res.Current, len(res.Failed))
		if len(res.Failed) > 0 {
			os.Exit(1)
		}
	},
}

type migrateResult struct {
	Migrated []string
	Current  int
	Failed   map[string]error
}

// migrateInstances migrates the named instance directories, or every one in the instances folder. With keepOld
// the file being replaced is kept next to it as instance.json.old.
func migrateInstances(ctx context.Context, names []string, resolver instance.VersionResolver, dryRun bool, keepOld bool) (migrateResult, error) {
	res := migrateResult{Failed: make(map[string]error)}
	instancesDir, err := core.GetInstancesDir()
	if err != nil {
		return res, err
	}
	scanned := len(names) == 0
	if scanned {
		entries, err := os.ReadDir(instancesDir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return res, nil
			}
			return res, err
		}
		for _, e := range entries {
			if e.IsDir() {
				names = append(names, e.Name())
			}
		}
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		dir := filepath.Join(instancesDir, instance.SafeName(name))
		needs, err := instance.NeedsMigration(dir)
		if err != nil {
			if errors.Is(err, instance.ErrNotFound) && scanned {
				core.Log.Debug("not an instance", zap.String("dir", dir))
				continue
			}
			res.Failed[name] = err
			continue
		}
		if !needs {
			res.Current++
			continue
		}
		if dryRun {
			res.Migrated = append(res.Migrated, name)
			continue
		}
		if keepOld {
			file := filepath.Join(dir, instance.FileName)
			if err := core.CopyFile(file, file+".old"); err != nil {
				res.Failed[name] = err
				continue
			}
		}
		inst, err := instance.Migrate(ctx, dir, resolver)
		if err != nil {
			res.Failed[name] = err
			continue
		}
		res.Migrated = append(res.Migrated, inst.Name())
	}
	return res, nil
}

func init() {
	migrateCmd.AddCommand(instancesCommand)

	instancesCommand.Flags().Bool("dry-run", false, "Only list the instances that need migrating")
	instancesCommand.Flags().Bool("keep-old", true, "Keep a copy of each old instance.json as instance.json.old")
	_ = viper.BindPFlag("migrate.dry-run", instancesCommand.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("migrate.keep-old", instancesCommand.Flags().Lookup("keep-old"))
}
