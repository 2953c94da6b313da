package cmd

import (
	"fmt"
	"os"

	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// backupCmd represents the backup command
var backupCmd = &cobra.Command{
	Use:   "backup <instance>",
	Short: "Zip an instance into the backups folder",
	Long: `Zip an instance into the backups folder.
Files matching the patterns in the instance's .launcherignore are left out.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mode, err := parseBackupMode(viper.GetString("backup.mode"))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		inst := cmdshared.LoadInstance(cmd.Context(), args[0])
		fmt.Printf("Backing up %s...\n", inst.Name())
		dst, err := inst.Backup(mode)
		if err != nil {
			fmt.Printf("Failed to back up %s: %v\n", inst.Name(), err)
			os.Exit(1)
		}
		fmt.Printf("Backup saved to %s\n", dst)
	},
}

func parseBackupMode(s string) (instance.BackupMode, error) {
	switch mode := instance.BackupMode(s); mode {
	case instance.BackupNormal, instance.BackupMods, instance.BackupFull:
		return mode, nil
	}
	return "", fmt.Errorf("invalid backup mode %q, must be one of normal, mods or full", s)
}

func init() {
	rootCmd.AddCommand(backupCmd)

	backupCmd.Flags().String("mode", string(instance.BackupNormal), "What to back up: normal (worlds and configs), mods (normal plus mods) or full")
	_ = viper.BindPFlag("backup.mode", backupCmd.Flags().Lookup("mode"))
}
